// Package upi builds the payment deep link and QR code shown on the
// checkout page.
package upi

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// PayeeName is the fixed display name in the payment request.
const PayeeName = "Sri Bala Fashion"

// PayURI builds the upi:// deep link for the given payee address and rupee
// amount. The field order and encoding match what payment apps expect.
func PayURI(payeeAddress string, amount int64) string {
	return fmt.Sprintf(
		"upi://pay?pa=%s&pn=Sri%%20Bala%%20Fashion&am=%d&cu=INR&tn=Order%%20Payment",
		payeeAddress, amount)
}

// QRPNG renders the payment link as a PNG for scan-to-pay.
func QRPNG(payeeAddress string, amount, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(PayURI(payeeAddress, int64(amount)), qrcode.Medium, size)
}
