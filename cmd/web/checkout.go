package main

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"sribalafashion.in/web/internal/api"
	"sribalafashion.in/web/internal/cart"
	"sribalafashion.in/web/internal/checkout"
	"sribalafashion.in/web/internal/upi"
)

// CheckoutView is the checkout page payload.
type CheckoutView struct {
	Lines   []cart.Line
	Total   int64
	Savings int64
	Form    checkout.Form
	UPIID   string
	PayURI  string
}

// CheckoutHandler renders the shipping form and payment instructions.
func (a *app) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	lines := a.carts.Lines()
	if len(lines) == 0 {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	a.renderCheckout(w, r, checkout.Form{}, "")
}

func (a *app) renderCheckout(w http.ResponseWriter, r *http.Request, form checkout.Form, errMsg string) {
	total := a.carts.Total()
	upiID := a.content.UPIID(r.Context())
	view := CheckoutView{
		Lines:   a.carts.Lines(),
		Total:   total,
		Savings: a.carts.Savings(),
		Form:    form,
		UPIID:   upiID,
		PayURI:  upi.PayURI(upiID, total),
	}
	vm := a.pageData(r, "Checkout")
	vm.Error = errMsg
	vm.Checkout = view
	a.renderPage(w, r, "checkout", vm)
}

// CheckoutSubmitHandler validates the form and places the order in a single
// request. Success renders the confirmation page; any failure re-renders
// the form with the reason and an intact cart.
func (a *app) CheckoutSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := checkout.Form{
		CustomerName:  r.FormValue("customer_name"),
		Phone:         r.FormValue("phone"),
		Address:       r.FormValue("address"),
		City:          r.FormValue("city"),
		State:         r.FormValue("state"),
		Pincode:       r.FormValue("pincode"),
		TransactionID: r.FormValue("transaction_id"),
	}

	result := a.checkout.Submit(r.Context(), form)
	switch result.Phase {
	case checkout.PhaseSuccess:
		vm := a.pageData(r, "Order Placed")
		vm.Order = OrderSuccessView{Order: result.Order}
		a.renderPage(w, r, "order_success", vm)
	default:
		a.renderCheckout(w, r, form, result.Message)
	}
}

// OrderSuccessView is the confirmation page payload.
type OrderSuccessView struct {
	Order api.Order
}

// CheckoutQRHandler serves the scan-to-pay QR code for the current cart
// total.
func (a *app) CheckoutQRHandler(w http.ResponseWriter, r *http.Request) {
	total := a.carts.Total()
	if total <= 0 {
		http.NotFound(w, r)
		return
	}
	png, err := upi.QRPNG(a.content.UPIID(r.Context()), int(total), 256)
	if err != nil {
		a.log.Error("qr render failed", zap.Error(err))
		http.Error(w, "qr unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}
