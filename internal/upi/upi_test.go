package upi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayURI(t *testing.T) {
	uri := PayURI("dhanaseelan.a12345-3@okicici", 800)
	assert.Equal(t,
		"upi://pay?pa=dhanaseelan.a12345-3@okicici&pn=Sri%20Bala%20Fashion&am=800&cu=INR&tn=Order%20Payment",
		uri)
}

func TestQRPNG(t *testing.T) {
	png, err := QRPNG("store@upi", 500, 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
