package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const idempotencyHeader = "Idempotency-Key"

// OrderStatuses lists the fulfillment states in their natural progression.
var OrderStatuses = []string{"PLACED", "CONFIRMED", "SHIPPED", "DELIVERED", "CANCELLED"}

// PaymentStatuses lists the manual payment-verification outcomes.
var PaymentStatuses = []string{"PENDING", "PAID", "FAILED"}

// OrderItem is one line of a placed order as echoed by the backend.
type OrderItem struct {
	ProductName  string
	Quantity     int
	SelectedSize string
	FinalPrice   int64
}

// Order is the backend's snapshot of a checkout submission. The client never
// mutates an order after creation except by re-fetching it.
type Order struct {
	ID                int64
	CustomerName      string
	Phone             string
	Address           string
	City              string
	State             string
	Pincode           string
	TransactionID     string
	Items             []OrderItem
	TotalAmount       int64
	OrderStatus       string
	PaymentStatus     string
	EstimatedDelivery string
	CreatedAt         time.Time
}

// OrderItemRequest is one cart line in an order submission.
type OrderItemRequest struct {
	ProductID    int64   `json:"productId"`
	Quantity     int     `json:"quantity"`
	SelectedSize *string `json:"selectedSize"`
}

// OrderRequest is the single atomic order-creation payload.
type OrderRequest struct {
	CustomerName  string             `json:"customerName"`
	Phone         string             `json:"phone"`
	Address       string             `json:"address"`
	City          string             `json:"city"`
	State         string             `json:"state"`
	Pincode       string             `json:"pincode"`
	TransactionID string             `json:"transactionId"`
	Items         []OrderItemRequest `json:"items"`
}

// PlaceOrder submits the order in one request. There is no multi-step
// transaction and no partial commit; an idempotency key shields against
// double submission on retried transports.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (Order, error) {
	headers := map[string]string{idempotencyHeader: "order-" + uuid.NewString()}
	var raw remoteOrder
	if err := c.do(ctx, http.MethodPost, "/api/orders", nil, headers, req, &raw); err != nil {
		return Order{}, err
	}
	return raw.toOrder(), nil
}

// MyOrders fetches the caller's order history.
func (c *Client) MyOrders(ctx context.Context) ([]Order, error) {
	var raw []remoteOrder
	if err := c.get(ctx, "/api/orders/my", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toOrder())
	}
	return out, nil
}

type remoteOrder struct {
	ID                int64             `json:"id"`
	CustomerName      string            `json:"customerName"`
	Phone             string            `json:"phone"`
	Address           string            `json:"address"`
	City              string            `json:"city"`
	State             string            `json:"state"`
	Pincode           string            `json:"pincode"`
	TransactionID     string            `json:"transactionId"`
	Items             []remoteOrderItem `json:"items"`
	TotalAmount       flexNumber        `json:"totalAmount"`
	OrderStatus       string            `json:"orderStatus"`
	PaymentStatus     string            `json:"paymentStatus"`
	EstimatedDelivery string            `json:"estimatedDelivery"`
	CreatedAt         string            `json:"createdAt"`
}

type remoteOrderItem struct {
	ProductName  string     `json:"productName"`
	Quantity     int        `json:"quantity"`
	SelectedSize string     `json:"selectedSize"`
	FinalPrice   flexNumber `json:"finalPrice"`
}

func (r remoteOrder) toOrder() Order {
	o := Order{
		ID:                r.ID,
		CustomerName:      trimmed(r.CustomerName),
		Phone:             trimmed(r.Phone),
		Address:           trimmed(r.Address),
		City:              trimmed(r.City),
		State:             trimmed(r.State),
		Pincode:           trimmed(r.Pincode),
		TransactionID:     trimmed(r.TransactionID),
		TotalAmount:       roundRupees(float64(r.TotalAmount)),
		OrderStatus:       defaultString(r.OrderStatus, "PLACED"),
		PaymentStatus:     defaultString(r.PaymentStatus, "PENDING"),
		EstimatedDelivery: trimmed(r.EstimatedDelivery),
		CreatedAt:         parseTime(r.CreatedAt),
	}
	for _, it := range r.Items {
		o.Items = append(o.Items, OrderItem{
			ProductName:  trimmed(it.ProductName),
			Quantity:     it.Quantity,
			SelectedSize: trimmed(it.SelectedSize),
			FinalPrice:   roundRupees(float64(it.FinalPrice)),
		})
	}
	return o
}
