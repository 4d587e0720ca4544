// Package checkout runs the payment-and-order workflow: local validation of
// the shipping form, a single atomic order submission, and the post-success
// cascade that empties the cart and raises cross-client signals.
package checkout

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"sribalafashion.in/web/internal/api"
	"sribalafashion.in/web/internal/cart"
	"sribalafashion.in/web/internal/syncbus"
)

// Phase is a checkout lifecycle phase.
type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseValidating Phase = "validating"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseFailed     Phase = "failed"
)

// Validation failure messages shown above the form.
const (
	msgAllFields     = "Please fill in all fields."
	msgPhone         = "Please enter a valid 10-digit phone number."
	msgPincode       = "Please enter a valid 6-digit pincode."
	msgTransaction   = "Please enter your UPI Transaction ID after completing payment."
	msgSubmitFailure = "Failed to place order. Please try again."
)

var (
	phonePattern   = regexp.MustCompile(`^\d{10}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

// Form is the shipping and payment form as submitted.
type Form struct {
	CustomerName  string
	Phone         string
	Address       string
	City          string
	State         string
	Pincode       string
	TransactionID string
}

// orderPlacer is the slice of the API client the workflow needs.
type orderPlacer interface {
	PlaceOrder(ctx context.Context, req api.OrderRequest) (api.Order, error)
}

// Workflow drives one checkout attempt at a time.
type Workflow struct {
	client orderPlacer
	cart   *cart.Store
	bus    *syncbus.Bus
	log    *zap.Logger
}

// New builds the workflow around the shared cart store.
func New(client orderPlacer, cartStore *cart.Store, bus *syncbus.Bus, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{client: client, cart: cartStore, bus: bus, log: log}
}

// Validate runs the synchronous local checks. An empty string means the
// form may be submitted; otherwise the message is surfaced and no request
// leaves the client.
func (w *Workflow) Validate(form Form) string {
	if strings.TrimSpace(form.CustomerName) == "" ||
		strings.TrimSpace(form.Phone) == "" ||
		strings.TrimSpace(form.Address) == "" ||
		strings.TrimSpace(form.City) == "" ||
		strings.TrimSpace(form.State) == "" ||
		strings.TrimSpace(form.Pincode) == "" {
		return msgAllFields
	}
	if !phonePattern.MatchString(form.Phone) {
		return msgPhone
	}
	if !pincodePattern.MatchString(form.Pincode) {
		return msgPincode
	}
	if strings.TrimSpace(form.TransactionID) == "" {
		return msgTransaction
	}
	return ""
}

// Result is the outcome of a Submit call.
type Result struct {
	Phase   Phase
	Message string
	Order   api.Order
}

// Submit validates and then places the order in one atomic request. On
// success the cart empties and order/product change signals go out; on
// failure the cart is untouched and the backend's message, when it sent
// one, is surfaced verbatim.
func (w *Workflow) Submit(ctx context.Context, form Form) Result {
	if msg := w.Validate(form); msg != "" {
		return Result{Phase: PhaseEditing, Message: msg}
	}

	lines := w.cart.Lines()
	if len(lines) == 0 {
		return Result{Phase: PhaseEditing, Message: msgAllFields}
	}

	req := api.OrderRequest{
		CustomerName:  strings.TrimSpace(form.CustomerName),
		Phone:         form.Phone,
		Address:       strings.TrimSpace(form.Address),
		City:          strings.TrimSpace(form.City),
		State:         strings.TrimSpace(form.State),
		Pincode:       form.Pincode,
		TransactionID: strings.TrimSpace(form.TransactionID),
		Items:         itemsFromLines(lines),
	}

	order, err := w.client.PlaceOrder(ctx, req)
	if err != nil {
		msg := api.ServerMessage(err)
		if msg == "" {
			msg = msgSubmitFailure
		}
		w.log.Warn("order placement failed", zap.Error(err))
		return Result{Phase: PhaseFailed, Message: msg}
	}

	w.cart.Clear()
	if w.bus != nil {
		w.bus.Notify(syncbus.TopicOrders)
		w.bus.Notify(syncbus.TopicProducts)
	}
	w.log.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("total", order.TotalAmount))
	return Result{Phase: PhaseSuccess, Order: order}
}

func itemsFromLines(lines []cart.Line) []api.OrderItemRequest {
	items := make([]api.OrderItemRequest, 0, len(lines))
	for _, line := range lines {
		id, err := strconv.ParseInt(line.ProductID, 10, 64)
		if err != nil {
			continue
		}
		item := api.OrderItemRequest{ProductID: id, Quantity: line.Quantity}
		if line.SelectedSize != "" {
			size := line.SelectedSize
			item.SelectedSize = &size
		}
		items = append(items, item)
	}
	return items
}
