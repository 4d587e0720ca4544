package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sribalafashion.in/web/internal/api"
	"sribalafashion.in/web/internal/cart"
	"sribalafashion.in/web/internal/localstore"
	"sribalafashion.in/web/internal/syncbus"
)

type recordingPlacer struct {
	mu     sync.Mutex
	err    error
	order  api.Order
	reqs   []api.OrderRequest
}

func (p *recordingPlacer) PlaceOrder(ctx context.Context, req api.OrderRequest) (api.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reqs = append(p.reqs, req)
	if p.err != nil {
		return api.Order{}, p.err
	}
	return p.order, nil
}

func (p *recordingPlacer) Requests() []api.OrderRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]api.OrderRequest(nil), p.reqs...)
}

func validForm() Form {
	return Form{
		CustomerName:  "Asha R",
		Phone:         "9876543210",
		Address:       "12 Temple Street",
		City:          "Madurai",
		State:         "Tamil Nadu",
		Pincode:       "625001",
		TransactionID: "T1234567890",
	}
}

func newTestWorkflow(t *testing.T, placer orderPlacer) (*Workflow, *cart.Store, *syncbus.Bus) {
	t.Helper()
	local, err := localstore.Open(":memory:")
	require.NoError(t, err)
	bus := syncbus.New(local, zap.NewNop())
	carts := cart.New(local, bus, zap.NewNop())
	return New(placer, carts, bus, zap.NewNop()), carts, bus
}

func seedCart(carts *cart.Store) {
	carts.Add(cart.Product{ID: "7", Name: "Silk Thread Bangles", ListPrice: 500, DiscountPercent: 20}, "2.6", 2)
}

func TestValidateMessages(t *testing.T) {
	w, _, _ := newTestWorkflow(t, &recordingPlacer{})

	cases := []struct {
		name   string
		mutate func(*Form)
		want   string
	}{
		{"complete form passes", func(f *Form) {}, ""},
		{"missing name", func(f *Form) { f.CustomerName = " " }, "Please fill in all fields."},
		{"missing city", func(f *Form) { f.City = "" }, "Please fill in all fields."},
		{"short phone", func(f *Form) { f.Phone = "12345" }, "Please enter a valid 10-digit phone number."},
		{"alpha phone", func(f *Form) { f.Phone = "98765abcde" }, "Please enter a valid 10-digit phone number."},
		{"bad pincode", func(f *Form) { f.Pincode = "60001" }, "Please enter a valid 6-digit pincode."},
		{"missing reference", func(f *Form) { f.TransactionID = "  " }, "Please enter your UPI Transaction ID after completing payment."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := validForm()
			tc.mutate(&form)
			assert.Equal(t, tc.want, w.Validate(form))
		})
	}
}

func TestSubmitRejectsInvalidFormWithoutNetworkCall(t *testing.T) {
	placer := &recordingPlacer{}
	w, carts, _ := newTestWorkflow(t, placer)
	seedCart(carts)

	form := validForm()
	form.Phone = "12345"
	res := w.Submit(context.Background(), form)

	assert.Equal(t, PhaseEditing, res.Phase)
	assert.Equal(t, "Please enter a valid 10-digit phone number.", res.Message)
	assert.Empty(t, placer.Requests(), "invalid form must not reach the network")
	assert.Equal(t, 2, carts.Count())
}

func TestSubmitPlacesSingleOrderAndClearsCart(t *testing.T) {
	placer := &recordingPlacer{order: api.Order{ID: 41, TotalAmount: 800, OrderStatus: "PLACED"}}
	w, carts, bus := newTestWorkflow(t, placer)
	seedCart(carts)

	var signals []syncbus.Topic
	bus.Subscribe(syncbus.TopicOrders, func() { signals = append(signals, syncbus.TopicOrders) })
	bus.Subscribe(syncbus.TopicProducts, func() { signals = append(signals, syncbus.TopicProducts) })

	res := w.Submit(context.Background(), validForm())

	require.Equal(t, PhaseSuccess, res.Phase)
	assert.Equal(t, int64(41), res.Order.ID)

	reqs := placer.Requests()
	require.Len(t, reqs, 1, "exactly one order-creation request")
	require.Len(t, reqs[0].Items, 1)
	assert.Equal(t, int64(7), reqs[0].Items[0].ProductID)
	assert.Equal(t, 2, reqs[0].Items[0].Quantity)
	require.NotNil(t, reqs[0].Items[0].SelectedSize)
	assert.Equal(t, "2.6", *reqs[0].Items[0].SelectedSize)

	assert.Zero(t, carts.Count(), "cart empties after success")
	assert.Equal(t, []syncbus.Topic{syncbus.TopicOrders, syncbus.TopicProducts}, signals)
}

func TestSubmitSurfacesServerMessage(t *testing.T) {
	placer := &recordingPlacer{err: &api.Error{Status: 400, Message: "Insufficient stock for Silk Thread Bangles"}}
	w, carts, _ := newTestWorkflow(t, placer)
	seedCart(carts)

	res := w.Submit(context.Background(), validForm())

	assert.Equal(t, PhaseFailed, res.Phase)
	assert.Equal(t, "Insufficient stock for Silk Thread Bangles", res.Message)
	assert.Equal(t, 2, carts.Count(), "cart survives a failed submission")
}

func TestSubmitFallbackFailureMessage(t *testing.T) {
	placer := &recordingPlacer{err: context.DeadlineExceeded}
	w, carts, _ := newTestWorkflow(t, placer)
	seedCart(carts)

	res := w.Submit(context.Background(), validForm())

	assert.Equal(t, PhaseFailed, res.Phase)
	assert.Equal(t, "Failed to place order. Please try again.", res.Message)
}

func TestSubmitEmptyCartStaysEditing(t *testing.T) {
	placer := &recordingPlacer{}
	w, _, _ := newTestWorkflow(t, placer)

	res := w.Submit(context.Background(), validForm())
	assert.Equal(t, PhaseEditing, res.Phase)
	assert.Empty(t, placer.Requests())
}

func TestLineWithoutSizeOmitsSelectedSize(t *testing.T) {
	placer := &recordingPlacer{order: api.Order{ID: 9}}
	w, carts, _ := newTestWorkflow(t, placer)
	carts.Add(cart.Product{ID: "3", Name: "Jasmine Garland", ListPrice: 150}, "", 1)

	res := w.Submit(context.Background(), validForm())
	require.Equal(t, PhaseSuccess, res.Phase)

	reqs := placer.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Items, 1)
	assert.Nil(t, reqs[0].Items[0].SelectedSize)
}
