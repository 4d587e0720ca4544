package syncbus

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sribalafashion.in/web/internal/localstore"
)

func newStore(t *testing.T) *localstore.Store {
	t.Helper()
	s, err := localstore.Open(filepath.Join(t.TempDir(), "bus.db"))
	require.NoError(t, err)
	return s
}

func TestNotifyDispatchesSameProcess(t *testing.T) {
	bus := New(newStore(t), nil)

	var orders, products int
	bus.Subscribe(TopicOrders, func() { orders++ })
	bus.Subscribe(TopicProducts, func() { products++ })

	bus.Notify(TopicOrders)
	require.Equal(t, 1, orders)
	require.Equal(t, 0, products)

	bus.Notify(TopicOrders)
	bus.Notify(TopicProducts)
	require.Equal(t, 2, orders)
	require.Equal(t, 1, products)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New(newStore(t), nil)

	var n int
	off := bus.Subscribe(TopicLogout, func() { n++ })
	bus.Notify(TopicLogout)
	off()
	bus.Notify(TopicLogout)
	require.Equal(t, 1, n)
}

func TestCrossClientDeliveryViaSharedSlot(t *testing.T) {
	store := newStore(t)
	writer := New(store, nil)
	reader := New(store, nil)

	var got int
	reader.Subscribe(TopicOrders, func() { got++ })

	writer.Notify(TopicOrders)
	reader.poll()
	require.Equal(t, 1, got)

	// The same signal is not delivered twice.
	reader.poll()
	require.Equal(t, 1, got)
}

func TestWatcherSkipsOwnWrites(t *testing.T) {
	store := newStore(t)
	bus := New(store, nil)

	var n int
	bus.Subscribe(TopicProducts, func() { n++ })
	bus.Notify(TopicProducts)
	require.Equal(t, 1, n)

	// Polling after our own write must not redeliver.
	bus.poll()
	require.Equal(t, 1, n)
}

func TestSlotSignalFromPreviousRunNotReplayed(t *testing.T) {
	store := newStore(t)

	// A previous process run leaves a logout signal in the slot.
	New(store, nil).Notify(TopicLogout)

	// A bus built afterwards must treat that signal as already seen.
	restarted := New(store, nil)
	var n int
	restarted.Subscribe(TopicLogout, func() { n++ })
	restarted.poll()
	require.Equal(t, 0, n, "startup must not replay signals from earlier runs")

	// Signals written after construction are still delivered.
	New(store, nil).Notify(TopicLogout)
	restarted.poll()
	require.Equal(t, 1, n)
}

func TestMalformedSlotPayloadIgnored(t *testing.T) {
	store := newStore(t)
	bus := New(store, nil)

	var n int
	bus.Subscribe(TopicOrders, func() { n++ })

	require.NoError(t, store.Set(localstore.KeySync, `{"type":"orders",`))
	require.NotPanics(t, func() { bus.poll() })
	require.Equal(t, 0, n)
}
