// Package cart owns the shopping cart: a price-snapshot ledger of line
// items, persisted to the durable local store after every mutation. Prices
// and discounts are frozen at add time and never re-derived from the live
// catalog; reconciling against current stock or price is a deliberate,
// separate step, not something the cart does behind the caller's back.
package cart

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"sribalafashion.in/web/internal/localstore"
	"sribalafashion.in/web/internal/syncbus"
)

// Product is the catalog view the cart needs at add time. Stock is nil when
// the sellable quantity is unknown (unbounded).
type Product struct {
	ID              string
	Name            string
	ListPrice       int64
	DiscountPercent int
	Stock           *int
}

// Line is one purchasable unit. The JSON tags match the persisted cart
// payload shape.
type Line struct {
	CartKey         string `json:"cartKey"`
	ProductID       string `json:"productId"`
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	UnitListPrice   int64  `json:"originalPrice"`
	UnitFinalPrice  int64  `json:"finalPrice"`
	DiscountPercent int    `json:"discountPercent"`
	StockCeiling    *int   `json:"stock"`
	SelectedSize    string `json:"selectedSize,omitempty"`
}

// EffectivePrice is the snapshotted discounted price, falling back to the
// list price when no final price was ever recorded.
func (l Line) EffectivePrice() int64 {
	if l.UnitFinalPrice > 0 {
		return l.UnitFinalPrice
	}
	return l.UnitListPrice
}

// LineTotal is the effective price times quantity.
func (l Line) LineTotal() int64 {
	return l.EffectivePrice() * int64(l.Quantity)
}

// Key builds the composite cart line identity from a product id and an
// optional size selection.
func Key(productID, size string) string {
	if size == "" {
		return productID
	}
	return productID + "-" + size
}

// Store holds the cart lines and mirrors them into the local store.
type Store struct {
	mu    sync.RWMutex
	lines []Line

	local *localstore.Store
	log   *zap.Logger

	changeMu sync.Mutex
	onChange []func()
}

// New restores the cart from the local store and wires the logout cascade:
// a logout signal on the bus empties the cart even when the session store
// shares no memory with us.
func New(local *localstore.Store, bus *syncbus.Bus, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{local: local, log: log}
	if local != nil {
		var lines []Line
		if local.GetJSON(localstore.KeyCart, &lines) {
			s.lines = lines
		}
	}
	if bus != nil {
		bus.Subscribe(syncbus.TopicLogout, s.Clear)
	}
	return s
}

// OnChange registers a callback fired after every cart mutation.
func (s *Store) OnChange(fn func()) {
	s.changeMu.Lock()
	s.onChange = append(s.onChange, fn)
	s.changeMu.Unlock()
}

// Add puts quantity units of the product (with an optional size) into the
// cart. Re-adding an existing cartKey increments that line and refreshes its
// price snapshot to the values passed now. Quantities are silently clamped
// to [1, stock]; a stock mismatch caps the line, it never blocks the user.
func (s *Store) Add(p Product, size string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	final := p.ListPrice
	if p.DiscountPercent > 0 {
		final = int64(math.Round(float64(p.ListPrice) * (1 - float64(p.DiscountPercent)/100)))
	}
	key := Key(p.ID, size)

	s.mu.Lock()
	if i := s.index(key); i >= 0 {
		line := &s.lines[i]
		line.Quantity = clamp(line.Quantity+quantity, p.Stock)
		line.UnitListPrice = p.ListPrice
		line.UnitFinalPrice = final
		line.DiscountPercent = p.DiscountPercent
		line.StockCeiling = p.Stock
	} else {
		s.lines = append(s.lines, Line{
			CartKey:         key,
			ProductID:       p.ID,
			Name:            p.Name,
			Quantity:        clamp(quantity, p.Stock),
			UnitListPrice:   p.ListPrice,
			UnitFinalPrice:  final,
			DiscountPercent: p.DiscountPercent,
			StockCeiling:    p.Stock,
			SelectedSize:    size,
		})
	}
	s.persistLocked()
	s.mu.Unlock()
	s.fireChange()
}

// Remove deletes the line with the given key. No-op when absent.
func (s *Store) Remove(cartKey string) {
	s.mu.Lock()
	i := s.index(cartKey)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persistLocked()
	s.mu.Unlock()
	s.fireChange()
}

// SetQuantity replaces the line's quantity. Requests below 1 are ignored;
// requests above the stock ceiling are clamped.
func (s *Store) SetQuantity(cartKey string, quantity int) {
	if quantity < 1 {
		return
	}
	s.mu.Lock()
	i := s.index(cartKey)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.lines[i].Quantity = clamp(quantity, s.lines[i].StockCeiling)
	s.persistLocked()
	s.mu.Unlock()
	s.fireChange()
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.persistLocked()
	s.mu.Unlock()
	s.fireChange()
}

// Lines returns a snapshot copy of the current lines.
func (s *Store) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Total sums effective price times quantity across all lines.
func (s *Store) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, l := range s.lines {
		total += l.LineTotal()
	}
	return total
}

// Count sums quantities across lines.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Savings is the total discount captured in the snapshots: the gap between
// list and final price, summed over discounted lines.
func (s *Store) Savings() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum int64
	for _, l := range s.lines {
		if l.DiscountPercent > 0 && l.UnitListPrice > 0 {
			sum += (l.UnitListPrice - l.EffectivePrice()) * int64(l.Quantity)
		}
	}
	return sum
}

// QuantityFor reports the quantity already in the cart for a cartKey, zero
// when absent.
func (s *Store) QuantityFor(cartKey string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(cartKey); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

func (s *Store) index(cartKey string) int {
	for i, l := range s.lines {
		if l.CartKey == cartKey {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() {
	if s.local == nil {
		return
	}
	lines := s.lines
	if lines == nil {
		lines = []Line{}
	}
	if err := s.local.SetJSON(localstore.KeyCart, lines); err != nil {
		s.log.Warn("cart persist failed", zap.Int("lines", len(lines)), zap.Error(err))
	}
}

func (s *Store) fireChange() {
	s.changeMu.Lock()
	fns := make([]func(), len(s.onChange))
	copy(fns, s.onChange)
	s.changeMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func clamp(q int, ceiling *int) int {
	// A ceiling below 1 cannot satisfy the quantity floor; the UI guards
	// out-of-stock adds, so such a ceiling is not applied here.
	if ceiling != nil && *ceiling >= 1 && q > *ceiling {
		q = *ceiling
	}
	if q < 1 {
		q = 1
	}
	return q
}
