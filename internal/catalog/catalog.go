// Package catalog serves product listings for the shop page. Listings are
// cached in local storage per category so a revisit inside the freshness
// window renders without a network round trip, and a category switch cancels
// any fetch still in flight so a slow response for the old category can
// never overwrite the new one.
package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"sribalafashion.in/web/internal/api"
	"sribalafashion.in/web/internal/localstore"
	"sribalafashion.in/web/internal/syncbus"
)

// Categories the shop filter offers. The empty string is "all".
var Categories = []string{"", "Bangles", "Garlands", "Accessories"}

// DefaultFreshness is how long a cached listing is served without refetch.
const DefaultFreshness = time.Minute

type listingFetcher interface {
	ListProducts(ctx context.Context, category string) ([]api.Product, error)
	GetProduct(ctx context.Context, id int64) (api.Product, error)
}

type cachedListing struct {
	Products  []api.Product `json:"products"`
	FetchedAt time.Time     `json:"fetchedAt"`
}

// Service loads and caches product listings.
type Service struct {
	client    listingFetcher
	local     *localstore.Store
	log       *zap.Logger
	freshness time.Duration

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// New builds the catalog service. When bus is non-nil, product change
// signals from other clients invalidate the cache.
func New(client listingFetcher, local *localstore.Store, bus *syncbus.Bus, log *zap.Logger, freshness time.Duration) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	s := &Service{client: client, local: local, log: log, freshness: freshness}
	if bus != nil {
		bus.Subscribe(syncbus.TopicProducts, s.Invalidate)
	}
	return s
}

// Listing returns the products for a category, cached when fresh. Calling
// Listing again with a different category cancels the previous in-flight
// fetch; its late response is discarded. When the fetch itself fails, the
// last cached listing is served even past the freshness window.
func (s *Service) Listing(ctx context.Context, category string) ([]api.Product, error) {
	category = normalizeCategory(category)

	if products, ok := s.cached(category); ok {
		return products, nil
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	products, err := s.client.ListProducts(fetchCtx, category)
	if err != nil {
		// A superseded fetch stays an error; a failed one falls back to
		// the last cached listing even past the freshness window.
		if !errors.Is(err, context.Canceled) {
			if entry, ok := s.cacheEntry(category); ok {
				s.log.Warn("listing fetch failed, serving cached",
					zap.String("category", category), zap.Error(err))
				return entry.Products, nil
			}
		}
		return nil, err
	}

	s.mu.Lock()
	stale := gen != s.generation
	s.mu.Unlock()
	if stale {
		return nil, context.Canceled
	}

	if s.local != nil {
		entry := cachedListing{Products: products, FetchedAt: time.Now()}
		if err := s.local.SetJSON(localstore.ListingCacheKey(category), entry); err != nil {
			s.log.Warn("listing cache write failed", zap.Error(err))
		}
	}
	return products, nil
}

// Product fetches a single product by id, bypassing the listing cache so
// the detail page always shows live stock.
func (s *Service) Product(ctx context.Context, id int64) (api.Product, error) {
	return s.client.GetProduct(ctx, id)
}

// Invalidate drops every cached listing. Wired to cross-client product
// change signals.
func (s *Service) Invalidate() {
	if s.local == nil {
		return
	}
	for _, category := range Categories {
		if err := s.local.Delete(localstore.ListingCacheKey(category)); err != nil {
			s.log.Warn("listing cache invalidate failed", zap.Error(err))
		}
	}
}

func (s *Service) cached(category string) ([]api.Product, bool) {
	entry, ok := s.cacheEntry(category)
	if !ok || time.Since(entry.FetchedAt) > s.freshness {
		return nil, false
	}
	return entry.Products, true
}

func (s *Service) cacheEntry(category string) (cachedListing, bool) {
	if s.local == nil {
		return cachedListing{}, false
	}
	var entry cachedListing
	if !s.local.GetJSON(localstore.ListingCacheKey(category), &entry) {
		return cachedListing{}, false
	}
	return entry, true
}

func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	for _, known := range Categories {
		if strings.EqualFold(category, known) {
			return known
		}
	}
	return ""
}
