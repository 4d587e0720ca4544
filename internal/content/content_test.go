package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sribalafashion.in/web/internal/api"
	"sribalafashion.in/web/internal/localstore"
	"sribalafashion.in/web/internal/syncbus"
)

type scriptedContent struct {
	mu      sync.Mutex
	content api.HomeContent
	err     error
	calls   int
}

func (f *scriptedContent) FetchHomeContent(ctx context.Context) (api.HomeContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return api.HomeContent{}, f.err
	}
	return f.content, nil
}

func (f *scriptedContent) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestHomeServesBackendContent(t *testing.T) {
	f := &scriptedContent{content: api.HomeContent{
		HeroTitle: "Festive Season Sale",
		UPIID:     "store@upi",
	}}
	s := New(f, nil, zap.NewNop(), "", time.Minute)

	home := s.Home(context.Background())
	assert.Equal(t, "Festive Season Sale", home.HeroTitle)
	assert.Equal(t, "store@upi", home.UPIID)
}

func TestHomeCachesWithinTTL(t *testing.T) {
	f := &scriptedContent{content: api.HomeContent{HeroTitle: "First"}}
	s := New(f, nil, zap.NewNop(), "", time.Minute)

	s.Home(context.Background())
	s.Home(context.Background())
	assert.Equal(t, 1, f.Calls())
}

func TestHomeDefaultsWhenBackendDown(t *testing.T) {
	f := &scriptedContent{err: errors.New("connection refused")}
	s := New(f, nil, zap.NewNop(), "", time.Minute)

	home := s.Home(context.Background())
	assert.Equal(t, "Sri Bala Fashion", home.HeroTitle)
	assert.Equal(t, DefaultUPIID, home.UPIID)
}

func TestHomeYAMLFallback(t *testing.T) {
	dir := t.TempDir()
	fallback := strings.Join([]string{
		"heroTitle: Handcrafted With Love",
		"footerPhone: \"9876543210\"",
		"upiId: fallback@okaxis",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.yaml"), []byte(fallback), 0o644))

	f := &scriptedContent{err: errors.New("backend down")}
	s := New(f, nil, zap.NewNop(), dir, time.Minute)

	home := s.Home(context.Background())
	assert.Equal(t, "Handcrafted With Love", home.HeroTitle)
	assert.Equal(t, "9876543210", home.FooterPhone)
	assert.Equal(t, "fallback@okaxis", home.UPIID)
}

func TestPromoMarkdownRenderedAndSanitized(t *testing.T) {
	f := &scriptedContent{content: api.HomeContent{
		PromoText: "**Flat 20% off** on bangles <script>alert(1)</script>",
	}}
	s := New(f, nil, zap.NewNop(), "", time.Minute)

	home := s.Home(context.Background())
	html := string(home.PromoHTML)
	assert.Contains(t, html, "<strong>Flat 20% off</strong>")
	assert.NotContains(t, html, "<script>")
}

func TestContentSignalInvalidatesCache(t *testing.T) {
	local, err := localstore.Open(":memory:")
	require.NoError(t, err)
	bus := syncbus.New(local, zap.NewNop())

	f := &scriptedContent{content: api.HomeContent{HeroTitle: "Before"}}
	s := New(f, bus, zap.NewNop(), "", time.Minute)

	s.Home(context.Background())
	bus.Notify(syncbus.TopicContent)
	s.Home(context.Background())

	assert.Equal(t, 2, f.Calls(), "content signal must force a refetch")
}

func TestUPIIDShortcut(t *testing.T) {
	f := &scriptedContent{content: api.HomeContent{UPIID: "shop@okhdfcbank"}}
	s := New(f, nil, zap.NewNop(), "", time.Minute)
	assert.Equal(t, "shop@okhdfcbank", s.UPIID(context.Background()))
}
