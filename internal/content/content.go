// Package content serves the admin-editable site copy: hero and promo text
// for the home page, footer contact details, and the UPI id used at
// checkout. Content comes from the backend when one is configured, with a
// local YAML fallback so the storefront renders something sensible offline.
package content

import (
	"bytes"
	"context"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"sribalafashion.in/web/internal/api"
	"sribalafashion.in/web/internal/syncbus"
)

// DefaultUPIID is the store's payment address used until the admin sets one.
const DefaultUPIID = "dhanaseelan.a12345-3@okicici"

const defaultCacheTTL = 5 * time.Minute

// Home is the rendered site copy handed to templates.
type Home struct {
	api.HomeContent
	PromoHTML template.HTML
}

type contentFetcher interface {
	FetchHomeContent(ctx context.Context) (api.HomeContent, error)
}

// Service loads, caches and renders the site copy.
type Service struct {
	client     contentFetcher
	log        *zap.Logger
	contentDir string
	ttl        time.Duration

	md     goldmark.Markdown
	policy *bluemonday.Policy

	mu      sync.RWMutex
	cached  Home
	loaded  bool
	expires time.Time
}

// New builds the service. contentDir holds the YAML fallback file; bus
// subscriptions invalidate the cache when another client edits the copy.
func New(client contentFetcher, bus *syncbus.Bus, log *zap.Logger, contentDir string, ttl time.Duration) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	s := &Service{
		client:     client,
		log:        log,
		contentDir: contentDir,
		ttl:        ttl,
		md:         goldmark.New(),
		policy:     policy,
	}
	if bus != nil {
		bus.Subscribe(syncbus.TopicContent, s.Invalidate)
	}
	return s
}

// Home returns the current site copy, served from cache inside the TTL.
// A backend failure falls through to the YAML file, then to built-in
// defaults; Home never returns an error.
func (s *Service) Home(ctx context.Context) Home {
	s.mu.RLock()
	if s.loaded && time.Now().Before(s.expires) {
		home := s.cached
		s.mu.RUnlock()
		return home
	}
	s.mu.RUnlock()

	raw, ok := s.fetch(ctx)
	if !ok {
		raw = s.fallback()
	}
	home := s.render(withDefaults(raw))

	s.mu.Lock()
	s.cached = home
	s.loaded = true
	s.expires = time.Now().Add(s.ttl)
	s.mu.Unlock()
	return home
}

// UPIID returns the active payment address for checkout.
func (s *Service) UPIID(ctx context.Context) string {
	return s.Home(ctx).UPIID
}

// Invalidate drops the cache so the next Home call refetches. Wired to
// cross-client content change signals.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

func (s *Service) fetch(ctx context.Context) (api.HomeContent, bool) {
	if s.client == nil {
		return api.HomeContent{}, false
	}
	raw, err := s.client.FetchHomeContent(ctx)
	if err != nil {
		s.log.Warn("home content fetch failed, using fallback", zap.Error(err))
		return api.HomeContent{}, false
	}
	return raw, true
}

type fallbackFile struct {
	HeroTitle       string `yaml:"heroTitle"`
	HeroSubtitle    string `yaml:"heroSubtitle"`
	PromoTitle      string `yaml:"promoTitle"`
	PromoText       string `yaml:"promoText"`
	PromoBtnText    string `yaml:"promoBtnText"`
	FeatureTitle    string `yaml:"featureTitle"`
	FeatureSubtitle string `yaml:"featureSubtitle"`
	FooterAddress   string `yaml:"footerAddress"`
	FooterPhone     string `yaml:"footerPhone"`
	FooterEmail     string `yaml:"footerEmail"`
	FooterInstagram string `yaml:"footerInstagram"`
	FooterFacebook  string `yaml:"footerFacebook"`
	FooterTwitter   string `yaml:"footerTwitter"`
	FooterYoutube   string `yaml:"footerYoutube"`
	UPIID           string `yaml:"upiId"`
}

func (s *Service) fallback() api.HomeContent {
	if s.contentDir == "" {
		return api.HomeContent{}
	}
	data, err := os.ReadFile(filepath.Join(s.contentDir, "home.yaml"))
	if err != nil {
		return api.HomeContent{}
	}
	var f fallbackFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		s.log.Warn("home content fallback file malformed", zap.Error(err))
		return api.HomeContent{}
	}
	return api.HomeContent{
		HeroTitle:       f.HeroTitle,
		HeroSubtitle:    f.HeroSubtitle,
		PromoTitle:      f.PromoTitle,
		PromoText:       f.PromoText,
		PromoBtnText:    f.PromoBtnText,
		FeatureTitle:    f.FeatureTitle,
		FeatureSubtitle: f.FeatureSubtitle,
		FooterAddress:   f.FooterAddress,
		FooterPhone:     f.FooterPhone,
		FooterEmail:     f.FooterEmail,
		FooterInstagram: f.FooterInstagram,
		FooterFacebook:  f.FooterFacebook,
		FooterTwitter:   f.FooterTwitter,
		FooterYoutube:   f.FooterYoutube,
		UPIID:           f.UPIID,
	}
}

func withDefaults(raw api.HomeContent) api.HomeContent {
	if strings.TrimSpace(raw.HeroTitle) == "" {
		raw.HeroTitle = "Sri Bala Fashion"
	}
	if strings.TrimSpace(raw.HeroSubtitle) == "" {
		raw.HeroSubtitle = "Handpicked bangles, garlands and accessories"
	}
	if strings.TrimSpace(raw.UPIID) == "" {
		raw.UPIID = DefaultUPIID
	}
	return raw
}

// render converts the promo markdown to sanitized HTML. A conversion
// failure leaves the promo as plain text.
func (s *Service) render(raw api.HomeContent) Home {
	home := Home{HomeContent: raw}
	text := strings.TrimSpace(raw.PromoText)
	if text == "" {
		return home
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(text), &buf); err != nil {
		s.log.Warn("promo markdown conversion failed", zap.Error(err))
		home.PromoHTML = template.HTML(template.HTMLEscapeString(text))
		return home
	}
	home.PromoHTML = template.HTML(s.policy.SanitizeBytes(buf.Bytes()))
	return home
}
