package main

import (
	"context"
	"flag"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"sribalafashion.in/web/internal/api"
	"sribalafashion.in/web/internal/cart"
	"sribalafashion.in/web/internal/catalog"
	"sribalafashion.in/web/internal/checkout"
	"sribalafashion.in/web/internal/config"
	"sribalafashion.in/web/internal/content"
	"sribalafashion.in/web/internal/format"
	"sribalafashion.in/web/internal/localstore"
	"sribalafashion.in/web/internal/logging"
	"sribalafashion.in/web/internal/maintenance"
	mw "sribalafashion.in/web/internal/middleware"
	"sribalafashion.in/web/internal/session"
	"sribalafashion.in/web/internal/syncbus"
)

// app bundles the shared services every handler needs.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	local    *localstore.Store
	bus      *syncbus.Bus
	client   *api.Client
	sessions *session.Store
	carts    *cart.Store
	catalog  *catalog.Service
	checkout *checkout.Workflow
	content  *content.Service
	maint    *maintenance.Poller

	devMode   bool
	tmplCache *template.Template
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var addr string
	flag.StringVar(&addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.TemplatesDir, "templates", cfg.TemplatesDir, "templates directory")
	flag.StringVar(&cfg.PublicDir, "public", cfg.PublicDir, "public assets directory")
	flag.Parse()

	log, err := logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}

	if !a.devMode {
		tc, err := a.parseTemplates()
		if err != nil {
			log.Fatal("parse templates", zap.Error(err))
		}
		a.tmplCache = tc
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("web listening", zap.String("addr", addr), zap.Bool("dev", a.devMode))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("listen", zap.Error(err))
	}
}

// newApp wires storage, identity, the API client and the domain services.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	local, err := localstore.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	bus := syncbus.New(local, log)
	go bus.Watch(ctx, cfg.SyncWatchInterval)

	// The transport and the identity store reference each other; the
	// transport's store pointer is filled in once the store exists.
	transport := &session.Transport{}
	hc := &http.Client{Transport: transport, Timeout: 8 * time.Second}
	client := api.NewClient(cfg.APIBaseURL, hc, log)

	var provider session.Provider
	if cfg.FirebaseProjectID != "" {
		provider, err = session.NewFirebaseProvider(ctx, cfg.FirebaseProjectID, local, log)
		if err != nil {
			return nil, fmt.Errorf("identity provider: %w", err)
		}
	} else {
		provider = session.NewLocalProvider(local, log)
	}

	sessions := session.New(provider, client, local, bus, log, cfg.AuthInitTimeout)
	transport.Store = sessions
	sessions.Init(ctx)

	carts := cart.New(local, bus, log)
	catalogSvc := catalog.New(client, local, bus, log, cfg.ListingCacheWindow)
	checkoutWf := checkout.New(client, carts, bus, log)
	contentSvc := content.New(client, bus, log, cfg.ContentDir, 5*time.Minute)

	maint := maintenance.New(client, log, cfg.MaintenancePoll)
	go maint.Run(ctx)

	return &app{
		cfg:      cfg,
		log:      log,
		local:    local,
		bus:      bus,
		client:   client,
		sessions: sessions,
		carts:    carts,
		catalog:  catalogSvc,
		checkout: checkoutWf,
		content:  contentSvc,
		maint:    maint,
		devMode:  !cfg.Prod(),
	}, nil
}

// router assembles the chi middleware stack and every route.
func (a *app) router() http.Handler {
	sm := mw.NewSessionManager([]byte(a.cfg.SessionHashKey), []byte(a.cfg.SessionBlockKey), a.cfg.Prod())

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will
	// use X-Forwarded-For to determine the client IP. Ensure only trusted
	// proxies can set these headers in production environments.
	r.Use(chimw.RealIP)
	r.Use(sm.Session)
	r.Use(mw.Identity(a.sessions))
	r.Use(sm.CSRF)
	r.Use(mw.Logger(a.log))
	r.Use(a.recoverPanics)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	assets := http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(a.cfg.PublicDir, "assets"), ""))
	r.Handle("/assets/*", assets)

	r.Get("/", a.HomeHandler)
	r.Get("/shop", a.ShopHandler)
	r.Get("/shop/{id}", a.ProductHandler)

	r.Get("/cart", a.CartHandler)
	r.Post("/cart/add", a.CartAddHandler)
	r.Post("/cart/update", a.CartUpdateHandler)
	r.Post("/cart/remove", a.CartRemoveHandler)
	r.Post("/cart/clear", a.CartClearHandler)

	r.Get("/login", a.LoginHandler)
	r.Post("/login", a.LoginSubmitHandler)
	r.Get("/register", a.RegisterHandler)
	r.Post("/logout", a.LogoutHandler)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth(a.sessions))
		r.Get("/checkout", a.CheckoutHandler)
		r.Post("/checkout", a.CheckoutSubmitHandler)
		r.Get("/checkout/qr.png", a.CheckoutQRHandler)
		r.Get("/my-orders", a.MyOrdersHandler)
	})

	r.Get("/admin/login", a.AdminLoginHandler)
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAdmin(a.sessions))
		r.Get("/admin", a.AdminDashboardHandler)
		r.Post("/admin/products", a.AdminProductCreateHandler)
		r.Post("/admin/products/{id}", a.AdminProductUpdateHandler)
		r.Post("/admin/products/{id}/delete", a.AdminProductDeleteHandler)
		r.Post("/admin/orders/{id}/status", a.AdminOrderStatusHandler)
		r.Post("/admin/orders/{id}/payment", a.AdminOrderPaymentHandler)
		r.Post("/admin/orders/{id}/delivery", a.AdminOrderDeliveryHandler)
		r.Post("/admin/users/{id}/role", a.AdminUserRoleHandler)
		r.Post("/admin/users/{id}/delete", a.AdminUserDeleteHandler)
		r.Post("/admin/content", a.AdminContentHandler)
		r.Post("/admin/maintenance", a.AdminMaintenanceToggleHandler)
		r.Post("/admin/maintenance/timer", a.AdminMaintenanceTimerHandler)
	})

	r.NotFound(a.NotFoundHandler)
	return r
}

func (a *app) parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"now":             time.Now,
		"inr":             format.INR,
		"percent":         format.Percent,
		"date":            format.Date,
		"datetime":        format.DateTime,
		"orderStatuses":   func() []string { return api.OrderStatuses },
		"paymentStatuses": func() []string { return api.PaymentStatuses },
	}
	// Recursively discover and parse all .tmpl files. Note: ParseGlob doesn't support **.
	var files []string
	if err := filepath.WalkDir(a.cfg.TemplatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", a.cfg.TemplatesDir)
	}
	return template.New("_root").Funcs(funcMap).ParseFiles(files...)
}

// renderPage executes a page template over the shared layout partials. In
// dev mode, templates are reparsed on each request.
func (a *app) renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	a.renderPageStatus(w, r, http.StatusOK, name, data)
}

func (a *app) renderPageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var t *template.Template
	if a.devMode {
		tc, err := a.parseTemplates()
		if err != nil {
			http.Error(w, fmt.Sprintf("template parse error: %v", err), http.StatusInternalServerError)
			return
		}
		t = tc
	} else {
		t = a.tmplCache
	}
	if t == nil {
		http.Error(w, "template not initialized", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "page_"+name, data); err != nil {
		a.log.Error("template exec", zap.String("page", name), zap.Error(err))
	}
}
