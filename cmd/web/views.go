package main

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	handlersPkg "sribalafashion.in/web/internal/handlers"
	"sribalafashion.in/web/internal/maintenance"
	mw "sribalafashion.in/web/internal/middleware"
	"sribalafashion.in/web/internal/nav"
	"sribalafashion.in/web/internal/seo"
)

const brandName = "Sri Bala Fashion"

// maintenanceExempt paths keep working while the storefront is closed so
// admins can sign in and lift the flag.
func maintenanceExempt(path string) bool {
	return strings.HasPrefix(path, "/admin") || path == "/login" || path == "/register"
}

// pageData builds the shared layout view model for the current request.
func (a *app) pageData(r *http.Request, title string) handlersPkg.PageData {
	user := mw.UserFromContext(r.Context())
	signedIn := user != nil
	admin := user.IsAdmin()

	vm := handlersPkg.PageData{
		Title:       title,
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path, signedIn, admin),
		Breadcrumbs: nav.Breadcrumbs(r.URL.Path),
		Analytics:   handlersPkg.LoadAnalyticsFromEnv(),
		SignedIn:    signedIn,
		Admin:       admin,
		CartCount:   a.carts.Count(),
		Content:     a.content.Home(r.Context()),
	}
	if user != nil {
		vm.UserEmail = user.Email
	}
	if sd := mw.GetSession(r); sd != nil {
		vm.CSRFToken = sd.CSRFToken
	}

	state := a.maint.State()
	vm.Maintenance = state
	vm.MaintenanceCountdown = maintenance.RemainingAt(state, time.Now())
	vm.ShowMaintenance = state.Active && !maintenanceExempt(r.URL.Path)

	vm.SEO.Title = title + " | " + brandName
	vm.SEO.Canonical = absoluteURL(r)
	vm.SEO.OG.Title = vm.SEO.Title
	vm.SEO.OG.SiteName = brandName
	vm.SEO.OG.Type = "website"
	vm.SEO.OG.URL = vm.SEO.Canonical
	vm.SEO.Twitter.Card = "summary_large_image"
	vm.SEO.JSONLD = []template.JS{
		template.JS(seo.JSON(seo.Organization(brandName, siteRoot(r), ""))),
	}
	return vm
}

func absoluteURL(r *http.Request) string {
	return siteRoot(r) + r.URL.Path
}

func siteRoot(r *http.Request) string {
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}
