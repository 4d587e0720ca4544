package handlers

import (
	"html/template"

	"sribalafashion.in/web/internal/api"
	"sribalafashion.in/web/internal/content"
	"sribalafashion.in/web/internal/nav"
)

// PageData is a generic view model for pages using the shared layout.
type PageData struct {
	Title     string
	SEO       SEOData
	Analytics Analytics

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb

	// Viewer state
	SignedIn  bool
	Admin     bool
	UserEmail string
	CartCount int

	// Site copy (footer, promos, UPI id)
	Content content.Home

	// Maintenance banner
	Maintenance          api.MaintenanceState
	MaintenanceCountdown string
	ShowMaintenance      bool

	// Flash message surfaced above the page body
	Error string

	// Token echoed into form posts for the double-submit check
	CSRFToken string

	// Optional per-page view model payloads
	Home      any
	Shop      any
	Product   any
	Cart      any
	Checkout  any
	Order     any
	Orders    any
	Login     any
	Dashboard any
}

// SEOData is a lightweight copy to avoid importing the seo package here.
type SEOData struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          struct {
		Title       string
		Description string
		Image       string
		Type        string
		URL         string
		SiteName    string
	}
	Twitter struct {
		Card  string
		Site  string
		Image string
	}
	JSONLD []template.JS
}
