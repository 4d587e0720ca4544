package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sribalafashion.in/web/internal/api"
	"sribalafashion.in/web/internal/syncbus"
	"sribalafashion.in/web/internal/upi"
)

const adminPageSize = 10

// DashboardView is the admin console payload. One tab is populated per
// render; the others stay zero-valued.
type DashboardView struct {
	Tab  string
	Page int

	Products api.Page[api.Product]
	Orders   api.Page[api.Order]
	Users    api.Page[api.AdminUser]

	SiteContent api.HomeContent
	UPIPreview  string

	MaintenanceActive bool
	LoadError         string
}

// TotalPages reports the page count for the active tab.
func (v DashboardView) TotalPages() int {
	switch v.Tab {
	case "orders":
		return v.Orders.TotalPages
	case "users":
		return v.Users.TotalPages
	default:
		return v.Products.TotalPages
	}
}

func (v DashboardView) PageDisplay() int { return v.Page + 1 }
func (v DashboardView) PrevPage() int    { return v.Page - 1 }
func (v DashboardView) NextPage() int    { return v.Page + 1 }
func (v DashboardView) HasNext() bool    { return v.Page+1 < v.TotalPages() }

func adminTab(r *http.Request) string {
	switch tab := r.URL.Query().Get("tab"); tab {
	case "orders", "users", "content", "settings":
		return tab
	default:
		return "products"
	}
}

func adminPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		return 0
	}
	return page
}

// AdminDashboardHandler renders the requested admin tab.
func (a *app) AdminDashboardHandler(w http.ResponseWriter, r *http.Request) {
	view := DashboardView{Tab: adminTab(r), Page: adminPage(r)}
	admin := a.client.Admin()

	var err error
	switch view.Tab {
	case "orders":
		view.Orders, err = admin.Orders(r.Context(), view.Page, adminPageSize)
	case "users":
		view.Users, err = admin.Users(r.Context(), view.Page, adminPageSize)
	case "content":
		view.SiteContent = a.content.Home(r.Context()).HomeContent
		view.UPIPreview = upi.PayURI(view.SiteContent.UPIID, 0)
	case "settings":
		view.MaintenanceActive = a.maint.Active()
	default:
		view.Products, err = admin.Products(r.Context(), view.Page, adminPageSize)
	}
	if err != nil {
		a.log.Warn("admin tab load failed", zap.String("tab", view.Tab), zap.Error(err))
		view.LoadError = serverMessageOr(err, "Failed to load data. Please try again.")
	}

	vm := a.pageData(r, "Admin Dashboard")
	vm.Dashboard = view
	a.renderPage(w, r, "admin", vm)
}

// AdminProductCreateHandler adds a catalog entry from the product form.
func (a *app) AdminProductCreateHandler(w http.ResponseWriter, r *http.Request) {
	input, ok := a.productInput(w, r)
	if !ok {
		return
	}
	if err := a.client.Admin().CreateProduct(r.Context(), input); err != nil {
		a.adminActionFailed(w, r, "product create", err)
		return
	}
	a.bus.Notify(syncbus.TopicProducts)
	http.Redirect(w, r, "/admin?tab=products", http.StatusSeeOther)
}

// AdminProductUpdateHandler replaces a catalog entry.
func (a *app) AdminProductUpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	input, ok := a.productInput(w, r)
	if !ok {
		return
	}
	if err := a.client.Admin().UpdateProduct(r.Context(), id, input); err != nil {
		a.adminActionFailed(w, r, "product update", err)
		return
	}
	a.bus.Notify(syncbus.TopicProducts)
	http.Redirect(w, r, "/admin?tab=products", http.StatusSeeOther)
}

// AdminProductDeleteHandler removes a catalog entry.
func (a *app) AdminProductDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.client.Admin().DeleteProduct(r.Context(), id); err != nil {
		a.adminActionFailed(w, r, "product delete", err)
		return
	}
	a.bus.Notify(syncbus.TopicProducts)
	http.Redirect(w, r, "/admin?tab=products", http.StatusSeeOther)
}

// AdminOrderStatusHandler moves an order through its fulfillment states.
func (a *app) AdminOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.client.Admin().UpdateOrderStatus(r.Context(), id, r.FormValue("status")); err != nil {
		a.adminActionFailed(w, r, "order status", err)
		return
	}
	a.bus.Notify(syncbus.TopicOrders)
	http.Redirect(w, r, "/admin?tab=orders", http.StatusSeeOther)
}

// AdminOrderPaymentHandler records the manual payment-verification outcome.
func (a *app) AdminOrderPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.client.Admin().UpdateOrderPayment(r.Context(), id, r.FormValue("status")); err != nil {
		a.adminActionFailed(w, r, "order payment", err)
		return
	}
	a.bus.Notify(syncbus.TopicOrders)
	http.Redirect(w, r, "/admin?tab=orders", http.StatusSeeOther)
}

// AdminOrderDeliveryHandler sets the estimated delivery date text.
func (a *app) AdminOrderDeliveryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.client.Admin().UpdateOrderDelivery(r.Context(), id, r.FormValue("estimated_delivery")); err != nil {
		a.adminActionFailed(w, r, "order delivery", err)
		return
	}
	a.bus.Notify(syncbus.TopicOrders)
	http.Redirect(w, r, "/admin?tab=orders", http.StatusSeeOther)
}

// AdminUserRoleHandler switches an account between CUSTOMER and ADMIN.
func (a *app) AdminUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	role := r.FormValue("role")
	if role != api.RoleAdmin && role != api.RoleCustomer {
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}
	if err := a.client.Admin().UpdateUserRole(r.Context(), id, role); err != nil {
		a.adminActionFailed(w, r, "user role", err)
		return
	}
	a.bus.Notify(syncbus.TopicUsers)
	http.Redirect(w, r, "/admin?tab=users", http.StatusSeeOther)
}

// AdminUserDeleteHandler removes an account.
func (a *app) AdminUserDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.client.Admin().DeleteUser(r.Context(), id); err != nil {
		a.adminActionFailed(w, r, "user delete", err)
		return
	}
	a.bus.Notify(syncbus.TopicUsers)
	http.Redirect(w, r, "/admin?tab=users", http.StatusSeeOther)
}

// AdminContentHandler saves the site copy, including the checkout UPI id.
func (a *app) AdminContentHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	content := api.HomeContent{
		HeroTitle:       r.FormValue("hero_title"),
		HeroSubtitle:    r.FormValue("hero_subtitle"),
		PromoTitle:      r.FormValue("promo_title"),
		PromoText:       r.FormValue("promo_text"),
		PromoBtnText:    r.FormValue("promo_btn_text"),
		FeatureTitle:    r.FormValue("feature_title"),
		FeatureSubtitle: r.FormValue("feature_subtitle"),
		FooterAddress:   r.FormValue("footer_address"),
		FooterPhone:     r.FormValue("footer_phone"),
		FooterEmail:     r.FormValue("footer_email"),
		FooterInstagram: r.FormValue("footer_instagram"),
		FooterFacebook:  r.FormValue("footer_facebook"),
		FooterTwitter:   r.FormValue("footer_twitter"),
		FooterYoutube:   r.FormValue("footer_youtube"),
		UPIID:           strings.TrimSpace(r.FormValue("upi_id")),
	}
	if err := a.client.Admin().UpdateHomeContent(r.Context(), content); err != nil {
		a.adminActionFailed(w, r, "content update", err)
		return
	}
	a.content.Invalidate()
	a.bus.Notify(syncbus.TopicContent)
	http.Redirect(w, r, "/admin?tab=content", http.StatusSeeOther)
}

// AdminMaintenanceToggleHandler flips the maintenance flag.
func (a *app) AdminMaintenanceToggleHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := a.client.Admin().ToggleMaintenance(r.Context()); err != nil {
		a.adminActionFailed(w, r, "maintenance toggle", err)
		return
	}
	http.Redirect(w, r, "/admin?tab=settings", http.StatusSeeOther)
}

// AdminMaintenanceTimerHandler starts a self-expiring maintenance window.
func (a *app) AdminMaintenanceTimerHandler(w http.ResponseWriter, r *http.Request) {
	minutes, err := strconv.Atoi(r.FormValue("minutes"))
	if err != nil || minutes <= 0 {
		http.Error(w, "invalid duration", http.StatusBadRequest)
		return
	}
	if _, err := a.client.Admin().StartMaintenanceTimer(r.Context(), minutes); err != nil {
		a.adminActionFailed(w, r, "maintenance timer", err)
		return
	}
	http.Redirect(w, r, "/admin?tab=settings", http.StatusSeeOther)
}

// productInput parses the shared product form, including the optional
// size-variant rows.
func (a *app) productInput(w http.ResponseWriter, r *http.Request) (api.ProductInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return api.ProductInput{}, false
	}
	price, err := strconv.ParseInt(r.FormValue("price"), 10, 64)
	if err != nil || price < 0 {
		http.Error(w, "invalid price", http.StatusBadRequest)
		return api.ProductInput{}, false
	}
	input := api.ProductInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Category:    strings.TrimSpace(r.FormValue("category")),
		Price:       price,
		Description: r.FormValue("description"),
		ImageURL:    strings.TrimSpace(r.FormValue("image_url")),
	}
	if input.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return api.ProductInput{}, false
	}
	if raw := r.FormValue("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil || stock < 0 {
			http.Error(w, "invalid stock", http.StatusBadRequest)
			return api.ProductInput{}, false
		}
		input.Stock = &stock
	}
	if raw := r.FormValue("discount_percent"); raw != "" {
		discount, err := strconv.Atoi(raw)
		if err != nil || discount < 0 || discount > 100 {
			http.Error(w, "invalid discount", http.StatusBadRequest)
			return api.ProductInput{}, false
		}
		input.DiscountPercent = discount
	}
	labels := r.Form["size_label"]
	prices := r.Form["size_price"]
	for i := range labels {
		label := strings.TrimSpace(labels[i])
		if label == "" || i >= len(prices) {
			continue
		}
		sizePrice, err := strconv.ParseInt(prices[i], 10, 64)
		if err != nil || sizePrice < 0 {
			continue
		}
		input.SizeVariants = append(input.SizeVariants, api.SizeVariantInput{
			SizeLabel: label,
			Price:     sizePrice,
		})
	}
	return input, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func serverMessageOr(err error, fallback string) string {
	if msg := api.ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}

func (a *app) adminActionFailed(w http.ResponseWriter, r *http.Request, action string, err error) {
	a.log.Warn("admin action failed", zap.String("action", action), zap.Error(err))
	http.Error(w, serverMessageOr(err, "Action failed. Please try again."), http.StatusBadGateway)
}
