package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Page is the paginated envelope the admin endpoints return.
type Page[T any] struct {
	Content    []T `json:"content"`
	TotalPages int `json:"totalPages"`
}

// AdminUser is a registered account as listed in the admin console.
type AdminUser struct {
	ID        int64
	Email     string
	FullName  string
	Role      string
	CreatedAt time.Time
}

// ProductInput is the create/update payload for a catalog entry.
type ProductInput struct {
	Name            string             `json:"name"`
	Category        string             `json:"category"`
	Price           int64              `json:"price"`
	Stock           *int               `json:"stock"`
	Description     string             `json:"description"`
	ImageURL        string             `json:"imageUrl"`
	DiscountPercent int                `json:"discountPercent"`
	SizeVariants    []SizeVariantInput `json:"sizeVariants"`
}

// SizeVariantInput is one size/price row of a product payload.
type SizeVariantInput struct {
	SizeLabel string `json:"sizeLabel"`
	Price     int64  `json:"price"`
}

// Admin exposes the role-gated management endpoints. All calls require the
// bearer credential of an ADMIN identity on the underlying transport.
type Admin struct {
	c *Client
}

// Admin returns the management surface of this client.
func (c *Client) Admin() Admin { return Admin{c: c} }

func pageQuery(page, size int) url.Values {
	if size <= 0 {
		size = 10
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

// Products lists catalog entries one page at a time.
func (a Admin) Products(ctx context.Context, page, size int) (Page[Product], error) {
	var raw Page[remoteProduct]
	if err := a.c.get(ctx, "/api/admin/products", pageQuery(page, size), &raw); err != nil {
		return Page[Product]{}, err
	}
	out := Page[Product]{TotalPages: raw.TotalPages}
	for _, r := range raw.Content {
		out.Content = append(out.Content, r.toProduct())
	}
	return out, nil
}

// CreateProduct adds a catalog entry.
func (a Admin) CreateProduct(ctx context.Context, in ProductInput) error {
	return a.c.do(ctx, http.MethodPost, "/api/admin/products", nil, nil, in, nil)
}

// UpdateProduct replaces a catalog entry.
func (a Admin) UpdateProduct(ctx context.Context, id int64, in ProductInput) error {
	return a.c.do(ctx, http.MethodPut, fmt.Sprintf("/api/admin/products/%d", id), nil, nil, in, nil)
}

// DeleteProduct removes a catalog entry.
func (a Admin) DeleteProduct(ctx context.Context, id int64) error {
	return a.c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/products/%d", id), nil, nil, nil, nil)
}

// Orders lists all orders one page at a time.
func (a Admin) Orders(ctx context.Context, page, size int) (Page[Order], error) {
	var raw Page[remoteOrder]
	if err := a.c.get(ctx, "/api/admin/orders", pageQuery(page, size), &raw); err != nil {
		return Page[Order]{}, err
	}
	out := Page[Order]{TotalPages: raw.TotalPages}
	for _, r := range raw.Content {
		out.Content = append(out.Content, r.toOrder())
	}
	return out, nil
}

// UpdateOrderStatus moves an order through its fulfillment states.
func (a Admin) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	body := map[string]string{"status": status}
	return a.c.do(ctx, http.MethodPut, fmt.Sprintf("/api/admin/orders/%d/status", id), nil, nil, body, nil)
}

// UpdateOrderPayment records the manual payment-verification outcome.
func (a Admin) UpdateOrderPayment(ctx context.Context, id int64, status string) error {
	body := map[string]string{"status": status}
	return a.c.do(ctx, http.MethodPut, fmt.Sprintf("/api/admin/orders/%d/payment", id), nil, nil, body, nil)
}

// UpdateOrderDelivery sets the estimated (or actual) delivery date text.
func (a Admin) UpdateOrderDelivery(ctx context.Context, id int64, estimatedDelivery string) error {
	body := map[string]string{"estimatedDelivery": estimatedDelivery}
	return a.c.do(ctx, http.MethodPut, fmt.Sprintf("/api/admin/orders/%d/delivery", id), nil, nil, body, nil)
}

// Users lists registered accounts one page at a time.
func (a Admin) Users(ctx context.Context, page, size int) (Page[AdminUser], error) {
	var raw Page[remoteUser]
	if err := a.c.get(ctx, "/api/admin/users", pageQuery(page, size), &raw); err != nil {
		return Page[AdminUser]{}, err
	}
	out := Page[AdminUser]{TotalPages: raw.TotalPages}
	for _, r := range raw.Content {
		out.Content = append(out.Content, AdminUser{
			ID:        r.ID,
			Email:     trimmed(r.Email),
			FullName:  trimmed(r.FullName),
			Role:      defaultString(r.Role, RoleCustomer),
			CreatedAt: parseTime(r.CreatedAt),
		})
	}
	return out, nil
}

// UpdateUserRole switches an account between CUSTOMER and ADMIN.
func (a Admin) UpdateUserRole(ctx context.Context, id int64, role string) error {
	body := map[string]string{"role": role}
	return a.c.do(ctx, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", id), nil, nil, body, nil)
}

// DeleteUser removes an account.
func (a Admin) DeleteUser(ctx context.Context, id int64) error {
	return a.c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", id), nil, nil, nil, nil)
}

// UpdateHomeContent saves the site copy, including the checkout UPI id.
func (a Admin) UpdateHomeContent(ctx context.Context, content HomeContent) error {
	return a.c.do(ctx, http.MethodPut, "/api/admin/content/home", nil, nil, content, nil)
}

// ToggleMaintenance flips the maintenance flag and returns the new state.
func (a Admin) ToggleMaintenance(ctx context.Context) (MaintenanceState, error) {
	var raw remoteMaintenance
	if err := a.c.do(ctx, http.MethodPost, "/api/settings/maintenance/toggle", nil, nil, struct{}{}, &raw); err != nil {
		return MaintenanceState{}, err
	}
	return raw.toState(), nil
}

// StartMaintenanceTimer enables maintenance mode that auto-expires after the
// given number of minutes.
func (a Admin) StartMaintenanceTimer(ctx context.Context, minutes int) (MaintenanceState, error) {
	if minutes <= 0 {
		return MaintenanceState{}, fmt.Errorf("api: maintenance timer requires a positive duration")
	}
	body := map[string]int{"minutes": minutes}
	var raw remoteMaintenance
	if err := a.c.do(ctx, http.MethodPost, "/api/settings/maintenance/timer", nil, nil, body, &raw); err != nil {
		return MaintenanceState{}, err
	}
	return raw.toState(), nil
}

type remoteUser struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}
