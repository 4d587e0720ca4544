package main

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"sribalafashion.in/web/internal/cart"
)

// CartPageView is the cart page payload.
type CartPageView struct {
	Lines   []cart.Line
	Empty   bool
	Total   int64
	Savings int64
}

// CartHandler renders the cart page.
func (a *app) CartHandler(w http.ResponseWriter, r *http.Request) {
	lines := a.carts.Lines()
	view := CartPageView{
		Lines:   lines,
		Empty:   len(lines) == 0,
		Total:   a.carts.Total(),
		Savings: a.carts.Savings(),
	}
	vm := a.pageData(r, "Cart")
	vm.Cart = view
	a.renderPage(w, r, "cart", vm)
}

// CartAddHandler adds a product (optionally a size variant) to the cart and
// sends the shopper to the cart page.
func (a *app) CartAddHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(r.FormValue("product_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product", http.StatusBadRequest)
		return
	}
	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil || quantity < 1 {
		quantity = 1
	}
	size := r.FormValue("size")

	product, err := a.catalog.Product(r.Context(), id)
	if err != nil {
		a.log.Warn("cart add: product fetch failed", zap.Int64("id", id), zap.Error(err))
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}
	if product.Stock != nil && *product.Stock < 1 {
		http.Redirect(w, r, "/shop/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
		return
	}

	a.carts.Add(cart.Product{
		ID:              strconv.FormatInt(product.ID, 10),
		Name:            product.Name,
		ListPrice:       product.ActivePrice(size),
		DiscountPercent: product.DiscountPercent,
		Stock:           product.Stock,
	}, size, quantity)

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CartUpdateHandler changes a line's quantity.
func (a *app) CartUpdateHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	key := r.FormValue("cart_key")
	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		http.Error(w, "invalid quantity", http.StatusBadRequest)
		return
	}
	a.carts.SetQuantity(key, quantity)
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CartRemoveHandler drops a line from the cart.
func (a *app) CartRemoveHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	a.carts.Remove(r.FormValue("cart_key"))
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CartClearHandler empties the cart.
func (a *app) CartClearHandler(w http.ResponseWriter, r *http.Request) {
	a.carts.Clear()
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}
