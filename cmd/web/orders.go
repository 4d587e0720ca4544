package main

import (
	"net/http"

	"go.uber.org/zap"

	"sribalafashion.in/web/internal/api"
)

// OrdersView is the order history payload.
type OrdersView struct {
	Orders    []api.Order
	Empty     bool
	LoadError bool
}

// MyOrdersHandler renders the signed-in shopper's order history.
func (a *app) MyOrdersHandler(w http.ResponseWriter, r *http.Request) {
	view := OrdersView{}
	orders, err := a.client.MyOrders(r.Context())
	if err != nil {
		a.log.Warn("order history fetch failed", zap.Error(err))
		view.LoadError = true
	}
	view.Orders = orders
	view.Empty = len(orders) == 0 && !view.LoadError

	vm := a.pageData(r, "My Orders")
	vm.Orders = view
	a.renderPage(w, r, "my_orders", vm)
}
