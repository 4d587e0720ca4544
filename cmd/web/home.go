package main

import (
	"net/http"

	"go.uber.org/zap"

	"sribalafashion.in/web/internal/api"
	handlersPkg "sribalafashion.in/web/internal/handlers"
)

// HomeHandler renders the landing page with featured products.
func (a *app) HomeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		a.NotFoundHandler(w, r)
		return
	}

	var featured []api.Product
	products, err := a.catalog.Listing(r.Context(), "")
	if err != nil {
		a.log.Warn("featured products unavailable", zap.Error(err))
	} else if len(products) > 8 {
		featured = products[:8]
	} else {
		featured = products
	}

	vm := a.pageData(r, "Home")
	vm.SEO.Description = "Handpicked bangles, garlands and fashion accessories."
	vm.Home = handlersPkg.HomeView{Featured: featured}
	a.renderPage(w, r, "home", vm)
}
