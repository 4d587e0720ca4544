package main

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sribalafashion.in/web/internal/api"
	"sribalafashion.in/web/internal/catalog"
	"sribalafashion.in/web/internal/seo"
)

// ShopView is the listing page payload.
type ShopView struct {
	Category   string
	Categories []ShopCategory
	Products   []api.Product
	LoadError  bool
}

// ShopCategory is a filter chip.
type ShopCategory struct {
	Value  string
	Label  string
	Active bool
}

// ShopHandler renders the shop page with an optional category filter.
func (a *app) ShopHandler(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	view := ShopView{Category: category}
	for _, c := range catalog.Categories {
		label := c
		if label == "" {
			label = "All"
		}
		view.Categories = append(view.Categories, ShopCategory{
			Value:  c,
			Label:  label,
			Active: c == category,
		})
	}

	products, err := a.catalog.Listing(r.Context(), category)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// a newer category request superseded this one
			return
		}
		a.log.Warn("listing unavailable", zap.String("category", category), zap.Error(err))
		view.LoadError = true
	}
	view.Products = products

	vm := a.pageData(r, "Shop")
	vm.SEO.Description = "Browse bangles, garlands and accessories."
	vm.Shop = view
	a.renderPage(w, r, "shop", vm)
}

// ProductView is the detail page payload.
type ProductView struct {
	Product    api.Product
	FinalPrice int64
	InCartQty  int
}

// ProductHandler renders the product detail page with live stock.
func (a *app) ProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		a.NotFoundHandler(w, r)
		return
	}

	product, err := a.catalog.Product(r.Context(), id)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			a.NotFoundHandler(w, r)
			return
		}
		a.log.Warn("product fetch failed", zap.Int64("id", id), zap.Error(err))
		a.NotFoundHandler(w, r)
		return
	}

	view := ProductView{
		Product:    product,
		FinalPrice: product.FinalPrice(product.Price),
	}
	pid := strconv.FormatInt(product.ID, 10)
	for _, l := range a.carts.Lines() {
		if l.ProductID == pid {
			view.InCartQty += l.Quantity
		}
	}

	vm := a.pageData(r, product.Name)
	vm.SEO.Description = product.Description
	vm.SEO.JSONLD = append(vm.SEO.JSONLD, template.JS(seo.JSON(seo.Product(
		product.Name, product.Description, absoluteURL(r), product.ImageURL,
		view.FinalPrice, product.InStock()))))
	vm.Product = view
	a.renderPage(w, r, "product", vm)
}
