package main

import "net/http"

// NotFoundHandler renders the branded 404 page.
func (a *app) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	vm := a.pageData(r, "Page Not Found")
	a.renderPageStatus(w, r, http.StatusNotFound, "404", vm)
}
