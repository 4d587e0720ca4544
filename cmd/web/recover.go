package main

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// recoverPanics logs any panic that escapes a handler and serves the reload
// prompt instead of chi's blank 500. If the handler already streamed part of
// a response the page may be appended to it, which is no worse than cutting
// the body off mid-stream.
func (a *app) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			a.log.Error("handler panic",
				zap.Any("panic", rec),
				zap.String("path", r.URL.Path),
				zap.ByteString("stack", debug.Stack()),
			)
			vm := a.pageData(r, "Something Went Wrong")
			a.renderPageStatus(w, r, http.StatusInternalServerError, "error", vm)
		}()
		next.ServeHTTP(w, r)
	})
}
