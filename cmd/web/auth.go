package main

import (
	"net/http"

	mw "sribalafashion.in/web/internal/middleware"
)

// LoginView is the sign-in page payload.
type LoginView struct {
	Register bool
	Admin    bool
	Next     string
}

// LoginHandler renders the sign-in page. The page hosts the identity
// widget; on success the widget posts the provider token back here.
func (a *app) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.sessions.Identity(); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	vm := a.pageData(r, "Sign In")
	vm.Login = LoginView{Next: safeNext(r.URL.Query().Get("next"))}
	a.renderPage(w, r, "login", vm)
}

// RegisterHandler renders the sign-up variant of the login page.
func (a *app) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.sessions.Identity(); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	vm := a.pageData(r, "Create Account")
	vm.Login = LoginView{Register: true}
	a.renderPage(w, r, "login", vm)
}

// LoginSubmitHandler accepts the provider token from the sign-in widget.
func (a *app) LoginSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	token := r.FormValue("id_token")
	next := safeNext(r.FormValue("next"))

	ok, msg := a.sessions.Login(r.Context(), token)
	if !ok {
		vm := a.pageData(r, "Sign In")
		vm.Error = msg
		vm.Login = LoginView{Next: next}
		a.renderPageStatus(w, r, http.StatusUnauthorized, "login", vm)
		return
	}
	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// LogoutHandler clears local state immediately and sends the shopper home.
func (a *app) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	a.sessions.Logout(r.Context())
	sd := mw.GetSession(r)
	sd.UserID = ""
	sd.RegenerateID()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// AdminLoginHandler renders the admin variant of the sign-in page.
func (a *app) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	if id, ok := a.sessions.Identity(); ok && id.IsAdmin() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	vm := a.pageData(r, "Admin Sign In")
	vm.Login = LoginView{Admin: true, Next: "/admin"}
	a.renderPage(w, r, "login", vm)
}

// safeNext accepts only same-site relative redirect targets.
func safeNext(next string) string {
	if next == "" || next[0] != '/' {
		return ""
	}
	if len(next) > 1 && next[1] == '/' { // protocol-relative
		return ""
	}
	return next
}
