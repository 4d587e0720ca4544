package middleware

import (
	"net/http"

	"sribalafashion.in/web/internal/session"
)

// Identity hydrates the viewer context from the identity store so handlers
// and the request logger see who is signed in.
func Identity(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := store.Identity(); ok {
				sd := GetSession(r)
				if sd.UserID != id.Email {
					// first authentication on this browser session
					wasAuthed := sd.UserID != ""
					sd.UserID = id.Email
					if !wasAuthed {
						sd.RegenerateID()
					} else {
						sd.MarkDirty()
					}
				}
				ctx := WithUser(r.Context(), &User{ID: id.Email, Email: id.Email, Role: id.Role})
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth redirects anonymous viewers to the login page.
func RequireAuth(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := store.Identity(); !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin guards the admin console. Anonymous viewers get the admin
// login page; signed-in non-admins are refused.
func RequireAdmin(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := store.Identity()
			if !ok {
				http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
				return
			}
			if !id.IsAdmin() {
				writeError(w, r, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
