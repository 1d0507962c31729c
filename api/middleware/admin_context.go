package middleware

import (
	"net/http"

	"github.com/angelmondragon/fitcoach-backend/internal/admin"
)

// AdminContext copies the admin cookies into the request context. It never
// rejects a request; services consult the admin gate themselves.
func AdminContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds := admin.Credentials{
				SessionToken: cookieValue(r, admin.SessionCookieName),
				FlagToken:    cookieValue(r, admin.FlagCookieName),
			}
			ctx := admin.WithCredentials(r.Context(), creds)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}
