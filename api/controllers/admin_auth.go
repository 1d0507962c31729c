package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/fitcoach-backend/api/responses"
	"github.com/angelmondragon/fitcoach-backend/api/validators"
	"github.com/angelmondragon/fitcoach-backend/internal/admin"
	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
)

// AdminLogin verifies credentials and sets the session and flag cookies.
func AdminLogin(svc admin.Service, cookies config.CookieConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		var body admin.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.SetCookie(w, adminCookie(cookies, admin.SessionCookieName, result.SessionToken, result.ExpiresAt))
		http.SetCookie(w, adminCookie(cookies, admin.FlagCookieName, result.FlagToken, result.ExpiresAt))
		responses.WriteSuccess(w, result)
	}
}

// AdminLogout revokes the session and expires both cookies. It succeeds even
// without a session so stale browsers can always clear their state.
func AdminLogout(svc admin.Service, cookies config.CookieConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		var creds admin.Credentials
		if cookie, err := r.Cookie(admin.SessionCookieName); err == nil {
			creds.SessionToken = cookie.Value
		}
		if cookie, err := r.Cookie(admin.FlagCookieName); err == nil {
			creds.FlagToken = cookie.Value
		}
		if err := svc.Logout(r.Context(), creds); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		expired := time.Unix(0, 0).UTC()
		for _, name := range []string{admin.SessionCookieName, admin.FlagCookieName} {
			cookie := adminCookie(cookies, name, "", expired)
			cookie.MaxAge = -1
			http.SetCookie(w, cookie)
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// Both admin cookies are HttpOnly; scripts never see either token.
func adminCookie(cfg config.CookieConfig, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  expires,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
