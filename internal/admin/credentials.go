package admin

import "context"

// Cookie names carried by the admin browser session.
const (
	SessionCookieName = "admin_session"
	FlagCookieName    = "admin_authenticated"
)

// Credentials are the raw cookie values presented with a request.
type Credentials struct {
	SessionToken string
	FlagToken    string
}

type credentialsKey struct{}

// WithCredentials stores the request's credentials for the gate.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// CredentialsFromContext returns the credentials stored by WithCredentials.
func CredentialsFromContext(ctx context.Context) Credentials {
	if ctx == nil {
		return Credentials{}
	}
	creds, _ := ctx.Value(credentialsKey{}).(Credentials)
	return creds
}
