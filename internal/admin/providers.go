package admin

import (
	"context"
	"errors"

	pkgauth "github.com/angelmondragon/fitcoach-backend/pkg/auth"
	"github.com/angelmondragon/fitcoach-backend/pkg/auth/session"
	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/google/uuid"
)

// Decision is the outcome of one authorization provider.
type Decision int

const (
	// Abstain means the provider found nothing to judge and the next one runs.
	Abstain Decision = iota
	Allow
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "abstain"
	}
}

// Result carries a decision and, when known, the principal behind it.
type Result struct {
	Decision Decision
	AdminID  string
	Provider string
}

// Provider resolves credentials to a decision.
type Provider interface {
	Name() string
	Authorize(ctx context.Context, creds Credentials) (Result, error)
}

type adminLookup interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
}

// SessionBacked resolves the principal from the admin_session cookie and its
// Redis session, then requires the principal in admin_users. It abstains when
// no live session exists so the cookie flag can be consulted.
type SessionBacked struct {
	jwtCfg   config.JWTConfig
	sessions session.Checker
	admins   adminLookup
}

func NewSessionBacked(jwtCfg config.JWTConfig, sessions session.Checker, admins adminLookup) *SessionBacked {
	return &SessionBacked{jwtCfg: jwtCfg, sessions: sessions, admins: admins}
}

func (p *SessionBacked) Name() string { return "session" }

func (p *SessionBacked) Authorize(ctx context.Context, creds Credentials) (Result, error) {
	abstain := Result{Decision: Abstain, Provider: p.Name()}
	if creds.SessionToken == "" || p.sessions == nil || p.admins == nil {
		return abstain, nil
	}

	claims, err := pkgauth.ParseSessionToken(p.jwtCfg, creds.SessionToken)
	if err != nil {
		return abstain, nil
	}

	owner, err := p.sessions.Owner(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return abstain, nil
		}
		return abstain, err
	}
	if owner != claims.AdminID.String() {
		return abstain, nil
	}

	result := Result{Decision: Deny, AdminID: owner, Provider: p.Name()}
	admin, err := p.admins.FindActiveByID(ctx, claims.AdminID)
	if err != nil {
		return result, err
	}
	if admin != nil {
		result.Decision = Allow
	}
	return result, nil
}

// CookieBacked accepts the signed admin_authenticated flag cookie on its own,
// unless logout revoked it.
type CookieBacked struct {
	jwtCfg      config.JWTConfig
	revocations session.FlagChecker
}

func NewCookieBacked(jwtCfg config.JWTConfig, revocations session.FlagChecker) *CookieBacked {
	return &CookieBacked{jwtCfg: jwtCfg, revocations: revocations}
}

func (p *CookieBacked) Name() string { return "cookie" }

func (p *CookieBacked) Authorize(ctx context.Context, creds Credentials) (Result, error) {
	if creds.FlagToken == "" {
		return Result{Decision: Abstain, Provider: p.Name()}, nil
	}
	deny := Result{Decision: Deny, Provider: p.Name()}
	claims, err := pkgauth.ParseAdminFlagToken(p.jwtCfg, creds.FlagToken)
	if err != nil {
		return deny, nil
	}
	if p.revocations != nil {
		revoked, err := p.revocations.FlagRevoked(ctx, claims.ID)
		if err != nil {
			return deny, err
		}
		if revoked {
			return deny, nil
		}
	}
	return Result{Decision: Allow, Provider: p.Name()}, nil
}
