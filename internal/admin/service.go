package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgauth "github.com/angelmondragon/fitcoach-backend/pkg/auth"
	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "invalid credentials"

// Service logs admins in and out.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, creds Credentials) error
}

type adminRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type sessionManager interface {
	Create(ctx context.Context, adminID string) (string, error)
	Revoke(ctx context.Context, sessionID string) error
	RevokeFlag(ctx context.Context, flagID string, expiresAt time.Time) error
}

// ServiceParams bundles the dependencies required to build the login service.
type ServiceParams struct {
	Admins    adminRepository
	Sessions  sessionManager
	JWTConfig config.JWTConfig
	Password  config.PasswordConfig
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	admins   adminRepository
	sessions sessionManager
	jwtCfg   config.JWTConfig
	hasher   security.Hasher
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Admins == nil {
		return nil, fmt.Errorf("admin repository is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		admins:   params.Admins,
		sessions: params.Sessions,
		jwtCfg:   params.JWTConfig,
		hasher:   security.NewHasher(params.Password),
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup admin")
	}

	valid, err := security.VerifyPassword(req.Password, admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !admin.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now()
	sessionID, err := s.sessions.Create(ctx, admin.ID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store admin session")
	}
	sessionToken, _, err := pkgauth.MintSessionToken(s.jwtCfg, now, pkgauth.SessionTokenPayload{
		AdminID:   admin.ID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}
	flagToken, err := pkgauth.MintAdminFlagToken(s.jwtCfg, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint admin flag")
	}

	adminCtx := s.logg.WithAdminID(ctx, admin.ID.String())
	if err := s.admins.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		s.logg.Warn(adminCtx, "failed to record admin last login")
	}
	if s.hasher.NeedsRehash(admin.PasswordHash) {
		s.upgradeHash(adminCtx, admin.ID, req.Password)
	}

	return &LoginResult{
		AdminID:      admin.ID,
		Email:        admin.Email,
		ExpiresAt:    now.Add(s.jwtCfg.SessionTTL()),
		SessionToken: sessionToken,
		FlagToken:    flagToken,
	}, nil
}

// upgradeHash re-hashes the password with the current cost parameters. A
// failure leaves the old hash in place, which still verifies.
func (s *service) upgradeHash(ctx context.Context, id uuid.UUID, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.admins.UpdatePasswordHash(ctx, id, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "admin password rehash failed")
		return
	}
	s.logg.Info(ctx, "admin password rehashed")
}

// Logout revokes the Redis session and the flag cookie presented with the
// request. Unparseable or expired tokens have nothing left to revoke.
func (s *service) Logout(ctx context.Context, creds Credentials) error {
	if token := strings.TrimSpace(creds.SessionToken); token != "" {
		if claims, err := pkgauth.ParseSessionToken(s.jwtCfg, token); err == nil {
			if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke admin session")
			}
		}
	}
	if token := strings.TrimSpace(creds.FlagToken); token != "" {
		if claims, err := pkgauth.ParseAdminFlagToken(s.jwtCfg, token); err == nil && claims.ExpiresAt != nil {
			if err := s.sessions.RevokeFlag(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke admin flag")
			}
		}
	}
	return nil
}
