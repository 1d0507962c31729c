package admin

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
)

const unauthorizedMessage = "Unauthorized"

// Gate is the binary admin check consulted before every privileged mutation.
// Providers run in order and the first one that does not abstain decides.
type Gate struct {
	providers []Provider
	logg      *logger.Logger
}

func NewGate(logg *logger.Logger, providers ...Provider) (*Gate, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one authorization provider is required")
	}
	for i, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("authorization provider %d is nil", i)
		}
	}
	return &Gate{providers: providers, logg: logg}, nil
}

// Authorize resolves the request credentials stored in ctx. Provider errors
// deny.
func (g *Gate) Authorize(ctx context.Context) Result {
	creds := CredentialsFromContext(ctx)
	for _, provider := range g.providers {
		result, err := provider.Authorize(ctx, creds)
		if err != nil {
			if g.logg != nil {
				g.logg.Error(ctx, fmt.Sprintf("admin authorization provider %s failed", provider.Name()), err)
			}
			return Result{Decision: Deny, AdminID: result.AdminID, Provider: provider.Name()}
		}
		if result.Decision != Abstain {
			return result
		}
	}
	return Result{Decision: Deny}
}

// RequireAdmin returns an UNAUTHORIZED error unless the caller is an admin.
func (g *Gate) RequireAdmin(ctx context.Context) error {
	if g.Authorize(ctx).Decision != Allow {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, unauthorizedMessage)
	}
	return nil
}
