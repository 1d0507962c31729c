package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/fitcoach-backend/api/responses"
	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by the database and Redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FitCoach-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and Redis concurrently.
func HealthReady(cfg *config.Config, db Pinger, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FitCoach-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		checks := map[string]Pinger{"database": db, "redis": cache}
		for name, pinger := range checks {
			if pinger == nil {
				continue
			}
			g.Go(func() error {
				if err := pinger.Ping(gctx); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable")
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
