package plans

import (
	"context"
	"fmt"
	"sort"

	"github.com/angelmondragon/fitcoach-backend/internal/activity"
	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
)

// Service stores and serves the delivered plan of each client.
type Service interface {
	Save(ctx context.Context, clientID int64, req SaveRequest) (*PlanDTO, error)
	Get(ctx context.Context, clientID int64) (*PlanDTO, error)
}

type authorizer interface {
	RequireAdmin(ctx context.Context) error
}

type clientChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type ServiceParams struct {
	Repo     Repository
	Clients  clientChecker
	Gate     authorizer
	Activity activity.Recorder
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	clients  clientChecker
	gate     authorizer
	activity activity.Recorder
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("plan repository required")
	}
	if params.Clients == nil {
		return nil, fmt.Errorf("client checker required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		clients:  params.Clients,
		gate:     params.Gate,
		activity: params.Activity,
		logg:     params.Logger,
	}, nil
}

// Save replaces the whole plan. A request missing any artifact is rejected
// so a partial save can never blank the others.
func (s *service) Save(ctx context.Context, clientID int64, req SaveRequest) (*PlanDTO, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if missing := missingFields(req); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "all plan artifacts are required").
			WithDetails(map[string]any{"missing": missing})
	}

	ok, err := s.clients.Exists(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "load client")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("client %d not found", clientID))
	}

	plan := &models.ClientPlan{
		ClientID:      clientID,
		WorkoutHTML:   *req.WorkoutHTML,
		NutritionHTML: *req.NutritionHTML,
		WorkoutICS:    *req.WorkoutICS,
		NutritionICS:  *req.NutritionICS,
	}
	if err := s.repo.Upsert(ctx, plan); err != nil {
		return nil, pkgerrors.Upstream(err, "save client plan")
	}

	saved, err := s.repo.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "reload client plan")
	}
	s.activity.Record(ctx, activity.Entry{
		ClientID: clientID,
		Type:     enums.ActivityPlanSaved,
		Title:    "Plan saved",
	})
	s.logg.Info(s.logg.WithClientID(ctx, clientID), "client plan saved")
	return fromModel(saved), nil
}

// Get returns nil when no plan has been delivered yet.
func (s *service) Get(ctx context.Context, clientID int64) (*PlanDTO, error) {
	plan, err := s.repo.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "load client plan")
	}
	return fromModel(plan), nil
}

func missingFields(req SaveRequest) []string {
	var missing []string
	for name, value := range map[string]*string{
		"workout_html":   req.WorkoutHTML,
		"nutrition_html": req.NutritionHTML,
		"workout_ics":    req.WorkoutICS,
		"nutrition_ics":  req.NutritionICS,
	} {
		if value == nil {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
