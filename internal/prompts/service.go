package prompts

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fitcoach-backend/internal/activity"
	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
)

const (
	KindWorkout   = "workout"
	KindNutrition = "nutrition"
)

type Result struct {
	ClientID int64  `json:"client_id"`
	Kind     string `json:"kind"`
	Prompt   string `json:"prompt"`
}

// Service renders prompts from a client's current questionnaire.
type Service interface {
	Generate(ctx context.Context, clientID int64, kind string) (*Result, error)
}

type authorizer interface {
	RequireAdmin(ctx context.Context) error
}

type clientFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Client, error)
}

type questionnaireFinder interface {
	FindCurrentQuestionnaire(ctx context.Context, clientID int64) (*models.Questionnaire, error)
}

type ServiceParams struct {
	Clients        clientFinder
	Questionnaires questionnaireFinder
	Gate           authorizer
	Activity       activity.Recorder
}

type service struct {
	clients        clientFinder
	questionnaires questionnaireFinder
	gate           authorizer
	activity       activity.Recorder
}

func NewService(params ServiceParams) (Service, error) {
	if params.Clients == nil {
		return nil, fmt.Errorf("client finder required")
	}
	if params.Questionnaires == nil {
		return nil, fmt.Errorf("questionnaire finder required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	return &service{
		clients:        params.Clients,
		questionnaires: params.Questionnaires,
		gate:           params.Gate,
		activity:       params.Activity,
	}, nil
}

func (s *service) Generate(ctx context.Context, clientID int64, kind string) (*Result, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if kind != KindWorkout && kind != KindNutrition {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown prompt kind %q", kind))
	}

	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "load client")
	}
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("client %d not found", clientID))
	}
	questionnaire, err := s.questionnaires.FindCurrentQuestionnaire(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "load questionnaire")
	}
	if questionnaire == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("client %d has no questionnaire", clientID))
	}

	var prompt string
	if kind == KindWorkout {
		prompt = Workout(client.Name, questionnaire.WorkoutData.Data())
	} else {
		prompt = Nutrition(client.Name, questionnaire.NutritionData.Data())
	}

	s.activity.Record(ctx, activity.Entry{
		ClientID: clientID,
		Type:     enums.ActivityPromptGenerated,
		Title:    fmt.Sprintf("Generated %s prompt", kind),
		Metadata: map[string]any{"kind": kind},
	})
	return &Result{ClientID: clientID, Kind: kind, Prompt: prompt}, nil
}
