package prompts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/fitcoach-backend/internal/activity"
	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"gorm.io/datatypes"
)

func TestGenerateRecordsActivity(t *testing.T) {
	recorder := &spyRecorder{}
	svc := newTestService(t, allowGate{}, recorder, &models.Questionnaire{
		ClientID:      1,
		WorkoutData:   datatypes.NewJSONType(models.WorkoutAnswers{Goal: "Lose fat"}),
		NutritionData: datatypes.NewJSONType(models.NutritionAnswers{Goal: "high protein"}),
	})

	result, err := svc.Generate(context.Background(), 1, KindNutrition)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(result.Prompt, "Nutrition goal: high protein") {
		t.Fatalf("unexpected prompt:\n%s", result.Prompt)
	}
	if len(recorder.entries) != 1 || recorder.entries[0].Type != enums.ActivityPromptGenerated {
		t.Fatalf("expected prompt_generated activity, got %+v", recorder.entries)
	}
}

func TestGenerateErrors(t *testing.T) {
	ctx := context.Background()

	denied := newTestService(t, denyGate{}, &spyRecorder{}, nil)
	if _, err := denied.Generate(ctx, 1, KindWorkout); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	svc := newTestService(t, allowGate{}, &spyRecorder{}, nil)
	if _, err := svc.Generate(ctx, 1, "cardio"); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Generate(ctx, 1, KindWorkout); !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected missing questionnaire to be not found, got %v", err)
	}
	if _, err := svc.Generate(ctx, 2, KindWorkout); !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected missing client to be not found, got %v", err)
	}

	broken, err := NewService(ServiceParams{
		Clients:        stubClients{},
		Questionnaires: stubQuestionnaires{err: errors.New("connection reset")},
		Gate:           allowGate{},
		Activity:       &spyRecorder{},
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := broken.Generate(ctx, 1, KindWorkout); !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func newTestService(t *testing.T, gate authorizer, recorder activity.Recorder, questionnaire *models.Questionnaire) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Clients:        stubClients{},
		Questionnaires: stubQuestionnaires{row: questionnaire},
		Gate:           gate,
		Activity:       recorder,
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return svc
}

type stubClients struct{}

func (stubClients) FindByID(_ context.Context, id int64) (*models.Client, error) {
	if id != 1 {
		return nil, nil
	}
	return &models.Client{ID: 1, Name: "Ana"}, nil
}

type stubQuestionnaires struct {
	row *models.Questionnaire
	err error
}

func (s stubQuestionnaires) FindCurrentQuestionnaire(context.Context, int64) (*models.Questionnaire, error) {
	return s.row, s.err
}

type allowGate struct{}

func (allowGate) RequireAdmin(context.Context) error { return nil }

type denyGate struct{}

func (denyGate) RequireAdmin(context.Context) error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized")
}

type spyRecorder struct {
	entries []activity.Entry
}

func (s *spyRecorder) Record(_ context.Context, entry activity.Entry) {
	s.entries = append(s.entries, entry)
}
