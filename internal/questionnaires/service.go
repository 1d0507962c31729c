package questionnaires

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/fitcoach-backend/internal/activity"
	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service covers intake questionnaires plus per-client templates and their
// responses.
type Service interface {
	SaveQuestionnaire(ctx context.Context, clientID int64, req SaveQuestionnaireRequest) (*QuestionnaireDTO, error)
	GetCurrentQuestionnaire(ctx context.Context, clientID int64) (*QuestionnaireDTO, error)
	SaveTemplate(ctx context.Context, clientID int64, input TemplateInput) (*TemplateDTO, error)
	ListTemplates(ctx context.Context, clientID int64) ([]TemplateDTO, error)
	DeleteTemplate(ctx context.Context, id int64) (*DeleteTemplateResult, error)
	SaveResponse(ctx context.Context, clientID int64, templateID string, req SaveResponseRequest) (*ResponseDTO, error)
	GetResponse(ctx context.Context, clientID int64, templateID string) (*ResponseDTO, error)
}

type authorizer interface {
	RequireAdmin(ctx context.Context) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type clientChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type ServiceParams struct {
	Repo     Repository
	Clients  clientChecker
	TxRunner txRunner
	Gate     authorizer
	Activity activity.Recorder
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	clients  clientChecker
	tx       txRunner
	gate     authorizer
	activity activity.Recorder
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("questionnaire repository required")
	}
	if params.Clients == nil {
		return nil, fmt.Errorf("client checker required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
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
		tx:       params.TxRunner,
		gate:     params.Gate,
		activity: params.Activity,
		logg:     params.Logger,
	}, nil
}

func (s *service) SaveQuestionnaire(ctx context.Context, clientID int64, req SaveQuestionnaireRequest) (*QuestionnaireDTO, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}

	row := &models.Questionnaire{
		ClientID:      clientID,
		WorkoutData:   datatypes.NewJSONType(req.WorkoutData),
		NutritionData: datatypes.NewJSONType(req.NutritionData),
	}
	if err := s.repo.UpsertQuestionnaire(ctx, row); err != nil {
		return nil, pkgerrors.Upstream(err, "save questionnaire")
	}

	saved, err := s.repo.FindCurrentQuestionnaire(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "reload questionnaire")
	}
	s.activity.Record(ctx, activity.Entry{
		ClientID: clientID,
		Type:     enums.ActivityQuestionnaireSaved,
		Title:    "Questionnaire saved",
	})
	return questionnaireFromModel(saved), nil
}

// GetCurrentQuestionnaire returns nil when the client has not submitted one.
func (s *service) GetCurrentQuestionnaire(ctx context.Context, clientID int64) (*QuestionnaireDTO, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	row, err := s.repo.FindCurrentQuestionnaire(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "load questionnaire")
	}
	return questionnaireFromModel(row), nil
}

func (s *service) SaveTemplate(ctx context.Context, clientID int64, input TemplateInput) (*TemplateDTO, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	input.TemplateID = strings.TrimSpace(input.TemplateID)
	input.Name = strings.TrimSpace(input.Name)
	if err := validateTemplate(input); err != nil {
		return nil, err
	}
	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}

	questions := input.Questions
	if questions == nil {
		questions = []models.Question{}
	}
	row := &models.QuestionnaireTemplate{
		ClientID:    clientID,
		TemplateID:  input.TemplateID,
		Category:    input.Category,
		Name:        input.Name,
		Description: input.Description,
		Questions:   datatypes.NewJSONType(questions),
	}
	if err := s.repo.UpsertTemplate(ctx, row); err != nil {
		return nil, pkgerrors.Upstream(err, "save questionnaire template")
	}

	saved, err := s.repo.FindTemplate(ctx, clientID, input.TemplateID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "reload questionnaire template")
	}
	if saved == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "saved template could not be reloaded")
	}
	s.activity.Record(ctx, activity.Entry{
		ClientID: clientID,
		Type:     enums.ActivityTemplateSaved,
		Title:    fmt.Sprintf("Template %q saved", saved.Name),
		Metadata: map[string]any{"template_id": saved.TemplateID, "category": saved.Category.String()},
	})
	dto := templateFromModel(saved)
	return &dto, nil
}

func (s *service) ListTemplates(ctx context.Context, clientID int64) ([]TemplateDTO, error) {
	rows, err := s.repo.ListTemplates(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "list questionnaire templates")
	}
	out := make([]TemplateDTO, 0, len(rows))
	for i := range rows {
		out = append(out, templateFromModel(&rows[i]))
	}
	return out, nil
}

// DeleteTemplate removes a template by row id together with its stored
// response. The owning client id is returned so callers can refresh views.
func (s *service) DeleteTemplate(ctx context.Context, id int64) (*DeleteTemplateResult, error) {
	if err := s.gate.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	var result *DeleteTemplateResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		tpl, err := repo.FindTemplateByRowID(ctx, id)
		if err != nil {
			return pkgerrors.Upstream(err, "load questionnaire template")
		}
		if tpl == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("template %d not found", id))
		}
		if err := repo.DeleteResponse(ctx, tpl.ClientID, tpl.TemplateID); err != nil {
			return pkgerrors.Upstream(err, "delete questionnaire response")
		}
		if _, err := repo.DeleteTemplate(ctx, id); err != nil {
			return pkgerrors.Upstream(err, "delete questionnaire template")
		}
		result = &DeleteTemplateResult{ClientID: tpl.ClientID, TemplateID: tpl.TemplateID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.Entry{
		ClientID: result.ClientID,
		Type:     enums.ActivityTemplateDeleted,
		Title:    "Template deleted",
		Metadata: map[string]any{"template_id": result.TemplateID},
	})
	return result, nil
}

func (s *service) SaveResponse(ctx context.Context, clientID int64, templateID string, req SaveResponseRequest) (*ResponseDTO, error) {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template_id is required")
	}
	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}
	tpl, err := s.repo.FindTemplate(ctx, clientID, templateID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "load questionnaire template")
	}
	if tpl == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("template %q not found for client %d", templateID, clientID))
	}

	responses := req.Responses
	if responses == nil {
		responses = map[string]any{}
	}
	row := &models.QuestionnaireResponse{
		ClientID:   clientID,
		TemplateID: templateID,
		Responses:  datatypes.JSONMap(responses),
	}
	if err := s.repo.UpsertResponse(ctx, row); err != nil {
		return nil, pkgerrors.Upstream(err, "save questionnaire response")
	}

	saved, err := s.repo.FindResponse(ctx, clientID, templateID)
	if err != nil {
		return nil, pkgerrors.Upstream(err, "reload questionnaire response")
	}
	s.activity.Record(ctx, activity.Entry{
		ClientID: clientID,
		Type:     enums.ActivityResponseSaved,
		Title:    fmt.Sprintf("Responses saved for %q", tpl.Name),
		Metadata: map[string]any{"template_id": templateID},
	})
	return responseFromModel(saved), nil
}

// GetResponse returns nil when nothing has been saved for the pair.
func (s *service) GetResponse(ctx context.Context, clientID int64, templateID string) (*ResponseDTO, error) {
	row, err := s.repo.FindResponse(ctx, clientID, strings.TrimSpace(templateID))
	if err != nil {
		return nil, pkgerrors.Upstream(err, "load questionnaire response")
	}
	return responseFromModel(row), nil
}

func (s *service) requireClient(ctx context.Context, clientID int64) error {
	ok, err := s.clients.Exists(ctx, clientID)
	if err != nil {
		return pkgerrors.Upstream(err, "load client")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("client %d not found", clientID))
	}
	return nil
}

func validateTemplate(input TemplateInput) error {
	if input.TemplateID == "" || input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "template_id and name are required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "category must be workout or nutrition")
	}

	seen := make(map[string]struct{}, len(input.Questions))
	for i, q := range input.Questions {
		id := strings.TrimSpace(q.ID)
		if id == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("question %d is missing an id", i))
		}
		if _, dup := seen[id]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("question id %q is duplicated", id)).
				WithDetails(map[string]any{"question_id": id})
		}
		seen[id] = struct{}{}
		if !q.Type.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("question %q has unknown type %q", id, q.Type))
		}
		if q.Type.HasOptions() && len(q.Options) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("question %q needs options", id))
		}
	}
	return nil
}
