package questionnaires

import (
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
)

// SaveQuestionnaireRequest replaces both intake blobs of a client.
type SaveQuestionnaireRequest struct {
	WorkoutData   models.WorkoutAnswers   `json:"workout_data"`
	NutritionData models.NutritionAnswers `json:"nutrition_data"`
}

type QuestionnaireDTO struct {
	ID            int64                   `json:"id"`
	ClientID      int64                   `json:"client_id"`
	WorkoutData   models.WorkoutAnswers   `json:"workout_data"`
	NutritionData models.NutritionAnswers `json:"nutrition_data"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// TemplateInput is the admin-authored template payload.
type TemplateInput struct {
	TemplateID  string                      `json:"template_id" validate:"required,max=100"`
	Category    enums.QuestionnaireCategory `json:"category" validate:"required,oneof=workout nutrition"`
	Name        string                      `json:"name" validate:"required,max=200"`
	Description *string                     `json:"description,omitempty"`
	Questions   []models.Question           `json:"questions" validate:"dive"`
}

type TemplateDTO struct {
	ID          int64                       `json:"id"`
	ClientID    int64                       `json:"client_id"`
	TemplateID  string                      `json:"template_id"`
	Category    enums.QuestionnaireCategory `json:"category"`
	Name        string                      `json:"name"`
	Description *string                     `json:"description,omitempty"`
	Questions   []models.Question           `json:"questions"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// SaveResponseRequest carries answers keyed by question id.
type SaveResponseRequest struct {
	Responses map[string]any `json:"responses" validate:"required"`
}

type ResponseDTO struct {
	ClientID   int64          `json:"client_id"`
	TemplateID string         `json:"template_id"`
	Responses  map[string]any `json:"responses"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// DeleteTemplateResult names the client whose views should refetch.
type DeleteTemplateResult struct {
	ClientID   int64  `json:"client_id"`
	TemplateID string `json:"template_id"`
}

func questionnaireFromModel(m *models.Questionnaire) *QuestionnaireDTO {
	if m == nil {
		return nil
	}
	return &QuestionnaireDTO{
		ID:            m.ID,
		ClientID:      m.ClientID,
		WorkoutData:   m.WorkoutData.Data(),
		NutritionData: m.NutritionData.Data(),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func templateFromModel(m *models.QuestionnaireTemplate) TemplateDTO {
	questions := m.Questions.Data()
	if questions == nil {
		questions = []models.Question{}
	}
	return TemplateDTO{
		ID:          m.ID,
		ClientID:    m.ClientID,
		TemplateID:  m.TemplateID,
		Category:    m.Category,
		Name:        m.Name,
		Description: m.Description,
		Questions:   questions,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func responseFromModel(m *models.QuestionnaireResponse) *ResponseDTO {
	if m == nil {
		return nil
	}
	responses := map[string]any(m.Responses)
	if responses == nil {
		responses = map[string]any{}
	}
	return &ResponseDTO{
		ClientID:   m.ClientID,
		TemplateID: m.TemplateID,
		Responses:  responses,
		UpdatedAt:  m.UpdatedAt,
	}
}
