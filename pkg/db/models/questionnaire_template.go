package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
)

// Question is one entry of a template's ordered question list.
type Question struct {
	ID          string             `json:"id"`
	Type        enums.QuestionType `json:"type"`
	Label       string             `json:"label"`
	Required    bool               `json:"required"`
	Options     []string           `json:"options,omitempty"`
	Placeholder string             `json:"placeholder,omitempty"`
}

// QuestionnaireTemplate is an admin-authored question set scoped to one
// client. TemplateID is the caller-chosen key, unique per client.
type QuestionnaireTemplate struct {
	ID          int64                          `gorm:"column:id;primaryKey;autoIncrement"`
	ClientID    int64                          `gorm:"column:client_id;not null;uniqueIndex:idx_client_templates_client_template,priority:1"`
	TemplateID  string                         `gorm:"column:template_id;not null;uniqueIndex:idx_client_templates_client_template,priority:2"`
	Category    enums.QuestionnaireCategory    `gorm:"column:category;not null"`
	Name        string                         `gorm:"column:name;not null"`
	Description *string                        `gorm:"column:description"`
	Questions   datatypes.JSONType[[]Question] `gorm:"column:questions"`
	CreatedAt   time.Time                      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                      `gorm:"column:updated_at;autoUpdateTime"`
}

func (QuestionnaireTemplate) TableName() string { return "client_questionnaire_templates" }

// QuestionnaireResponse maps question ids to answers for one (client, template).
type QuestionnaireResponse struct {
	ID         int64             `gorm:"column:id;primaryKey;autoIncrement"`
	ClientID   int64             `gorm:"column:client_id;not null;uniqueIndex:idx_client_responses_client_template,priority:1"`
	TemplateID string            `gorm:"column:template_id;not null;uniqueIndex:idx_client_responses_client_template,priority:2"`
	Responses  datatypes.JSONMap `gorm:"column:responses"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (QuestionnaireResponse) TableName() string { return "client_questionnaire_responses" }
