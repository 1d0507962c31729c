package questionnaires

import (
	"context"
	"errors"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists intake questionnaires, templates and responses. Every
// save is an upsert on the natural key.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertQuestionnaire(ctx context.Context, q *models.Questionnaire) error
	FindCurrentQuestionnaire(ctx context.Context, clientID int64) (*models.Questionnaire, error)
	UpsertTemplate(ctx context.Context, tpl *models.QuestionnaireTemplate) error
	FindTemplate(ctx context.Context, clientID int64, templateID string) (*models.QuestionnaireTemplate, error)
	FindTemplateByRowID(ctx context.Context, id int64) (*models.QuestionnaireTemplate, error)
	ListTemplates(ctx context.Context, clientID int64) ([]models.QuestionnaireTemplate, error)
	DeleteTemplate(ctx context.Context, id int64) (int64, error)
	UpsertResponse(ctx context.Context, resp *models.QuestionnaireResponse) error
	FindResponse(ctx context.Context, clientID int64, templateID string) (*models.QuestionnaireResponse, error)
	DeleteResponse(ctx context.Context, clientID int64, templateID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) UpsertQuestionnaire(ctx context.Context, q *models.Questionnaire) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"workout_data", "nutrition_data", "updated_at"}),
		}).
		Create(q).Error
}

// FindCurrentQuestionnaire returns the most recently created row, or nil.
func (r *repository) FindCurrentQuestionnaire(ctx context.Context, clientID int64) (*models.Questionnaire, error) {
	var q models.Questionnaire
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Order("id DESC").
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) UpsertTemplate(ctx context.Context, tpl *models.QuestionnaireTemplate) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "template_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"category", "name", "description", "questions", "updated_at"}),
		}).
		Create(tpl).Error
}

func (r *repository) FindTemplate(ctx context.Context, clientID int64, templateID string) (*models.QuestionnaireTemplate, error) {
	return firstTemplate(r.db.WithContext(ctx).Where("client_id = ? AND template_id = ?", clientID, templateID))
}

func (r *repository) FindTemplateByRowID(ctx context.Context, id int64) (*models.QuestionnaireTemplate, error) {
	return firstTemplate(r.db.WithContext(ctx).Where("id = ?", id))
}

func firstTemplate(query *gorm.DB) (*models.QuestionnaireTemplate, error) {
	var tpl models.QuestionnaireTemplate
	err := query.First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *repository) ListTemplates(ctx context.Context, clientID int64) ([]models.QuestionnaireTemplate, error) {
	var rows []models.QuestionnaireTemplate
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DeleteTemplate(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.QuestionnaireTemplate{})
	return res.RowsAffected, res.Error
}

func (r *repository) UpsertResponse(ctx context.Context, resp *models.QuestionnaireResponse) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "template_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"responses", "updated_at"}),
		}).
		Create(resp).Error
}

func (r *repository) FindResponse(ctx context.Context, clientID int64, templateID string) (*models.QuestionnaireResponse, error) {
	var resp models.QuestionnaireResponse
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND template_id = ?", clientID, templateID).
		First(&resp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *repository) DeleteResponse(ctx context.Context, clientID int64, templateID string) error {
	return r.db.WithContext(ctx).
		Where("client_id = ? AND template_id = ?", clientID, templateID).
		Delete(&models.QuestionnaireResponse{}).Error
}
