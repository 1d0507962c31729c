package clients

import (
	"context"
	"errors"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository is the record store surface for the clients table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, id int64) (*models.Client, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (*models.Client, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Client, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) (int64, error)
	DeleteCascade(ctx context.Context, id int64) (int64, error)
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

func (r *repository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

// FindByID returns nil when the client does not exist.
func (r *repository) FindByID(ctx context.Context, id int64) (*models.Client, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByStripeCustomerID returns nil when no client is linked to customerID.
func (r *repository) FindByStripeCustomerID(ctx context.Context, customerID string) (*models.Client, error) {
	return r.first(ctx, "stripe_customer_id = ?", customerID)
}

func (r *repository) first(ctx context.Context, query string, args ...any) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).Where(query, args...).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List orders clients by created_at DESC, id DESC and resumes after cursor.
func (r *repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Client, error) {
	var rows []models.Client
	if err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Scopes(pagination.Keyset(cursor)).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateFields applies a partial update and reports the affected row count.
func (r *repository) UpdateFields(ctx context.Context, id int64, fields map[string]any) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", id).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// DeleteCascade removes the client and every dependent row. Callers run it
// inside a transaction.
func (r *repository) DeleteCascade(ctx context.Context, id int64) (int64, error) {
	db := r.db.WithContext(ctx)
	dependents := []any{
		&models.Payment{},
		&models.Activity{},
		&models.QuestionnaireResponse{},
		&models.QuestionnaireTemplate{},
		&models.ClientPlan{},
		&models.Questionnaire{},
	}
	for _, model := range dependents {
		if err := db.Where("client_id = ?", id).Delete(model).Error; err != nil {
			return 0, err
		}
	}
	res := db.Where("id = ?", id).Delete(&models.Client{})
	return res.RowsAffected, res.Error
}
