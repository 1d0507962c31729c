package activity

import (
	"context"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists timeline entries. There is no update or delete path.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, activity *models.Activity) error
	ListByClient(ctx context.Context, clientID int64, cursor *pagination.Cursor, limit int) ([]models.Activity, error)
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

func (r *repository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// ListByClient returns up to limit entries, newest first, strictly older than
// cursor when one is supplied.
func (r *repository) ListByClient(ctx context.Context, clientID int64, cursor *pagination.Cursor, limit int) ([]models.Activity, error) {
	var rows []models.Activity
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Scopes(pagination.Keyset(cursor)).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
