package plans

import (
	"context"
	"errors"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Upsert(ctx context.Context, plan *models.ClientPlan) error
	FindByClientID(ctx context.Context, clientID int64) (*models.ClientPlan, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Upsert writes all four artifacts; a conflicting client_id row is replaced
// field by field.
func (r *repository) Upsert(ctx context.Context, plan *models.ClientPlan) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "client_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"workout_html", "nutrition_html", "workout_ics", "nutrition_ics", "updated_at",
			}),
		}).
		Create(plan).Error
}

func (r *repository) FindByClientID(ctx context.Context, clientID int64) (*models.ClientPlan, error) {
	var plan models.ClientPlan
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
