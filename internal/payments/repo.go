package payments

import (
	"context"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository stores payment records. Rows are append-only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertIdempotent(ctx context.Context, payment *models.Payment) (bool, error)
	InvoiceHasStatus(ctx context.Context, invoiceID string, status enums.PaymentStatus) (bool, error)
	ListByClient(ctx context.Context, clientID int64, limit int) ([]models.Payment, error)
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

// InsertIdempotent reports false when a row with the same invoice id and
// status already exists.
func (r *repository) InsertIdempotent(ctx context.Context, payment *models.Payment) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_invoice_id"}, {Name: "status"}},
			DoNothing: true,
		}).
		Create(payment)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) InvoiceHasStatus(ctx context.Context, invoiceID string, status enums.PaymentStatus) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("stripe_invoice_id = ? AND status = ?", invoiceID, status).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListByClient(ctx context.Context, clientID int64, limit int) ([]models.Payment, error) {
	var rows []models.Payment
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("payment_date DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
