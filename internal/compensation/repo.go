package compensation

import (
	"context"

	"gorm.io/gorm"

	"github.com/commercemesh/order-service/pkg/db/models"
)

// Repository persists compensation records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateCompensation(ctx context.Context, compensation *models.OrderCompensation) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a compensation repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateCompensation inserts the compensation and its item links in one
// statement batch. The unique index on order_item_id surfaces double
// compensation as a constraint violation.
func (r *repository) CreateCompensation(ctx context.Context, compensation *models.OrderCompensation) error {
	return r.db.WithContext(ctx).Create(compensation).Error
}
