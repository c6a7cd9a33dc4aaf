package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercemesh/order-service/pkg/db/models"
	"github.com/commercemesh/order-service/pkg/enums"
	"github.com/commercemesh/order-service/pkg/pagination"
	"github.com/commercemesh/order-service/pkg/types"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindOrderItemsByIDs(ctx context.Context, orderID uuid.UUID, ids []uuid.UUID) ([]models.OrderItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND id IN ?", orderID, ids).
		Find(&items).Error
	return items, err
}

func (r *repository) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, orderBy pagination.OrderBy) ([]models.Order, int64, error) {
	params = params.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order(orderBy.Clause()).
		Limit(params.First).
		Offset(params.Skip).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// MarkPlaced flips a pending order to placed. The status guard in the WHERE
// clause makes the transition atomic under concurrent place attempts.
func (r *repository) MarkPlaced(ctx context.Context, orderID uuid.UUID, placedAt time.Time, authorization *types.PaymentAuthorization) (bool, error) {
	updates := map[string]any{
		"status":    enums.OrderStatusPlaced,
		"placed_at": placedAt,
	}
	if authorization != nil {
		updates["payment_authorization"] = authorization
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkRejected flips a pending order to rejected. The rejection reason stays
// unset for timeout sweeps.
func (r *repository) MarkRejected(ctx context.Context, orderID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Update("status", enums.OrderStatusRejected)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
