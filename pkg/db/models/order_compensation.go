package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderCompensation records a monetary refund intent for a subset of an
// order's items. Rows are append-only.
type OrderCompensation struct {
	ID                 uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	AmountToCompensate uint64                  `gorm:"column:amount_to_compensate;not null"`
	TriggeredAt        time.Time               `gorm:"column:triggered_at;not null"`
	Items              []OrderCompensationItem `gorm:"foreignKey:CompensationID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the default pluralization.
func (OrderCompensation) TableName() string {
	return "order_compensations"
}

// OrderCompensationItem links a compensation to one order item. The unique
// index on order_item_id enforces at-most-once compensation globally.
type OrderCompensationItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CompensationID uuid.UUID `gorm:"column:compensation_id;type:uuid;not null;index"`
	OrderItemID    uuid.UUID `gorm:"column:order_item_id;type:uuid;not null;uniqueIndex:ux_compensation_order_item"`
}

// TableName overrides the default pluralization.
func (OrderCompensationItem) TableName() string {
	return "order_compensation_items"
}
