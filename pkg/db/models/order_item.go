package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/commercemesh/order-service/pkg/db/types"
)

// OrderItem captures the immutable per-variant snapshot within an order.
// DiscountIDs are deduplicated and sorted at assembly time.
type OrderItem struct {
	ID                      uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID                 uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index;uniqueIndex:ux_order_items_order_variant"`
	ProductVariantID        uuid.UUID         `gorm:"column:product_variant_id;type:uuid;not null;uniqueIndex:ux_order_items_order_variant"`
	ProductVariantVersionID uuid.UUID         `gorm:"column:product_variant_version_id;type:uuid;not null"`
	TaxRateVersionID        uuid.UUID         `gorm:"column:tax_rate_version_id;type:uuid;not null"`
	ShoppingCartItemID      uuid.UUID         `gorm:"column:shopping_cart_item_id;type:uuid;not null"`
	ShipmentMethodID        uuid.UUID         `gorm:"column:shipment_method_id;type:uuid;not null"`
	Count                   uint64            `gorm:"column:count;not null"`
	CompensatableAmount     uint64            `gorm:"column:compensatable_amount;not null"`
	DiscountIDs             dbtypes.UUIDArray `gorm:"column:discount_ids;type:text;not null;default:'{}'"`
	CreatedAt               time.Time         `gorm:"column:created_at;not null"`
}

// TableName overrides the default pluralization.
func (OrderItem) TableName() string {
	return "order_items"
}
