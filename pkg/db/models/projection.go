package models

import (
	"github.com/google/uuid"

	dbtypes "github.com/commercemesh/order-service/pkg/db/types"
)

// Projected foreign entities. These are lookup copies maintained from inbound
// events; the authoritative data lives in the owning services.

// User mirrors the user service's users plus their ordered address list.
type User struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserAddressIDs dbtypes.UUIDArray `gorm:"column:user_address_ids;type:text;not null;default:'{}'"`
}

// TableName overrides the default pluralization.
func (User) TableName() string {
	return "users"
}

// ProductVariant holds the variant's visibility and its embedded current
// version snapshot. No version history is retained locally.
type ProductVariant struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	IsPubliclyVisible  bool      `gorm:"column:is_publicly_visible;not null;default:true"`
	CurrentVersionID   uuid.UUID `gorm:"column:current_version_id;type:uuid;not null"`
	CurrentRetailPrice uint64    `gorm:"column:current_retail_price;not null"`
	CurrentTaxRateID   uuid.UUID `gorm:"column:current_tax_rate_id;type:uuid;not null"`
}

// TableName overrides the default pluralization.
func (ProductVariant) TableName() string {
	return "product_variants"
}

// TaxRate holds the embedded current tax-rate version snapshot.
type TaxRate struct {
	ID                    uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CurrentVersionID      uuid.UUID `gorm:"column:current_version_id;type:uuid;not null"`
	CurrentRate           float64   `gorm:"column:current_rate;not null"`
	CurrentVersionOrdinal uint32    `gorm:"column:current_version_ordinal;not null"`
}

// TableName overrides the default pluralization.
func (TaxRate) TableName() string {
	return "tax_rates"
}

// Coupon is an existence-tracking projection.
type Coupon struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
}

// TableName overrides the default pluralization.
func (Coupon) TableName() string {
	return "coupons"
}

// ShipmentMethod is an existence-tracking projection.
type ShipmentMethod struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
}

// TableName overrides the default pluralization.
func (ShipmentMethod) TableName() string {
	return "shipment_methods"
}
