package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/commercemesh/order-service/pkg/enums"
	"github.com/commercemesh/order-service/pkg/types"
)

// Order is the durable aggregate owned by this service. Items and amounts are
// frozen at creation; only the lifecycle columns change afterwards.
type Order struct {
	ID                       uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	UserID                   uuid.UUID                   `gorm:"column:user_id;type:uuid;not null;index"`
	Status                   enums.OrderStatus           `gorm:"column:status;type:text;not null;default:'PENDING'"`
	RejectionReason          *enums.RejectionReason      `gorm:"column:rejection_reason;type:text"`
	ShipmentAddressID        uuid.UUID                   `gorm:"column:shipment_address_id;type:uuid;not null"`
	InvoiceAddressID         uuid.UUID                   `gorm:"column:invoice_address_id;type:uuid;not null"`
	PaymentInformationID     uuid.UUID                   `gorm:"column:payment_information_id;type:uuid;not null"`
	PaymentAuthorization     *types.PaymentAuthorization `gorm:"column:payment_authorization;type:jsonb"`
	VATNumber                string                      `gorm:"column:vat_number;not null;default:''"`
	CompensatableOrderAmount uint64                      `gorm:"column:compensatable_order_amount;not null"`
	Items                    []OrderItem                 `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt                time.Time                   `gorm:"column:created_at;not null"`
	PlacedAt                 *time.Time                  `gorm:"column:placed_at"`
}

// TableName overrides the default pluralization.
func (Order) TableName() string {
	return "orders"
}
