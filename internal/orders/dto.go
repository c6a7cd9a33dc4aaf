package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/commercemesh/order-service/pkg/db/models"
	"github.com/commercemesh/order-service/pkg/enums"
	"github.com/commercemesh/order-service/pkg/types"
)

// OrderItemInput selects one cart line for the order and names how it ships.
type OrderItemInput struct {
	ShoppingCartItemID uuid.UUID   `json:"shoppingCartItemId" validate:"required"`
	ShipmentMethodID   uuid.UUID   `json:"shipmentMethodId" validate:"required"`
	CouponIDs          []uuid.UUID `json:"couponIds"`
}

// CreateOrderInput is the caller-facing payload for order creation.
type CreateOrderInput struct {
	UserID               uuid.UUID        `json:"userId" validate:"required"`
	OrderItemInputs      []OrderItemInput `json:"orderItemInputs" validate:"required,min=1,dive"`
	ShipmentAddressID    uuid.UUID        `json:"shipmentAddressId" validate:"required"`
	InvoiceAddressID     uuid.UUID        `json:"invoiceAddressId" validate:"required"`
	PaymentInformationID uuid.UUID        `json:"paymentInformationId" validate:"required"`
	VATNumber            *string          `json:"vatNumber"`
}

// PlaceOrderInput is the caller-facing payload for order placement.
type PlaceOrderInput struct {
	ID                   uuid.UUID                   `json:"id" validate:"required"`
	PaymentAuthorization *types.PaymentAuthorization `json:"paymentAuthorization"`
}

// ListParams carries the offset pagination and ordering inputs for order
// listings.
type ListParams struct {
	First     int    `json:"first"`
	Skip      int    `json:"skip"`
	OrderBy   string `json:"orderBy"`
	Direction string `json:"direction"`
}

// OrderItemDTO is the wire representation of an order item, used both in API
// responses and in outbound events.
type OrderItemDTO struct {
	ID                      uuid.UUID   `json:"id"`
	CreatedAt               time.Time   `json:"createdAt"`
	ProductVariantID        uuid.UUID   `json:"productVariantId"`
	ProductVariantVersionID uuid.UUID   `json:"productVariantVersionId"`
	TaxRateVersionID        uuid.UUID   `json:"taxRateVersionId"`
	ShoppingCartItemID      uuid.UUID   `json:"shoppingCartItemId"`
	Count                   uint64      `json:"count"`
	CompensatableAmount     uint64      `json:"compensatableAmount"`
	ShipmentMethodID        uuid.UUID   `json:"shipmentMethodId"`
	DiscountIDs             []uuid.UUID `json:"discountIds"`
}

// OrderDTO is the wire representation of an order aggregate.
type OrderDTO struct {
	ID                       uuid.UUID                   `json:"id"`
	UserID                   uuid.UUID                   `json:"userId"`
	CreatedAt                time.Time                   `json:"createdAt"`
	OrderStatus              enums.OrderStatus           `json:"orderStatus"`
	PlacedAt                 *time.Time                  `json:"placedAt,omitempty"`
	RejectionReason          *enums.RejectionReason      `json:"rejectionReason,omitempty"`
	OrderItems               []OrderItemDTO              `json:"orderItems"`
	ShipmentAddressID        uuid.UUID                   `json:"shipmentAddressId"`
	InvoiceAddressID         uuid.UUID                   `json:"invoiceAddressId"`
	CompensatableOrderAmount uint64                      `json:"compensatableOrderAmount"`
	PaymentInformationID     uuid.UUID                   `json:"paymentInformationId"`
	PaymentAuthorization     *types.PaymentAuthorization `json:"paymentAuthorization,omitempty"`
	VATNumber                string                      `json:"vatNumber"`
}

// OrderListDTO is the paginated listing response.
type OrderListDTO struct {
	Orders      []OrderDTO `json:"orders"`
	TotalCount  int64      `json:"totalCount"`
	HasNextPage bool       `json:"hasNextPage"`
}

// ItemDTOFromModel converts a stored order item to its wire shape.
func ItemDTOFromModel(item models.OrderItem) OrderItemDTO {
	return OrderItemDTO{
		ID:                      item.ID,
		CreatedAt:               item.CreatedAt,
		ProductVariantID:        item.ProductVariantID,
		ProductVariantVersionID: item.ProductVariantVersionID,
		TaxRateVersionID:        item.TaxRateVersionID,
		ShoppingCartItemID:      item.ShoppingCartItemID,
		Count:                   item.Count,
		CompensatableAmount:     item.CompensatableAmount,
		ShipmentMethodID:        item.ShipmentMethodID,
		DiscountIDs:             append([]uuid.UUID(nil), item.DiscountIDs...),
	}
}

// DTOFromModel converts a stored order aggregate to its wire shape.
func DTOFromModel(order *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemDTOFromModel(item))
	}
	return OrderDTO{
		ID:                       order.ID,
		UserID:                   order.UserID,
		CreatedAt:                order.CreatedAt,
		OrderStatus:              order.Status,
		PlacedAt:                 order.PlacedAt,
		RejectionReason:          order.RejectionReason,
		OrderItems:               items,
		ShipmentAddressID:        order.ShipmentAddressID,
		InvoiceAddressID:         order.InvoiceAddressID,
		CompensatableOrderAmount: order.CompensatableOrderAmount,
		PaymentInformationID:     order.PaymentInformationID,
		PaymentAuthorization:     order.PaymentAuthorization,
		VATNumber:                order.VATNumber,
	}
}
