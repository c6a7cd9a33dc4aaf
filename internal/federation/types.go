package federation

import "github.com/google/uuid"

// CartItem is one shopping-cart line resolved from the cart service.
type CartItem struct {
	ShoppingCartItemID uuid.UUID
	ProductVariantID   uuid.UUID
	Count              uint64
}

// Discount is one applicable discount returned by the discount service. The
// factor is multiplicative in (0, 1].
type Discount struct {
	ID     uuid.UUID `json:"id"`
	Factor float64   `json:"discount"`
}

// DiscountVariantInput describes one product variant of the discount query.
type DiscountVariantInput struct {
	ProductVariantID uuid.UUID   `json:"productVariantId"`
	Count            uint64      `json:"count"`
	CouponIDs        []uuid.UUID `json:"couponIds"`
}

// DiscountQueryInput is the payload of the applicable-discounts query.
type DiscountQueryInput struct {
	UserID          uuid.UUID              `json:"userId"`
	OrderAmount     uint64                 `json:"orderAmount"`
	ProductVariants []DiscountVariantInput `json:"productVariants"`
}

// ShipmentFeeItem describes one line of the shipment-fee query.
type ShipmentFeeItem struct {
	ProductVariantVersionID uuid.UUID `json:"productVariantVersionId"`
	Quantity                uint64    `json:"quantity"`
	ShipmentMethodID        uuid.UUID `json:"shipmentMethodId"`
}
