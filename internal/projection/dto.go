package projection

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Inbound event topics this service subscribes to.
const (
	TopicUserCreated                  = "user/user/created"
	TopicCouponCreated                = "discount/coupon/created"
	TopicShipmentMethodCreated        = "shipment/shipment-method/created"
	TopicUserAddressCreated           = "address/user-address/created"
	TopicUserAddressArchived          = "address/user-address/archived"
	TopicProductVariantVersionCreated = "catalog/product-variant-version/created"
	TopicProductVariantUpdated        = "catalog/product-variant/updated"
	TopicTaxRateVersionCreated        = "tax/tax-rate-version/created"
	TopicShipmentCreationFailed       = "shipment/shipment/creation-failed"
)

// IDEventData is the uuid-only creation event payload.
type IDEventData struct {
	ID uuid.UUID `json:"id"`
}

// UserAddressEventData is carried by address creation and archive events.
type UserAddressEventData struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"userId"`
}

// ProductVariantVersionEventData announces a new current version of a
// product variant.
type ProductVariantVersionEventData struct {
	ID               uuid.UUID `json:"id"`
	RetailPrice      uint64    `json:"retailPrice"`
	TaxRateID        uuid.UUID `json:"taxRateId"`
	ProductVariantID uuid.UUID `json:"productVariantId"`
}

// TaxRateVersionEventData announces a new current version of a tax rate.
type TaxRateVersionEventData struct {
	ID        uuid.UUID `json:"id"`
	Rate      float64   `json:"rate"`
	Version   uint32    `json:"version"`
	TaxRateID uuid.UUID `json:"taxRateId"`
}

// ProductVariantUpdatedEventData carries a visibility change. The flag is a
// string on the wire, pending an upstream schema fix.
type ProductVariantUpdatedEventData struct {
	ID                uuid.UUID `json:"id"`
	IsPubliclyVisible string    `json:"isPubliclyVisible"`
}

// Visibility parses the wire flag case-insensitively; values other than
// "true"/"false" are an error.
func (d ProductVariantUpdatedEventData) Visibility() (bool, error) {
	switch strings.ToLower(strings.TrimSpace(d.IsPubliclyVisible)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid isPubliclyVisible value %q", d.IsPubliclyVisible)
}

// ShipmentFailedEventData names the order items whose shipment could not be
// created.
type ShipmentFailedEventData struct {
	OrderID      uuid.UUID   `json:"orderId"`
	OrderItemIDs []uuid.UUID `json:"orderItemIds"`
}
