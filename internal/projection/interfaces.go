package projection

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercemesh/order-service/pkg/db/models"
)

// Repository persists the projected foreign entities and serves the lookups
// order assembly depends on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	EnsureUser(ctx context.Context, id uuid.UUID) error
	EnsureCoupon(ctx context.Context, id uuid.UUID) error
	EnsureShipmentMethod(ctx context.Context, id uuid.UUID) error
	AppendUserAddress(ctx context.Context, userID, addressID uuid.UUID) error
	RemoveUserAddress(ctx context.Context, userID, addressID uuid.UUID) error
	UpsertProductVariantVersion(ctx context.Context, data ProductVariantVersionEventData) error
	SetProductVariantVisibility(ctx context.Context, id uuid.UUID, visible bool) error
	UpsertTaxRateVersion(ctx context.Context, data TaxRateVersionEventData) error

	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindProductVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error)
	FindTaxRates(ctx context.Context, ids []uuid.UUID) ([]models.TaxRate, error)
	CountCoupons(ctx context.Context, ids []uuid.UUID) (int64, error)
	CountShipmentMethods(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// Service applies inbound reference events to the local projection.
type Service interface {
	HandleUserCreated(ctx context.Context, data IDEventData) error
	HandleCouponCreated(ctx context.Context, data IDEventData) error
	HandleShipmentMethodCreated(ctx context.Context, data IDEventData) error
	HandleUserAddressCreated(ctx context.Context, data UserAddressEventData) error
	HandleUserAddressArchived(ctx context.Context, data UserAddressEventData) error
	HandleProductVariantVersionCreated(ctx context.Context, data ProductVariantVersionEventData) error
	HandleProductVariantUpdated(ctx context.Context, data ProductVariantUpdatedEventData) error
	HandleTaxRateVersionCreated(ctx context.Context, data TaxRateVersionEventData) error
}
