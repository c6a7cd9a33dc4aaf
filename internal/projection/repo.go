package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/commercemesh/order-service/pkg/db/models"
	dbtypes "github.com/commercemesh/order-service/pkg/db/types"
)

// addressMutationRetries bounds the compare-and-swap loop on the user's
// address list. Event deliveries run concurrently, so two address events for
// the same user can race.
const addressMutationRetries = 5

type repository struct {
	db *gorm.DB
}

// NewRepository builds a projection repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) EnsureUser(ctx context.Context, id uuid.UUID) error {
	user := models.User{ID: id, UserAddressIDs: nil}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&user).Error
}

func (r *repository) EnsureCoupon(ctx context.Context, id uuid.UUID) error {
	coupon := models.Coupon{ID: id}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&coupon).Error
}

func (r *repository) EnsureShipmentMethod(ctx context.Context, id uuid.UUID) error {
	method := models.ShipmentMethod{ID: id}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&method).Error
}

func (r *repository) AppendUserAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	return r.swapUserAddresses(ctx, userID, func(current dbtypes.UUIDArray) (dbtypes.UUIDArray, bool) {
		for _, existing := range current {
			if existing == addressID {
				return nil, false
			}
		}
		next := make(dbtypes.UUIDArray, 0, len(current)+1)
		next = append(next, current...)
		return append(next, addressID), true
	})
}

func (r *repository) RemoveUserAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	return r.swapUserAddresses(ctx, userID, func(current dbtypes.UUIDArray) (dbtypes.UUIDArray, bool) {
		next := make(dbtypes.UUIDArray, 0, len(current))
		removed := false
		for _, existing := range current {
			if existing == addressID {
				removed = true
				continue
			}
			next = append(next, existing)
		}
		return next, removed
	})
}

// swapUserAddresses applies mutate to the user's address list with a
// compare-and-swap: the update only lands when the list still holds the value
// that was read, otherwise the row is reloaded and the mutation retried.
func (r *repository) swapUserAddresses(ctx context.Context, userID uuid.UUID, mutate func(dbtypes.UUIDArray) (dbtypes.UUIDArray, bool)) error {
	for attempt := 0; attempt < addressMutationRetries; attempt++ {
		var user models.User
		err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		next, changed := mutate(user.UserAddressIDs)
		if !changed {
			return nil
		}

		res := r.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ? AND user_address_ids = ?", userID, user.UserAddressIDs).
			Update("user_address_ids", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
	}
	return fmt.Errorf("updating addresses for user %s: concurrent update retries exhausted", userID)
}

func (r *repository) UpsertProductVariantVersion(ctx context.Context, data ProductVariantVersionEventData) error {
	variant := models.ProductVariant{
		ID:                 data.ProductVariantID,
		IsPubliclyVisible:  true,
		CurrentVersionID:   data.ID,
		CurrentRetailPrice: data.RetailPrice,
		CurrentTaxRateID:   data.TaxRateID,
	}
	// Visibility is owned by the variant-updated topic; the rollover only
	// replaces the current version snapshot.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_version_id", "current_retail_price", "current_tax_rate_id"}),
		}).
		Create(&variant).Error
}

func (r *repository) SetProductVariantVisibility(ctx context.Context, id uuid.UUID, visible bool) error {
	return r.db.WithContext(ctx).Model(&models.ProductVariant{}).
		Where("id = ?", id).
		Update("is_publicly_visible", visible).Error
}

func (r *repository) UpsertTaxRateVersion(ctx context.Context, data TaxRateVersionEventData) error {
	rate := models.TaxRate{
		ID:                    data.TaxRateID,
		CurrentVersionID:      data.ID,
		CurrentRate:           data.Rate,
		CurrentVersionOrdinal: data.Version,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_version_id", "current_rate", "current_version_ordinal"}),
		}).
		Create(&rate).Error
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindProductVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var variants []models.ProductVariant
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&variants).Error
	return variants, err
}

func (r *repository) FindTaxRates(ctx context.Context, ids []uuid.UUID) ([]models.TaxRate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rates []models.TaxRate
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rates).Error
	return rates, err
}

func (r *repository) CountCoupons(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Coupon{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *repository) CountShipmentMethods(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ShipmentMethod{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}
