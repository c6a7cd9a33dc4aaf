package projection

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbtypes "github.com/commercemesh/order-service/pkg/db/types"
)

func setupProjectionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  user_address_ids TEXT NOT NULL DEFAULT '{}'
);`
	productVariants := `
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  is_publicly_visible INTEGER NOT NULL DEFAULT 1,
  current_version_id TEXT NOT NULL,
  current_retail_price INTEGER NOT NULL,
  current_tax_rate_id TEXT NOT NULL
);`
	taxRates := `
CREATE TABLE IF NOT EXISTS tax_rates (
  id TEXT PRIMARY KEY,
  current_version_id TEXT NOT NULL,
  current_rate REAL NOT NULL,
  current_version_ordinal INTEGER NOT NULL
);`
	coupons := `
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY
);`
	shipmentMethods := `
CREATE TABLE IF NOT EXISTS shipment_methods (
  id TEXT PRIMARY KEY
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(productVariants).Error)
	require.NoError(t, db.Exec(taxRates).Error)
	require.NoError(t, db.Exec(coupons).Error)
	require.NoError(t, db.Exec(shipmentMethods).Error)
	return db
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	db := setupProjectionTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, repo.EnsureUser(ctx, userID))
	require.NoError(t, repo.AppendUserAddress(ctx, userID, uuid.New()))

	// Redelivery must not reset the accumulated addresses.
	require.NoError(t, repo.EnsureUser(ctx, userID))

	user, err := repo.FindUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, user.UserAddressIDs, 1)
}

func TestAppendUserAddressDeduplicates(t *testing.T) {
	db := setupProjectionTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	addressID := uuid.New()

	require.NoError(t, repo.EnsureUser(ctx, userID))
	require.NoError(t, repo.AppendUserAddress(ctx, userID, addressID))
	require.NoError(t, repo.AppendUserAddress(ctx, userID, addressID))

	user, err := repo.FindUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{addressID}, []uuid.UUID(user.UserAddressIDs))
}

func TestAppendUserAddressUnknownUserIsNoop(t *testing.T) {
	db := setupProjectionTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.AppendUserAddress(context.Background(), uuid.New(), uuid.New()))
}

func TestRemoveUserAddress(t *testing.T) {
	db := setupProjectionTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	keep := uuid.New()
	drop := uuid.New()

	require.NoError(t, repo.EnsureUser(ctx, userID))
	require.NoError(t, repo.AppendUserAddress(ctx, userID, keep))
	require.NoError(t, repo.AppendUserAddress(ctx, userID, drop))

	require.NoError(t, repo.RemoveUserAddress(ctx, userID, drop))
	// Redelivery of the archive event is a no-op.
	require.NoError(t, repo.RemoveUserAddress(ctx, userID, drop))

	user, err := repo.FindUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{keep}, []uuid.UUID(user.UserAddressIDs))
}

func TestAppendUserAddressSurvivesConcurrentWrite(t *testing.T) {
	db := setupProjectionTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, repo.EnsureUser(ctx, userID))

	// Slip a competing append between the read and the guarded update the
	// first time the user row is loaded.
	interleaved := false
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("competing_append", func(tx *gorm.DB) {
		if interleaved || tx.Statement.Table != "users" {
			return
		}
		interleaved = true
		require.NoError(t, db.Session(&gorm.Session{NewDB: true}).Exec(
			"UPDATE users SET user_address_ids = ? WHERE id = ?",
			dbtypes.UUIDArray{first}, userID.String()).Error)
	}))
	defer func() {
		require.NoError(t, db.Callback().Query().Remove("competing_append"))
	}()

	require.NoError(t, repo.AppendUserAddress(ctx, userID, second))

	user, err := repo.FindUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, []uuid.UUID(user.UserAddressIDs))
}

func TestUpsertProductVariantVersionRollsOver(t *testing.T) {
	db := setupProjectionTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	variantID := uuid.New()

	first := ProductVariantVersionEventData{
		ID:               uuid.New(),
		RetailPrice:      1000,
		TaxRateID:        uuid.New(),
		ProductVariantID: variantID,
	}
	require.NoError(t, repo.UpsertProductVariantVersion(ctx, first))
	require.NoError(t, repo.SetProductVariantVisibility(ctx, variantID, false))

	second := ProductVariantVersionEventData{
		ID:               uuid.New(),
		RetailPrice:      1250,
		TaxRateID:        uuid.New(),
		ProductVariantID: variantID,
	}
	require.NoError(t, repo.UpsertProductVariantVersion(ctx, second))

	variants, err := repo.FindProductVariants(ctx, []uuid.UUID{variantID})
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, second.ID, variants[0].CurrentVersionID)
	assert.Equal(t, uint64(1250), variants[0].CurrentRetailPrice)
	assert.Equal(t, second.TaxRateID, variants[0].CurrentTaxRateID)
	// Rollover leaves the separately managed visibility flag alone.
	assert.False(t, variants[0].IsPubliclyVisible)
}

func TestSetProductVariantVisibilityUnknownVariantIsNoop(t *testing.T) {
	db := setupProjectionTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.SetProductVariantVisibility(context.Background(), uuid.New(), false))
}

func TestUpsertTaxRateVersionRollsOver(t *testing.T) {
	db := setupProjectionTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	taxRateID := uuid.New()

	require.NoError(t, repo.UpsertTaxRateVersion(ctx, TaxRateVersionEventData{
		ID:        uuid.New(),
		Rate:      0.19,
		Version:   1,
		TaxRateID: taxRateID,
	}))

	latest := TaxRateVersionEventData{
		ID:        uuid.New(),
		Rate:      0.21,
		Version:   2,
		TaxRateID: taxRateID,
	}
	require.NoError(t, repo.UpsertTaxRateVersion(ctx, latest))

	rates, err := repo.FindTaxRates(ctx, []uuid.UUID{taxRateID})
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, latest.ID, rates[0].CurrentVersionID)
	assert.Equal(t, 0.21, rates[0].CurrentRate)
	assert.Equal(t, uint32(2), rates[0].CurrentVersionOrdinal)
}

func TestCountCouponsAndShipmentMethods(t *testing.T) {
	db := setupProjectionTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	couponID := uuid.New()
	methodID := uuid.New()
	require.NoError(t, repo.EnsureCoupon(ctx, couponID))
	require.NoError(t, repo.EnsureCoupon(ctx, couponID))
	require.NoError(t, repo.EnsureShipmentMethod(ctx, methodID))

	count, err := repo.CountCoupons(ctx, []uuid.UUID{couponID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountShipmentMethods(ctx, []uuid.UUID{methodID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountCoupons(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.FindUser(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
