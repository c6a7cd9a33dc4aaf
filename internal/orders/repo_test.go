package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/commercemesh/order-service/pkg/db/models"
	"github.com/commercemesh/order-service/pkg/enums"
	"github.com/commercemesh/order-service/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  rejection_reason TEXT,
  shipment_address_id TEXT NOT NULL,
  invoice_address_id TEXT NOT NULL,
  payment_information_id TEXT NOT NULL,
  payment_authorization TEXT,
  vat_number TEXT NOT NULL DEFAULT '',
  compensatable_order_amount INTEGER NOT NULL,
  created_at DATETIME NOT NULL,
  placed_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_variant_id TEXT NOT NULL,
  product_variant_version_id TEXT NOT NULL,
  tax_rate_version_id TEXT NOT NULL,
  shopping_cart_item_id TEXT NOT NULL,
  shipment_method_id TEXT NOT NULL,
  count INTEGER NOT NULL,
  compensatable_amount INTEGER NOT NULL,
  discount_ids TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME NOT NULL,
  UNIQUE(order_id, product_variant_id)
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func newTestOrder(userID uuid.UUID, amount uint64) *models.Order {
	orderID := uuid.New()
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Order{
		ID:                       orderID,
		UserID:                   userID,
		Status:                   enums.OrderStatusPending,
		ShipmentAddressID:        uuid.New(),
		InvoiceAddressID:         uuid.New(),
		PaymentInformationID:     uuid.New(),
		CompensatableOrderAmount: amount,
		Items: []models.OrderItem{
			{
				ID:                      uuid.New(),
				OrderID:                 orderID,
				ProductVariantID:        uuid.New(),
				ProductVariantVersionID: uuid.New(),
				TaxRateVersionID:        uuid.New(),
				ShoppingCartItemID:      uuid.New(),
				ShipmentMethodID:        uuid.New(),
				Count:                   1,
				CompensatableAmount:     amount,
				CreatedAt:               now,
			},
		},
		CreatedAt: now,
	}
}

func TestCreateAndFindOrderWithItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(uuid.New(), 1000)
	_, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.UserID, found.UserID)
	assert.Equal(t, enums.OrderStatusPending, found.Status)
	require.Len(t, found.Items, 1)
	assert.Equal(t, order.Items[0].ProductVariantID, found.Items[0].ProductVariantID)
	assert.Equal(t, uint64(1000), found.CompensatableOrderAmount)
}

func TestFindOrderItem(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(uuid.New(), 500)
	_, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	item, err := repo.FindOrderItem(ctx, order.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, item.OrderID)
	assert.Equal(t, uint64(500), item.CompensatableAmount)

	_, err = repo.FindOrderItem(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindOrderItemsByIDsScopesToOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(uuid.New(), 700)
	other := newTestOrder(uuid.New(), 900)
	_, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)
	_, err = repo.CreateOrder(ctx, other)
	require.NoError(t, err)

	items, err := repo.FindOrderItemsByIDs(ctx, order.ID, []uuid.UUID{order.Items[0].ID, other.Items[0].ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, order.Items[0].ID, items[0].ID)

	items, err = repo.FindOrderItemsByIDs(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListUserOrdersPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		order := newTestOrder(userID, uint64(100*(i+1)))
		order.CreatedAt = order.CreatedAt.Add(time.Duration(i) * time.Minute)
		_, err := repo.CreateOrder(ctx, order)
		require.NoError(t, err)
	}
	// An unrelated user's order must not leak into the listing.
	_, err := repo.CreateOrder(ctx, newTestOrder(uuid.New(), 999))
	require.NoError(t, err)

	orderBy := pagination.OrderBy{Field: enums.OrderSortFieldCreatedAt, Direction: enums.OrderDirectionDesc}
	page, total, err := repo.ListUserOrders(ctx, userID, pagination.Params{First: 2}, orderBy)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.True(t, !page[0].CreatedAt.Before(page[1].CreatedAt))

	rest, total, err := repo.ListUserOrders(ctx, userID, pagination.Params{First: 2, Skip: 2}, orderBy)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rest, 1)
}

func TestMarkPlacedOnlyOnce(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(uuid.New(), 100)
	_, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	placedAt := time.Now().UTC()
	placed, err := repo.MarkPlaced(ctx, order.ID, placedAt, nil)
	require.NoError(t, err)
	assert.True(t, placed)

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPlaced, found.Status)
	require.NotNil(t, found.PlacedAt)

	// A second attempt must not flip an already placed order.
	placed, err = repo.MarkPlaced(ctx, order.ID, time.Now().UTC(), nil)
	require.NoError(t, err)
	assert.False(t, placed)
}

func TestMarkRejectedLeavesReasonUnset(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(uuid.New(), 100)
	_, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	rejected, err := repo.MarkRejected(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, rejected)

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusRejected, found.Status)
	assert.Nil(t, found.RejectionReason)
	assert.Nil(t, found.PlacedAt)

	rejected, err = repo.MarkRejected(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, rejected)
}
