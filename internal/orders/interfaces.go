package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercemesh/order-service/pkg/db/models"
	"github.com/commercemesh/order-service/pkg/pagination"
	"github.com/commercemesh/order-service/pkg/types"

	"github.com/commercemesh/order-service/internal/federation"
	"github.com/commercemesh/order-service/pkg/auth"
)

// Repository defines persistence operations for the order aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	FindOrderItemsByIDs(ctx context.Context, orderID uuid.UUID, ids []uuid.UUID) ([]models.OrderItem, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, orderBy pagination.OrderBy) ([]models.Order, int64, error)
	MarkPlaced(ctx context.Context, orderID uuid.UUID, placedAt time.Time, authorization *types.PaymentAuthorization) (bool, error)
	MarkRejected(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// Service defines the caller-facing order operations.
type Service interface {
	CreateOrder(ctx context.Context, identity *auth.Identity, input CreateOrderInput) (*OrderDTO, error)
	PlaceOrder(ctx context.Context, identity *auth.Identity, input PlaceOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, identity *auth.Identity, id uuid.UUID) (*OrderDTO, error)
	GetOrderItem(ctx context.Context, identity *auth.Identity, id uuid.UUID) (*OrderItemDTO, error)
	ListUserOrders(ctx context.Context, identity *auth.Identity, userID uuid.UUID, params ListParams) (*OrderListDTO, error)
}

// ProjectionReader is the subset of the projection store order assembly
// depends on.
type ProjectionReader interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindProductVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error)
	FindTaxRates(ctx context.Context, ids []uuid.UUID) ([]models.TaxRate, error)
	CountCoupons(ctx context.Context, ids []uuid.UUID) (int64, error)
	CountShipmentMethods(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// ForeignDataClient issues the federated queries order assembly depends on.
type ForeignDataClient interface {
	FetchCart(ctx context.Context, identity *auth.Identity, userID uuid.UUID) (map[uuid.UUID]federation.CartItem, error)
	FetchUnreservedCounts(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]uint64, error)
	FetchDiscounts(ctx context.Context, identity *auth.Identity, input federation.DiscountQueryInput) (map[uuid.UUID][]federation.Discount, error)
	FetchShipmentFees(ctx context.Context, items []federation.ShipmentFeeItem) (uint64, error)
}
