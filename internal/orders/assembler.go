package orders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/commercemesh/order-service/internal/federation"
	"github.com/commercemesh/order-service/pkg/auth"
	"github.com/commercemesh/order-service/pkg/db/models"
	dbtypes "github.com/commercemesh/order-service/pkg/db/types"
	"github.com/commercemesh/order-service/pkg/enums"
	pkgerrors "github.com/commercemesh/order-service/pkg/errors"
)

// assemblyLine carries the correlated per-variant data gathered during
// assembly before item construction.
type assemblyLine struct {
	input      OrderItemInput
	cartItem   federation.CartItem
	variant    models.ProductVariant
	taxVersion uuid.UUID
}

// assemble runs the full construction pipeline and returns the unsaved order
// aggregate. Nothing is written here; the caller persists the result.
func (s *service) assemble(ctx context.Context, identity *auth.Identity, input CreateOrderInput) (*models.Order, error) {
	if err := s.checkPreconditions(ctx, identity, input); err != nil {
		return nil, err
	}

	lines, err := s.resolveCartLines(ctx, identity, input)
	if err != nil {
		return nil, err
	}

	if err := s.resolveVariants(ctx, lines); err != nil {
		return nil, err
	}
	if err := s.resolveTaxRates(ctx, lines); err != nil {
		return nil, err
	}

	// The discount input amount is the undiscounted sum of retail prices.
	var orderAmount uint64
	for _, line := range lines {
		orderAmount += line.variant.CurrentRetailPrice * line.cartItem.Count
	}

	stock, discounts, err := s.fanOutForeignQueries(ctx, identity, input, lines, orderAmount)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		if stock[line.variant.ID] < line.cartItem.Count {
			return nil, pkgerrors.New(pkgerrors.CodeInventoryReservationFailed,
				fmt.Sprintf("insufficient unreserved stock for product variant %s", line.variant.ID))
		}
	}

	now := time.Now().UTC()
	orderID := uuid.New()
	items := make([]models.OrderItem, 0, len(lines))
	var total uint64
	for _, line := range lines {
		discountIDs, amount := compensatableAmount(line.variant.CurrentRetailPrice, discounts[line.variant.ID])
		items = append(items, models.OrderItem{
			ID:                      uuid.New(),
			OrderID:                 orderID,
			ProductVariantID:        line.variant.ID,
			ProductVariantVersionID: line.variant.CurrentVersionID,
			TaxRateVersionID:        line.taxVersion,
			ShoppingCartItemID:      line.cartItem.ShoppingCartItemID,
			ShipmentMethodID:        line.input.ShipmentMethodID,
			Count:                   line.cartItem.Count,
			CompensatableAmount:     amount,
			DiscountIDs:             dbtypes.UUIDArray(discountIDs),
			CreatedAt:               now,
		})
		total += amount
	}

	vatNumber := ""
	if input.VATNumber != nil {
		vatNumber = *input.VATNumber
	}

	return &models.Order{
		ID:                       orderID,
		UserID:                   input.UserID,
		Status:                   enums.OrderStatusPending,
		ShipmentAddressID:        input.ShipmentAddressID,
		InvoiceAddressID:         input.InvoiceAddressID,
		PaymentInformationID:     input.PaymentInformationID,
		VATNumber:                vatNumber,
		CompensatableOrderAmount: total,
		Items:                    items,
		CreatedAt:                now,
	}, nil
}

// checkPreconditions validates the referenced projection entities in a fixed
// order so callers get deterministic error messages.
func (s *service) checkPreconditions(ctx context.Context, identity *auth.Identity, input CreateOrderInput) error {
	if err := identity.EnsureOwner(input.UserID); err != nil {
		return err
	}
	if len(input.OrderItemInputs) == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidOrderData, "orders must contain at least one item")
	}

	user, err := s.projection.FindUser(ctx, input.UserID)
	if err != nil {
		if isNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeInvalidOrderData,
				fmt.Sprintf("user %s is not known", input.UserID))
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user projection")
	}

	var shipmentMethodIDs, couponIDs []uuid.UUID
	for _, item := range input.OrderItemInputs {
		shipmentMethodIDs = appendUnique(shipmentMethodIDs, item.ShipmentMethodID)
		for _, couponID := range item.CouponIDs {
			couponIDs = appendUnique(couponIDs, couponID)
		}
	}

	methodCount, err := s.projection.CountShipmentMethods(ctx, shipmentMethodIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading shipment methods")
	}
	if methodCount != int64(len(shipmentMethodIDs)) {
		return pkgerrors.New(pkgerrors.CodeInvalidOrderData, "one or more shipment methods are not known")
	}

	couponCount, err := s.projection.CountCoupons(ctx, couponIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupons")
	}
	if couponCount != int64(len(couponIDs)) {
		return pkgerrors.New(pkgerrors.CodeInvalidOrderData, "one or more coupons are not known")
	}

	if !containsID(user.UserAddressIDs, input.ShipmentAddressID) {
		return pkgerrors.New(pkgerrors.CodeInvalidOrderData,
			fmt.Sprintf("shipment address %s does not belong to user %s", input.ShipmentAddressID, input.UserID))
	}
	if !containsID(user.UserAddressIDs, input.InvoiceAddressID) {
		return pkgerrors.New(pkgerrors.CodeInvalidOrderData,
			fmt.Sprintf("invoice address %s does not belong to user %s", input.InvoiceAddressID, input.UserID))
	}
	return nil
}

// resolveCartLines matches every order item input against the user's current
// cart and keys the result by product variant.
func (s *service) resolveCartLines(ctx context.Context, identity *auth.Identity, input CreateOrderInput) ([]*assemblyLine, error) {
	cart, err := s.foreign.FetchCart(ctx, identity, input.UserID)
	if err != nil {
		return nil, err
	}

	lines := make([]*assemblyLine, 0, len(input.OrderItemInputs))
	seenVariants := make(map[uuid.UUID]struct{}, len(input.OrderItemInputs))
	for _, item := range input.OrderItemInputs {
		cartItem, ok := cart[item.ShoppingCartItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidOrderData,
				fmt.Sprintf("shopping cart item %s is not in the user's cart", item.ShoppingCartItemID))
		}
		if _, dup := seenVariants[cartItem.ProductVariantID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidOrderData,
				fmt.Sprintf("product variant %s appears more than once in the order", cartItem.ProductVariantID))
		}
		seenVariants[cartItem.ProductVariantID] = struct{}{}
		lines = append(lines, &assemblyLine{input: item, cartItem: cartItem})
	}
	return lines, nil
}

// resolveVariants loads the projected product variants and rejects lines whose
// variant is unknown or not publicly visible.
func (s *service) resolveVariants(ctx context.Context, lines []*assemblyLine) error {
	variantIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		variantIDs = append(variantIDs, line.cartItem.ProductVariantID)
	}

	variants, err := s.projection.FindProductVariants(ctx, variantIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product variants")
	}
	byID := make(map[uuid.UUID]models.ProductVariant, len(variants))
	for _, variant := range variants {
		byID[variant.ID] = variant
	}

	for _, line := range lines {
		variant, ok := byID[line.cartItem.ProductVariantID]
		if !ok || !variant.IsPubliclyVisible {
			return pkgerrors.New(pkgerrors.CodeInvalidOrderData,
				fmt.Sprintf("product variant %s is not available", line.cartItem.ProductVariantID))
		}
		line.variant = variant
	}
	return nil
}

// resolveTaxRates maps every line's tax rate id to the current tax rate
// version.
func (s *service) resolveTaxRates(ctx context.Context, lines []*assemblyLine) error {
	var taxRateIDs []uuid.UUID
	for _, line := range lines {
		taxRateIDs = appendUnique(taxRateIDs, line.variant.CurrentTaxRateID)
	}

	rates, err := s.projection.FindTaxRates(ctx, taxRateIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading tax rates")
	}
	versionByRate := make(map[uuid.UUID]uuid.UUID, len(rates))
	for _, rate := range rates {
		versionByRate[rate.ID] = rate.CurrentVersionID
	}

	for _, line := range lines {
		version, ok := versionByRate[line.variant.CurrentTaxRateID]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidOrderData,
				fmt.Sprintf("tax rate %s is not known", line.variant.CurrentTaxRateID))
		}
		line.taxVersion = version
	}
	return nil
}

// fanOutForeignQueries issues the inventory, discount, and shipment-fee
// queries concurrently. All three run to completion so every failing service
// is reported, not just the first.
func (s *service) fanOutForeignQueries(ctx context.Context, identity *auth.Identity, input CreateOrderInput, lines []*assemblyLine, orderAmount uint64) (map[uuid.UUID]uint64, map[uuid.UUID][]federation.Discount, error) {
	variantIDs := make([]uuid.UUID, 0, len(lines))
	discountInputs := make([]federation.DiscountVariantInput, 0, len(lines))
	feeItems := make([]federation.ShipmentFeeItem, 0, len(lines))
	for _, line := range lines {
		variantIDs = append(variantIDs, line.variant.ID)
		discountInputs = append(discountInputs, federation.DiscountVariantInput{
			ProductVariantID: line.variant.ID,
			Count:            line.cartItem.Count,
			CouponIDs:        line.input.CouponIDs,
		})
		feeItems = append(feeItems, federation.ShipmentFeeItem{
			ProductVariantVersionID: line.variant.CurrentVersionID,
			Quantity:                line.cartItem.Count,
			ShipmentMethodID:        line.input.ShipmentMethodID,
		})
	}

	var (
		stock       map[uuid.UUID]uint64
		discounts   map[uuid.UUID][]federation.Discount
		stockErr    error
		discountErr error
		feeErr      error
	)

	var group errgroup.Group
	group.Go(func() error {
		stock, stockErr = s.foreign.FetchUnreservedCounts(ctx, variantIDs)
		return nil
	})
	group.Go(func() error {
		discounts, discountErr = s.foreign.FetchDiscounts(ctx, identity, federation.DiscountQueryInput{
			UserID:          input.UserID,
			OrderAmount:     orderAmount,
			ProductVariants: discountInputs,
		})
		return nil
	})
	group.Go(func() error {
		// The aggregate fee is validated but intentionally not folded into
		// any amount.
		_, feeErr = s.foreign.FetchShipmentFees(ctx, feeItems)
		return nil
	})
	_ = group.Wait()

	if err := multierr.Combine(stockErr, discountErr, feeErr); err != nil {
		return nil, nil, err
	}
	return stock, discounts, nil
}

// compensatableAmount folds the discount factors over the retail price. The
// factors are deduplicated and applied in id order so the result does not
// depend on response ordering. The floored product is the refundable amount.
func compensatableAmount(retailPrice uint64, applicable []federation.Discount) ([]uuid.UUID, uint64) {
	unique := make([]federation.Discount, 0, len(applicable))
	seen := make(map[uuid.UUID]struct{}, len(applicable))
	for _, discount := range applicable {
		if _, ok := seen[discount.ID]; ok {
			continue
		}
		seen[discount.ID] = struct{}{}
		unique = append(unique, discount)
	}
	sort.Slice(unique, func(i, j int) bool {
		return bytes.Compare(unique[i].ID[:], unique[j].ID[:]) < 0
	})

	amount := decimal.NewFromUint64(retailPrice)
	ids := make([]uuid.UUID, 0, len(unique))
	for _, discount := range unique {
		ids = append(ids, discount.ID)
		amount = amount.Mul(decimal.NewFromFloat(discount.Factor))
	}
	return ids, amount.Floor().BigInt().Uint64()
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
