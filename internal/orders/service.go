package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercemesh/order-service/pkg/auth"
	"github.com/commercemesh/order-service/pkg/db/models"
	"github.com/commercemesh/order-service/pkg/enums"
	pkgerrors "github.com/commercemesh/order-service/pkg/errors"
	"github.com/commercemesh/order-service/pkg/logger"
	"github.com/commercemesh/order-service/pkg/outbox"
	"github.com/commercemesh/order-service/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo           Repository
	projection     ProjectionReader
	foreign        ForeignDataClient
	tx             txRunner
	outbox         outboxPublisher
	pendingTimeout time.Duration
	logg           *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, projection ProjectionReader, foreign ForeignDataClient, tx txRunner, outboxSvc outboxPublisher, pendingTimeout time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if projection == nil {
		return nil, fmt.Errorf("projection reader required")
	}
	if foreign == nil {
		return nil, fmt.Errorf("foreign data client required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if pendingTimeout <= 0 {
		return nil, fmt.Errorf("pending timeout must be positive")
	}
	return &service{
		repo:           repo,
		projection:     projection,
		foreign:        foreign,
		tx:             tx,
		outbox:         outboxSvc,
		pendingTimeout: pendingTimeout,
		logg:           logg,
	}, nil
}

// CreateOrder assembles and persists a pending order from the caller's cart.
func (s *service) CreateOrder(ctx context.Context, identity *auth.Identity, input CreateOrderInput) (*OrderDTO, error) {
	order, err := s.assemble(ctx, identity, input)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order")
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, "order created")
	}

	dto := DTOFromModel(order)
	return &dto, nil
}

// PlaceOrder transitions a pending order to placed when the caller is in time,
// otherwise rejects it. The placement and the order-created event commit in
// one transaction.
func (s *service) PlaceOrder(ctx context.Context, identity *auth.Identity, input PlaceOrderInput) (*OrderDTO, error) {
	order, err := s.loadOwnedOrder(ctx, identity, input.ID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order %s is %s and cannot be placed", order.ID, order.Status))
	}

	now := time.Now().UTC()
	deadline := order.CreatedAt.Add(s.pendingTimeout)
	if now.After(deadline) {
		return nil, s.rejectExpired(ctx, order)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		placed, err := s.repo.WithTx(tx).MarkPlaced(ctx, order.ID, now, input.PaymentAuthorization)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "placing order")
		}
		if !placed {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order %s is no longer pending", order.ID))
		}

		order.Status = enums.OrderStatusPlaced
		order.PlacedAt = &now
		if input.PaymentAuthorization != nil {
			order.PaymentAuthorization = input.PaymentAuthorization
		}

		// Guarded enqueue: a placement retry must not queue the order twice.
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: identity.ID},
			Data:          DTOFromModel(order),
			Version:       1,
			OccurredAt:    now,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, "order placed")
	}

	dto := DTOFromModel(order)
	return &dto, nil
}

// rejectExpired sweeps a pending order past its window to rejected and
// reports the timeout. The rejection reason intentionally stays unset.
func (s *service) rejectExpired(ctx context.Context, order *models.Order) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).MarkRejected(ctx, order.ID)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rejecting expired order")
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, "order rejected on timeout")
	}
	return pkgerrors.New(pkgerrors.CodeOrderTimeout,
		fmt.Sprintf("order %s was not placed within the pending window", order.ID))
}

// GetOrder returns the caller's order by id.
func (s *service) GetOrder(ctx context.Context, identity *auth.Identity, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOwnedOrder(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	dto := DTOFromModel(order)
	return &dto, nil
}

// GetOrderItem returns a single order item; ownership is checked against the
// containing order.
func (s *service) GetOrderItem(ctx context.Context, identity *auth.Identity, id uuid.UUID) (*OrderItemDTO, error) {
	item, err := s.repo.FindOrderItem(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order item %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order item")
	}

	if _, err := s.loadOwnedOrder(ctx, identity, item.OrderID); err != nil {
		return nil, err
	}

	dto := ItemDTOFromModel(*item)
	return &dto, nil
}

// ListUserOrders returns one page of the user's orders.
func (s *service) ListUserOrders(ctx context.Context, identity *auth.Identity, userID uuid.UUID, params ListParams) (*OrderListDTO, error) {
	if err := identity.EnsureOwner(userID); err != nil {
		return nil, err
	}

	field, err := enums.ParseOrderSortField(params.OrderBy)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing order by")
	}
	direction, err := enums.ParseOrderDirection(params.Direction)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing direction")
	}

	pageParams := pagination.Params{First: params.First, Skip: params.Skip}.Normalize()
	orderBy := pagination.OrderBy{Field: field, Direction: direction}

	orders, total, err := s.repo.ListUserOrders(ctx, userID, pageParams, orderBy)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	dtos := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, DTOFromModel(&orders[i]))
	}
	return &OrderListDTO{
		Orders:      dtos,
		TotalCount:  total,
		HasNextPage: int64(pageParams.Skip+len(orders)) < total,
	}, nil
}

// loadOwnedOrder loads an order and enforces the caller owns it.
func (s *service) loadOwnedOrder(ctx context.Context, identity *auth.Identity, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if err := identity.EnsureOwner(order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}
