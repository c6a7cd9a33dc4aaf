package compensation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/commercemesh/order-service/internal/projection"
	"github.com/commercemesh/order-service/pkg/db"
	dbmodels "github.com/commercemesh/order-service/pkg/db/models"
	"github.com/commercemesh/order-service/pkg/enums"
	pkgerrors "github.com/commercemesh/order-service/pkg/errors"
	"github.com/commercemesh/order-service/pkg/logger"
	"github.com/commercemesh/order-service/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderReader interface {
	FindOrder(ctx context.Context, id uuid.UUID) (*dbmodels.Order, error)
	FindOrderItemsByIDs(ctx context.Context, orderID uuid.UUID, ids []uuid.UUID) ([]dbmodels.OrderItem, error)
}

// Service reacts to shipment creation failures by recording a compensation
// for the affected order items.
type Service interface {
	HandleShipmentFailure(ctx context.Context, data projection.ShipmentFailedEventData) error
}

type service struct {
	repo   Repository
	orders orderReader
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the compensation service with the required dependencies.
func NewService(repo Repository, orders orderReader, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("compensation repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:   repo,
		orders: orders,
		tx:     tx,
		outbox: outboxSvc,
		logg:   logg,
	}, nil
}

// HandleShipmentFailure records a compensation for the named order items and
// queues the compensation-created event. Items compensated before cause the
// whole event to be rejected; redelivery of the same failure is therefore a
// no-op beyond the error reply.
func (s *service) HandleShipmentFailure(ctx context.Context, data projection.ShipmentFailedEventData) error {
	order, err := s.orders.FindOrder(ctx, data.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The order may not be visible yet; a server error makes the
			// broker redeliver.
			return pkgerrors.New(pkgerrors.CodeInternal,
				fmt.Sprintf("order %s not found for compensation", data.OrderID))
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order for compensation")
	}

	items, err := s.orders.FindOrderItemsByIDs(ctx, order.ID, data.OrderItemIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order items for compensation")
	}

	var amount uint64
	compensationItems := make([]dbmodels.OrderCompensationItem, 0, len(items))
	compensationID := uuid.New()
	for _, item := range items {
		amount += item.CompensatableAmount
		compensationItems = append(compensationItems, dbmodels.OrderCompensationItem{
			ID:             uuid.New(),
			CompensationID: compensationID,
			OrderItemID:    item.ID,
		})
	}

	compensation := &dbmodels.OrderCompensation{
		ID:                 compensationID,
		OrderID:            order.ID,
		AmountToCompensate: amount,
		TriggeredAt:        time.Now().UTC(),
		Items:              compensationItems,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateCompensation(ctx, compensation); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeAlreadyCompensated,
					fmt.Sprintf("order %s has items with a prior compensation", order.ID))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording compensation")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCompensationCreated,
			AggregateType: enums.AggregateOrderCompensation,
			AggregateID:   compensation.ID,
			Data: OrderCompensationDTO{
				ID:                 compensation.ID,
				AmountToCompensate: compensation.AmountToCompensate,
			},
			Version:    1,
			OccurredAt: compensation.TriggeredAt,
		})
	})
	if err != nil {
		return err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":        order.ID.String(),
			"compensation_id": compensation.ID.String(),
			"amount":          amount,
		})
		s.logg.Info(logCtx, "order compensation recorded")
	}
	return nil
}
