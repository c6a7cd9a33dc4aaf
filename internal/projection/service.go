package projection

import (
	"context"
	"fmt"

	pkgerrors "github.com/commercemesh/order-service/pkg/errors"
	"github.com/commercemesh/order-service/pkg/logger"
)

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the projection service with the required dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("projection repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) HandleUserCreated(ctx context.Context, data IDEventData) error {
	if err := s.repo.EnsureUser(ctx, data.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "project user")
	}
	return nil
}

func (s *service) HandleCouponCreated(ctx context.Context, data IDEventData) error {
	if err := s.repo.EnsureCoupon(ctx, data.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "project coupon")
	}
	return nil
}

func (s *service) HandleShipmentMethodCreated(ctx context.Context, data IDEventData) error {
	if err := s.repo.EnsureShipmentMethod(ctx, data.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "project shipment method")
	}
	return nil
}

func (s *service) HandleUserAddressCreated(ctx context.Context, data UserAddressEventData) error {
	if err := s.repo.AppendUserAddress(ctx, data.UserID, data.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append user address")
	}
	return nil
}

func (s *service) HandleUserAddressArchived(ctx context.Context, data UserAddressEventData) error {
	if err := s.repo.RemoveUserAddress(ctx, data.UserID, data.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove user address")
	}
	return nil
}

func (s *service) HandleProductVariantVersionCreated(ctx context.Context, data ProductVariantVersionEventData) error {
	if err := s.repo.UpsertProductVariantVersion(ctx, data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "roll over product variant version")
	}
	return nil
}

func (s *service) HandleProductVariantUpdated(ctx context.Context, data ProductVariantUpdatedEventData) error {
	visible, err := data.Visibility()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse product variant visibility")
	}
	if err := s.repo.SetProductVariantVisibility(ctx, data.ID, visible); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product variant visibility")
	}
	return nil
}

func (s *service) HandleTaxRateVersionCreated(ctx context.Context, data TaxRateVersionEventData) error {
	if err := s.repo.UpsertTaxRateVersion(ctx, data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "roll over tax rate version")
	}
	return nil
}
