package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/commercemesh/order-service/api/responses"
	"github.com/commercemesh/order-service/internal/compensation"
	"github.com/commercemesh/order-service/internal/projection"
	"github.com/commercemesh/order-service/pkg/broker"
	pkgerrors "github.com/commercemesh/order-service/pkg/errors"
	"github.com/commercemesh/order-service/pkg/logger"
	"github.com/commercemesh/order-service/pkg/metrics"
)

// Event delivery routes. Each route serves one or more topics; the envelope's
// topic field selects the handler.
const (
	RouteIDCreation                   = "/on-id-creation-event"
	RouteProductVariantVersionCreated = "/on-product-variant-version-creation-event"
	RouteProductVariantUpdated        = "/on-product-variant-updated-event"
	RouteTaxRateVersionCreated        = "/on-tax-rate-version-creation-event"
	RouteUserAddressCreated           = "/on-user-address-creation-event"
	RouteUserAddressArchived          = "/on-user-address-archived-event"
	RouteShipmentCreationFailed       = "/on-shipment-creation-failed-event"
)

// Subscriptions serves the subscription manifest enumerating every consumed
// topic and its delivery route.
func Subscriptions(pubSubName string) http.HandlerFunc {
	manifest := []broker.Subscription{
		{PubSubName: pubSubName, Topic: projection.TopicUserCreated, Route: RouteIDCreation},
		{PubSubName: pubSubName, Topic: projection.TopicCouponCreated, Route: RouteIDCreation},
		{PubSubName: pubSubName, Topic: projection.TopicShipmentMethodCreated, Route: RouteIDCreation},
		{PubSubName: pubSubName, Topic: projection.TopicProductVariantVersionCreated, Route: RouteProductVariantVersionCreated},
		{PubSubName: pubSubName, Topic: projection.TopicProductVariantUpdated, Route: RouteProductVariantUpdated},
		{PubSubName: pubSubName, Topic: projection.TopicTaxRateVersionCreated, Route: RouteTaxRateVersionCreated},
		{PubSubName: pubSubName, Topic: projection.TopicUserAddressCreated, Route: RouteUserAddressCreated},
		{PubSubName: pubSubName, Topic: projection.TopicUserAddressArchived, Route: RouteUserAddressArchived},
		{PubSubName: pubSubName, Topic: projection.TopicShipmentCreationFailed, Route: RouteShipmentCreationFailed},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(manifest)
	}
}

// EventHandler serves the inbound event delivery routes.
type EventHandler struct {
	projection projection.Service
	comp       compensation.Service
	logg       *logger.Logger
	metrics    *metrics.EventMetrics
}

// NewEventHandler wires the inbound event routes to the projection and
// compensation services.
func NewEventHandler(projSvc projection.Service, compSvc compensation.Service, logg *logger.Logger, m *metrics.EventMetrics) (*EventHandler, error) {
	if projSvc == nil {
		return nil, fmt.Errorf("projection service required")
	}
	if compSvc == nil {
		return nil, fmt.Errorf("compensation service required")
	}
	return &EventHandler{projection: projSvc, comp: compSvc, logg: logg, metrics: m}, nil
}

// handle decodes the delivery envelope, dispatches on the topic, and replies
// with the broker ack. Any error becomes a non-2xx reply so the broker
// redelivers.
func (h *EventHandler) handle(w http.ResponseWriter, r *http.Request, dispatch func(env broker.EventEnvelope) error) {
	var env broker.EventEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		responses.WriteError(r.Context(), h.logg, w,
			pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode event envelope"))
		return
	}

	ctx := r.Context()
	if h.logg != nil {
		ctx = h.logg.WithTopic(ctx, env.Topic)
		r = r.WithContext(ctx)
	}

	if err := dispatch(env); err != nil {
		h.metrics.IncFailed(env.Topic)
		responses.WriteError(ctx, h.logg, w, err)
		return
	}

	h.metrics.IncProcessed(env.Topic)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(broker.Ack{Status: 0})
}

func unknownTopic(route, topic string) error {
	return pkgerrors.New(pkgerrors.CodeInternal,
		fmt.Sprintf("route %s cannot handle topic %q", route, topic))
}

// OnIDCreation handles the uuid-only creation topics.
func (h *EventHandler) OnIDCreation(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(env broker.EventEnvelope) error {
		var data projection.IDEventData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode event data")
		}
		switch env.Topic {
		case projection.TopicUserCreated:
			return h.projection.HandleUserCreated(r.Context(), data)
		case projection.TopicCouponCreated:
			return h.projection.HandleCouponCreated(r.Context(), data)
		case projection.TopicShipmentMethodCreated:
			return h.projection.HandleShipmentMethodCreated(r.Context(), data)
		}
		return unknownTopic(RouteIDCreation, env.Topic)
	})
}

// OnProductVariantVersionCreated handles current-version rollovers.
func (h *EventHandler) OnProductVariantVersionCreated(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(env broker.EventEnvelope) error {
		if env.Topic != projection.TopicProductVariantVersionCreated {
			return unknownTopic(RouteProductVariantVersionCreated, env.Topic)
		}
		var data projection.ProductVariantVersionEventData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode event data")
		}
		return h.projection.HandleProductVariantVersionCreated(r.Context(), data)
	})
}

// OnProductVariantUpdated handles visibility changes.
func (h *EventHandler) OnProductVariantUpdated(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(env broker.EventEnvelope) error {
		if env.Topic != projection.TopicProductVariantUpdated {
			return unknownTopic(RouteProductVariantUpdated, env.Topic)
		}
		var data projection.ProductVariantUpdatedEventData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode event data")
		}
		return h.projection.HandleProductVariantUpdated(r.Context(), data)
	})
}

// OnTaxRateVersionCreated handles tax-rate current-version rollovers.
func (h *EventHandler) OnTaxRateVersionCreated(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(env broker.EventEnvelope) error {
		if env.Topic != projection.TopicTaxRateVersionCreated {
			return unknownTopic(RouteTaxRateVersionCreated, env.Topic)
		}
		var data projection.TaxRateVersionEventData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode event data")
		}
		return h.projection.HandleTaxRateVersionCreated(r.Context(), data)
	})
}

// OnUserAddressCreated appends an address to the user's list.
func (h *EventHandler) OnUserAddressCreated(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(env broker.EventEnvelope) error {
		if env.Topic != projection.TopicUserAddressCreated {
			return unknownTopic(RouteUserAddressCreated, env.Topic)
		}
		var data projection.UserAddressEventData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode event data")
		}
		return h.projection.HandleUserAddressCreated(r.Context(), data)
	})
}

// OnUserAddressArchived removes an address from the user's list.
func (h *EventHandler) OnUserAddressArchived(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(env broker.EventEnvelope) error {
		if env.Topic != projection.TopicUserAddressArchived {
			return unknownTopic(RouteUserAddressArchived, env.Topic)
		}
		var data projection.UserAddressEventData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode event data")
		}
		return h.projection.HandleUserAddressArchived(r.Context(), data)
	})
}

// OnShipmentCreationFailed records a compensation for the failed items.
func (h *EventHandler) OnShipmentCreationFailed(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, func(env broker.EventEnvelope) error {
		if env.Topic != projection.TopicShipmentCreationFailed {
			return unknownTopic(RouteShipmentCreationFailed, env.Topic)
		}
		var data projection.ShipmentFailedEventData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode event data")
		}
		if err := h.comp.HandleShipmentFailure(r.Context(), data); err != nil {
			return err
		}
		h.metrics.IncLifecycle("compensated")
		return nil
	})
}
