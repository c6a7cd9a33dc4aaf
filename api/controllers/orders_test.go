package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/commercemesh/order-service/api/middleware"
	"github.com/commercemesh/order-service/internal/orders"
	"github.com/commercemesh/order-service/pkg/auth"
	"github.com/commercemesh/order-service/pkg/enums"
	pkgerrors "github.com/commercemesh/order-service/pkg/errors"
)

type stubOrderService struct {
	order *orders.OrderDTO
	item  *orders.OrderItemDTO
	list  *orders.OrderListDTO
	err   error

	createInput orders.CreateOrderInput
	placeInput  orders.PlaceOrderInput
	listUserID  uuid.UUID
	listParams  orders.ListParams
}

func (s *stubOrderService) CreateOrder(ctx context.Context, identity *auth.Identity, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	s.createInput = input
	return s.order, s.err
}

func (s *stubOrderService) PlaceOrder(ctx context.Context, identity *auth.Identity, input orders.PlaceOrderInput) (*orders.OrderDTO, error) {
	s.placeInput = input
	return s.order, s.err
}

func (s *stubOrderService) GetOrder(ctx context.Context, identity *auth.Identity, id uuid.UUID) (*orders.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrderService) GetOrderItem(ctx context.Context, identity *auth.Identity, id uuid.UUID) (*orders.OrderItemDTO, error) {
	return s.item, s.err
}

func (s *stubOrderService) ListUserOrders(ctx context.Context, identity *auth.Identity, userID uuid.UUID, params orders.ListParams) (*orders.OrderListDTO, error) {
	s.listUserID = userID
	s.listParams = params
	return s.list, s.err
}

func withTestIdentity(req *http.Request, userID uuid.UUID) *http.Request {
	ident := &auth.Identity{ID: userID, Roles: []string{auth.RoleBuyer}}
	return req.WithContext(middleware.WithIdentity(req.Context(), ident))
}

func TestCreateOrderSuccess(t *testing.T) {
	userID := uuid.New()
	created := &orders.OrderDTO{ID: uuid.New(), UserID: userID, OrderStatus: enums.OrderStatusPending}
	svc := &stubOrderService{order: created}

	body := map[string]any{
		"userId": userID.String(),
		"orderItemInputs": []map[string]any{
			{
				"shoppingCartItemId": uuid.New().String(),
				"shipmentMethodId":   uuid.New().String(),
			},
		},
		"shipmentAddressId":    uuid.New().String(),
		"invoiceAddressId":     uuid.New().String(),
		"paymentInformationId": uuid.New().String(),
	}
	payload, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(payload))
	req = withTestIdentity(req, userID)
	resp := httptest.NewRecorder()
	CreateOrder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data orders.OrderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != created.ID {
		t.Fatalf("unexpected order id: %s", envelope.Data.ID)
	}
	if svc.createInput.UserID != userID {
		t.Fatalf("input user id not forwarded")
	}
}

func TestCreateOrderRejectsMissingIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte(`{}`)))
	resp := httptest.NewRecorder()
	CreateOrder(&stubOrderService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCreateOrderRejectsInvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte(`{"userId":""}`)))
	req = withTestIdentity(req, uuid.New())
	resp := httptest.NewRecorder()
	CreateOrder(&stubOrderService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func newOrderRouter(svc orders.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/orders/{orderId}/place", PlaceOrder(svc, nil))
	r.Get("/api/v1/orders/{orderId}", GetOrder(svc, nil))
	r.Get("/api/v1/orders/items/{itemId}", GetOrderItem(svc, nil))
	r.Get("/api/v1/orders", ListOrders(svc, nil))
	return r
}

func TestPlaceOrderWithoutBody(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	placed := &orders.OrderDTO{ID: orderID, UserID: userID, OrderStatus: enums.OrderStatusPlaced}
	svc := &stubOrderService{order: placed}
	router := newOrderRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/place", nil)
	req = withTestIdentity(req, userID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.placeInput.ID != orderID {
		t.Fatalf("order id not taken from path")
	}
	if svc.placeInput.PaymentAuthorization != nil {
		t.Fatalf("expected no payment authorization")
	}
}

func TestPlaceOrderForwardsPaymentAuthorization(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrderService{order: &orders.OrderDTO{ID: orderID, UserID: userID, OrderStatus: enums.OrderStatusPlaced}}
	router := newOrderRouter(svc)

	payload := []byte(`{"paymentAuthorization":{"cvc":"123"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/place", bytes.NewReader(payload))
	req = withTestIdentity(req, userID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.placeInput.PaymentAuthorization == nil || svc.placeInput.PaymentAuthorization.CVC == nil {
		t.Fatalf("payment authorization not forwarded")
	}
	if *svc.placeInput.PaymentAuthorization.CVC != "123" {
		t.Fatalf("unexpected cvc value")
	}
}

func TestPlaceOrderInvalidUUID(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/not-a-uuid/place", nil)
	req = withTestIdentity(req, uuid.New())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetOrderPropagatesServiceError(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	router := newOrderRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.New().String(), nil)
	req = withTestIdentity(req, uuid.New())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestGetOrderItemSuccess(t *testing.T) {
	itemID := uuid.New()
	svc := &stubOrderService{item: &orders.OrderItemDTO{ID: itemID, Count: 3}}
	router := newOrderRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/items/"+itemID.String(), nil)
	req = withTestIdentity(req, uuid.New())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data orders.OrderItemDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != itemID || envelope.Data.Count != 3 {
		t.Fatalf("unexpected item payload: %+v", envelope.Data)
	}
}

func TestListOrdersDefaultsToCaller(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrderService{list: &orders.OrderListDTO{Orders: []orders.OrderDTO{}, TotalCount: 0}}
	router := newOrderRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?first=10&skip=5&orderBy=CREATED_AT&direction=DESC", nil)
	req = withTestIdentity(req, userID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.listUserID != userID {
		t.Fatalf("expected listing scoped to caller")
	}
	if svc.listParams.First != 10 || svc.listParams.Skip != 5 {
		t.Fatalf("pagination params not forwarded: %+v", svc.listParams)
	}
	if svc.listParams.OrderBy != "CREATED_AT" || svc.listParams.Direction != "DESC" {
		t.Fatalf("ordering params not forwarded: %+v", svc.listParams)
	}
}

func TestListOrdersRejectsBadUserID(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?userId=nope", nil)
	req = withTestIdentity(req, uuid.New())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListOrdersRejectsOutOfRangeFirst(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?first=5000", nil)
	req = withTestIdentity(req, uuid.New())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
