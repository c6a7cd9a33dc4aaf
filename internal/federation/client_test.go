package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercemesh/order-service/pkg/auth"
	"github.com/commercemesh/order-service/pkg/config"
	pkgerrors "github.com/commercemesh/order-service/pkg/errors"
)

type invokeCall struct {
	appID   string
	method  string
	body    []byte
	headers map[string]string
}

type stubInvoker struct {
	response []byte
	err      error
	calls    []invokeCall
}

func (s *stubInvoker) Invoke(ctx context.Context, appID, method string, body []byte, headers map[string]string) ([]byte, error) {
	s.calls = append(s.calls, invokeCall{appID: appID, method: method, body: body, headers: headers})
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func testBrokerConfig() config.BrokerConfig {
	return config.BrokerConfig{
		CartAppID:      "shoppingcart",
		InventoryAppID: "inventory",
		DiscountAppID:  "discount",
		ShipmentAppID:  "shipment",
	}
}

func graphqlData(t *testing.T, data string) []byte {
	t.Helper()
	return []byte(fmt.Sprintf(`{"data":%s}`, data))
}

func TestFetchCartParsesItemsAndForwardsIdentity(t *testing.T) {
	itemID := uuid.New()
	variantID := uuid.New()
	userID := uuid.New()

	invoker := &stubInvoker{response: graphqlData(t, fmt.Sprintf(`{
		"_entities": [{
			"shoppingcart": {
				"shoppingcartItems": {
					"nodes": [{
						"id": %q,
						"count": 3,
						"productVariant": {"id": %q}
					}]
				}
			}
		}]
	}`, itemID, variantID))}

	client, err := NewClient(invoker, testBrokerConfig())
	require.NoError(t, err)

	identity := &auth.Identity{ID: userID, Raw: `{"id":"` + userID.String() + `"}`}
	items, err := client.FetchCart(context.Background(), identity, userID)
	require.NoError(t, err)

	require.Len(t, items, 1)
	item, ok := items[itemID]
	require.True(t, ok)
	assert.Equal(t, variantID, item.ProductVariantID)
	assert.Equal(t, uint64(3), item.Count)

	require.Len(t, invoker.calls, 1)
	assert.Equal(t, "shoppingcart", invoker.calls[0].appID)
	assert.Equal(t, "graphql", invoker.calls[0].method)
	assert.Equal(t, identity.Raw, invoker.calls[0].headers[auth.HeaderName])
}

func TestFetchCartNoUserEntity(t *testing.T) {
	invoker := &stubInvoker{response: graphqlData(t, `{"_entities": []}`)}
	client, err := NewClient(invoker, testBrokerConfig())
	require.NoError(t, err)

	_, err = client.FetchCart(context.Background(), nil, uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestFetchUnreservedCounts(t *testing.T) {
	variantA := uuid.New()
	variantB := uuid.New()

	invoker := &stubInvoker{response: graphqlData(t, fmt.Sprintf(`{
		"_entities": [
			{"id": %q, "productItems": {"totalCount": 5}},
			{"id": %q, "productItems": {"totalCount": 0}}
		]
	}`, variantA, variantB))}

	client, err := NewClient(invoker, testBrokerConfig())
	require.NoError(t, err)

	counts, err := client.FetchUnreservedCounts(context.Background(), []uuid.UUID{variantA, variantB})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), counts[variantA])
	assert.Equal(t, uint64(0), counts[variantB])
	assert.Equal(t, "inventory", invoker.calls[0].appID)
}

func TestFetchDiscountsRequiresEveryVariant(t *testing.T) {
	variantA := uuid.New()
	variantB := uuid.New()

	invoker := &stubInvoker{response: graphqlData(t, fmt.Sprintf(`{
		"findApplicableDiscounts": [
			{"productVariantId": %q, "discounts": [{"id": %q, "discount": 0.9}]}
		]
	}`, variantA, uuid.New()))}

	client, err := NewClient(invoker, testBrokerConfig())
	require.NoError(t, err)

	input := DiscountQueryInput{
		UserID:      uuid.New(),
		OrderAmount: 3000,
		ProductVariants: []DiscountVariantInput{
			{ProductVariantID: variantA, Count: 3},
			{ProductVariantID: variantB, Count: 1},
		},
	}

	_, err = client.FetchDiscounts(context.Background(), nil, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), variantB.String())
}

func TestFetchDiscountsParsesFactors(t *testing.T) {
	variantID := uuid.New()
	discountID := uuid.New()

	invoker := &stubInvoker{response: graphqlData(t, fmt.Sprintf(`{
		"findApplicableDiscounts": [
			{"productVariantId": %q, "discounts": [{"id": %q, "discount": 0.5}]}
		]
	}`, variantID, discountID))}

	client, err := NewClient(invoker, testBrokerConfig())
	require.NoError(t, err)

	input := DiscountQueryInput{
		UserID:          uuid.New(),
		OrderAmount:     1000,
		ProductVariants: []DiscountVariantInput{{ProductVariantID: variantID, Count: 1}},
	}

	discounts, err := client.FetchDiscounts(context.Background(), nil, input)
	require.NoError(t, err)
	require.Len(t, discounts[variantID], 1)
	assert.Equal(t, discountID, discounts[variantID][0].ID)
	assert.Equal(t, 0.5, discounts[variantID][0].Factor)
}

func TestFetchShipmentFees(t *testing.T) {
	invoker := &stubInvoker{response: graphqlData(t, `{"calculateShipmentFees": 250}`)}
	client, err := NewClient(invoker, testBrokerConfig())
	require.NoError(t, err)

	fee, err := client.FetchShipmentFees(context.Background(), []ShipmentFeeItem{
		{ProductVariantVersionID: uuid.New(), Quantity: 2, ShipmentMethodID: uuid.New()},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(250), fee)

	var req struct {
		Variables map[string]json.RawMessage `json:"variables"`
	}
	require.NoError(t, json.Unmarshal(invoker.calls[0].body, &req))
	assert.Contains(t, string(req.Variables["calculateShipmentFeesInput"]), "items")
}

func TestQuerySurfacesGraphQLErrors(t *testing.T) {
	invoker := &stubInvoker{response: []byte(`{"errors":[{"message":"user is unknown"}]}`)}
	client, err := NewClient(invoker, testBrokerConfig())
	require.NoError(t, err)

	_, err = client.FetchCart(context.Background(), nil, uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user is unknown")
}

func TestQueryRejectsEmptyData(t *testing.T) {
	invoker := &stubInvoker{response: []byte(`{"data":null}`)}
	client, err := NewClient(invoker, testBrokerConfig())
	require.NoError(t, err)

	_, err = client.FetchUnreservedCounts(context.Background(), []uuid.UUID{uuid.New()})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}
