package federation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/commercemesh/order-service/pkg/auth"
	"github.com/commercemesh/order-service/pkg/broker"
	"github.com/commercemesh/order-service/pkg/config"
	pkgerrors "github.com/commercemesh/order-service/pkg/errors"
)

const graphqlMethod = "graphql"

// Client issues the typed federated queries order assembly depends on. Each
// call surfaces failures to the caller; no retries happen at this layer.
type Client struct {
	invoker broker.Invoker
	cfg     config.BrokerConfig
}

func NewClient(invoker broker.Invoker, cfg config.BrokerConfig) (*Client, error) {
	if invoker == nil {
		return nil, fmt.Errorf("invoker is required")
	}
	return &Client{invoker: invoker, cfg: cfg}, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

type entityRepresentation struct {
	Typename string `json:"__typename"`
	ID       string `json:"id"`
}

func (c *Client) query(ctx context.Context, appID, queryName, document string, variables map[string]any, identity *auth.Identity, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: document, Variables: variables})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("encode %s request", queryName))
	}

	var headers map[string]string
	if identity != nil {
		headers = map[string]string{auth.HeaderName: identity.Raw}
	}

	raw, err := c.invoker.Invoke(ctx, appID, graphqlMethod, body, headers)
	if err != nil {
		return err
	}

	var resp graphqlResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", queryName))
	}
	if len(resp.Errors) > 0 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s returned error: %s", queryName, resp.Errors[0].Message))
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("response data of %s is empty", queryName))
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s data", queryName))
	}
	return nil
}

// FetchCart returns the user's shopping-cart items keyed by shopping cart
// item id. The caller identity is forwarded to the cart service.
func (c *Client) FetchCart(ctx context.Context, identity *auth.Identity, userID uuid.UUID) (map[uuid.UUID]CartItem, error) {
	variables := map[string]any{
		"representations": []entityRepresentation{{Typename: "User", ID: userID.String()}},
	}

	var data struct {
		Entities []struct {
			ShoppingCart struct {
				ShoppingCartItems struct {
					Nodes []struct {
						ID             uuid.UUID `json:"id"`
						Count          uint64    `json:"count"`
						ProductVariant struct {
							ID uuid.UUID `json:"id"`
						} `json:"productVariant"`
					} `json:"nodes"`
				} `json:"shoppingcartItems"`
			} `json:"shoppingcart"`
		} `json:"_entities"`
	}

	if err := c.query(ctx, c.cfg.CartAppID, "getShoppingCartProductVariantIdsAndCounts", cartQuery, variables, identity, &data); err != nil {
		return nil, err
	}
	if len(data.Entities) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart query returned no user entity")
	}

	items := make(map[uuid.UUID]CartItem)
	for _, node := range data.Entities[0].ShoppingCart.ShoppingCartItems.Nodes {
		items[node.ID] = CartItem{
			ShoppingCartItemID: node.ID,
			ProductVariantID:   node.ProductVariant.ID,
			Count:              node.Count,
		}
	}
	return items, nil
}

// FetchUnreservedCounts returns the unreserved stock count per product
// variant.
func (c *Client) FetchUnreservedCounts(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]uint64, error) {
	representations := make([]entityRepresentation, 0, len(variantIDs))
	for _, id := range variantIDs {
		representations = append(representations, entityRepresentation{Typename: "ProductVariant", ID: id.String()})
	}
	variables := map[string]any{"representations": representations}

	var data struct {
		Entities []struct {
			ID           uuid.UUID `json:"id"`
			ProductItems struct {
				TotalCount uint64 `json:"totalCount"`
			} `json:"productItems"`
		} `json:"_entities"`
	}

	if err := c.query(ctx, c.cfg.InventoryAppID, "getUnreservedProductItemCounts", unreservedCountsQuery, variables, nil, &data); err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]uint64, len(data.Entities))
	for _, entity := range data.Entities {
		counts[entity.ID] = entity.ProductItems.TotalCount
	}
	return counts, nil
}

// FetchDiscounts returns the applicable discounts per product variant. The
// caller identity is forwarded to the discount service.
func (c *Client) FetchDiscounts(ctx context.Context, identity *auth.Identity, input DiscountQueryInput) (map[uuid.UUID][]Discount, error) {
	variables := map[string]any{"findApplicableDiscountsInput": input}

	var data struct {
		FindApplicableDiscounts []struct {
			ProductVariantID uuid.UUID  `json:"productVariantId"`
			Discounts        []Discount `json:"discounts"`
		} `json:"findApplicableDiscounts"`
	}

	if err := c.query(ctx, c.cfg.DiscountAppID, "getDiscounts", discountsQuery, variables, identity, &data); err != nil {
		return nil, err
	}

	discounts := make(map[uuid.UUID][]Discount, len(data.FindApplicableDiscounts))
	for _, entry := range data.FindApplicableDiscounts {
		discounts[entry.ProductVariantID] = entry.Discounts
	}

	for _, variant := range input.ProductVariants {
		if _, ok := discounts[variant.ProductVariantID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeDependency,
				fmt.Sprintf("product variant %s is missing from the findApplicableDiscounts result", variant.ProductVariantID))
		}
	}
	return discounts, nil
}

// FetchShipmentFees returns the aggregate shipment fee for the given lines.
func (c *Client) FetchShipmentFees(ctx context.Context, items []ShipmentFeeItem) (uint64, error) {
	variables := map[string]any{
		"calculateShipmentFeesInput": map[string]any{"items": items},
	}

	var data struct {
		CalculateShipmentFees uint64 `json:"calculateShipmentFees"`
	}

	if err := c.query(ctx, c.cfg.ShipmentAppID, "getShipmentFees", shipmentFeesQuery, variables, nil, &data); err != nil {
		return 0, err
	}
	return data.CalculateShipmentFees, nil
}
