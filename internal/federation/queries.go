package federation

// GraphQL documents POSTed to the federated services through the sidecar.
// Cart and inventory use entity resolution; discount and shipment expose
// dedicated query fields.

const cartQuery = `query getShoppingCartProductVariantIdsAndCounts($representations: [_Any!]!) {
  _entities(representations: $representations) {
    ... on User {
      shoppingcart {
        shoppingcartItems {
          nodes {
            id
            count
            productVariant {
              id
            }
          }
        }
      }
    }
  }
}`

const unreservedCountsQuery = `query getUnreservedProductItemCounts($representations: [_Any!]!) {
  _entities(representations: $representations) {
    ... on ProductVariant {
      id
      productItems(filter: { isReserved: false }) {
        totalCount
      }
    }
  }
}`

const discountsQuery = `query getDiscounts($findApplicableDiscountsInput: FindApplicableDiscountsInput!) {
  findApplicableDiscounts(input: $findApplicableDiscountsInput) {
    productVariantId
    discounts {
      id
      discount
    }
  }
}`

const shipmentFeesQuery = `query getShipmentFees($calculateShipmentFeesInput: CalculateShipmentFeesInput!) {
  calculateShipmentFees(input: $calculateShipmentFeesInput)
}`
