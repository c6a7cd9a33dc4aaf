package enums

import "fmt"

// OrderDirection is the sort direction for list queries.
type OrderDirection string

const (
	OrderDirectionAsc  OrderDirection = "ASC"
	OrderDirectionDesc OrderDirection = "DESC"
)

// IsValid reports whether the value is a known OrderDirection.
func (o OrderDirection) IsValid() bool {
	return o == OrderDirectionAsc || o == OrderDirectionDesc
}

// ParseOrderDirection converts raw input into an OrderDirection, defaulting
// to ascending for empty input.
func ParseOrderDirection(value string) (OrderDirection, error) {
	switch value {
	case "":
		return OrderDirectionAsc, nil
	case string(OrderDirectionAsc):
		return OrderDirectionAsc, nil
	case string(OrderDirectionDesc):
		return OrderDirectionDesc, nil
	}
	return "", fmt.Errorf("invalid order direction %q", value)
}

// OrderSortField names the order columns list queries may sort by.
type OrderSortField string

const (
	OrderSortFieldID        OrderSortField = "ID"
	OrderSortFieldUserID    OrderSortField = "USER_ID"
	OrderSortFieldCreatedAt OrderSortField = "CREATED_AT"
)

// Column returns the database column backing the sort field.
func (o OrderSortField) Column() string {
	switch o {
	case OrderSortFieldUserID:
		return "user_id"
	case OrderSortFieldCreatedAt:
		return "created_at"
	default:
		return "id"
	}
}

// ParseOrderSortField converts raw input into an OrderSortField, defaulting
// to the id column for empty input.
func ParseOrderSortField(value string) (OrderSortField, error) {
	switch value {
	case "":
		return OrderSortFieldID, nil
	case string(OrderSortFieldID):
		return OrderSortFieldID, nil
	case string(OrderSortFieldUserID):
		return OrderSortFieldUserID, nil
	case string(OrderSortFieldCreatedAt):
		return OrderSortFieldCreatedAt, nil
	}
	return "", fmt.Errorf("invalid order sort field %q", value)
}
