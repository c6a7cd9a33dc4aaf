package pagination

import (
	"fmt"

	"github.com/commercemesh/order-service/pkg/enums"
)

const (
	// DefaultLimit is the standard page size when first is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	First int
	Skip  int
}

// Normalize enforces the configured default and maximum limits and clamps
// negative offsets.
func (p Params) Normalize() Params {
	out := p
	if out.First <= 0 {
		out.First = DefaultLimit
	}
	if out.First > MaxLimit {
		out.First = MaxLimit
	}
	if out.Skip < 0 {
		out.Skip = 0
	}
	return out
}

// OrderBy pairs a sort field with a direction.
type OrderBy struct {
	Field     enums.OrderSortField
	Direction enums.OrderDirection
}

// Clause renders the SQL order-by clause for the pair. Ties are broken by id
// so pages are stable.
func (o OrderBy) Clause() string {
	direction := "ASC"
	if o.Direction == enums.OrderDirectionDesc {
		direction = "DESC"
	}
	column := o.Field.Column()
	if column == "id" {
		return fmt.Sprintf("id %s", direction)
	}
	return fmt.Sprintf("%s %s, id %s", column, direction, direction)
}
