package pagination

import (
	"testing"

	"github.com/commercemesh/order-service/pkg/enums"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{"zero defaults", Params{}, Params{First: DefaultLimit, Skip: 0}},
		{"negative first defaults", Params{First: -5, Skip: 3}, Params{First: DefaultLimit, Skip: 3}},
		{"first capped", Params{First: 5000}, Params{First: MaxLimit}},
		{"negative skip clamped", Params{First: 10, Skip: -1}, Params{First: 10, Skip: 0}},
		{"valid passthrough", Params{First: 10, Skip: 20}, Params{First: 10, Skip: 20}},
	}

	for _, tt := range tests {
		got := tt.in.Normalize()
		if got != tt.want {
			t.Fatalf("%s: expected %+v got %+v", tt.name, tt.want, got)
		}
	}
}

func TestOrderByClause(t *testing.T) {
	tests := []struct {
		name string
		in   OrderBy
		want string
	}{
		{"id asc", OrderBy{Field: enums.OrderSortFieldID, Direction: enums.OrderDirectionAsc}, "id ASC"},
		{"id desc", OrderBy{Field: enums.OrderSortFieldID, Direction: enums.OrderDirectionDesc}, "id DESC"},
		{"created_at desc with tiebreak", OrderBy{Field: enums.OrderSortFieldCreatedAt, Direction: enums.OrderDirectionDesc}, "created_at DESC, id DESC"},
		{"user_id asc with tiebreak", OrderBy{Field: enums.OrderSortFieldUserID, Direction: enums.OrderDirectionAsc}, "user_id ASC, id ASC"},
		{"zero values default to id asc", OrderBy{}, "id ASC"},
	}

	for _, tt := range tests {
		if got := tt.in.Clause(); got != tt.want {
			t.Fatalf("%s: expected %q got %q", tt.name, tt.want, got)
		}
	}
}
