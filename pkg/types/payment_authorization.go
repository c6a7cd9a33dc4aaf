package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentAuthorization carries opaque payment authorization data supplied at
// placement and forwarded on the outbound order event. Currently only the
// card verification code is defined.
type PaymentAuthorization struct {
	CVC *string `json:"cvc,omitempty"`
}

// Value marshals the authorization as a JSON column.
func (p PaymentAuthorization) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan decodes the JSON column representation.
func (p *PaymentAuthorization) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentAuthorization{}
		return nil
	}
	raw, ok := toString(value)
	if !ok {
		return fmt.Errorf("payment authorization: unsupported scan type %T", value)
	}
	return json.Unmarshal([]byte(raw), p)
}

func toString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
