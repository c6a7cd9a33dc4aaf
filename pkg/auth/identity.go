package auth

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/commercemesh/order-service/pkg/errors"
)

// HeaderName carries the pre-verified caller identity set by the gateway.
const HeaderName = "Authorized-User"

const (
	RoleBuyer    = "buyer"
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Identity is the caller identity parsed from the gateway header. Raw keeps
// the original header value so federated calls can forward it untouched.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Roles []string  `json:"roles"`
	Raw   string    `json:"-"`
}

// Parse decodes the identity header. An empty value yields an unauthorized
// error since every caller-facing operation requires an identity.
func Parse(headerValue string) (*Identity, error) {
	trimmed := strings.TrimSpace(headerValue)
	if trimmed == "" {
		return nil, errors.New(errors.CodeUnauthorized, "missing identity header")
	}

	var ident Identity
	if err := json.Unmarshal([]byte(trimmed), &ident); err != nil {
		return nil, errors.Wrap(errors.CodeUnauthorized, err, "malformed identity header")
	}
	if ident.ID == uuid.Nil {
		return nil, errors.New(errors.CodeUnauthorized, "identity header has no user id")
	}
	ident.Raw = trimmed
	return &ident, nil
}

// HasRole reports whether the identity carries the given role.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the identity may act on any user's resources.
func (i *Identity) IsAdmin() bool {
	return i.HasRole(RoleAdmin) || i.HasRole(RoleEmployee)
}

// EnsureOwner rejects callers that are neither the resource owner nor an
// administrative role.
func (i *Identity) EnsureOwner(ownerID uuid.UUID) error {
	if i == nil {
		return errors.New(errors.CodeUnauthorized, "missing identity")
	}
	if i.IsAdmin() || i.ID == ownerID {
		return nil
	}
	return errors.New(errors.CodeForbidden, "caller does not own this resource")
}
