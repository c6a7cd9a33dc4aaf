package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UUIDArray maps a []uuid.UUID onto a postgres uuid[] column. Sqlite stores
// the same literal as text, which keeps repository tests portable.
type UUIDArray []uuid.UUID

func (a *UUIDArray) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = UUIDArray{}
		return nil
	case string:
		return a.decode(v)
	case []byte:
		return a.decode(string(v))
	}
	return fmt.Errorf("UUIDArray: unsupported Scan type %T", src)
}

func (a UUIDArray) Value() (driver.Value, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, id := range a {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(id.String())
	}
	sb.WriteByte('}')
	return sb.String(), nil
}

func (a *UUIDArray) decode(literal string) error {
	body := strings.TrimSpace(literal)
	body = strings.TrimPrefix(body, "{")
	body = strings.TrimSuffix(body, "}")
	if strings.TrimSpace(body) == "" {
		*a = UUIDArray{}
		return nil
	}

	parts := strings.Split(body, ",")
	out := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(strings.Trim(part, `"`)))
		if err != nil {
			return fmt.Errorf("UUIDArray: parse %q: %w", part, err)
		}
		out = append(out, id)
	}
	*a = UUIDArray(out)
	return nil
}
