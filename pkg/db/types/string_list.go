package dbtypes

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList is an ordered list of identifiers stored as a JSON array.
//
// Older quote rows hold the array double-encoded as a JSON string
// ("[\"a\",\"b\"]"). Scan and UnmarshalJSON accept both shapes so callers
// only ever see a plain slice; anything else is rejected.
type StringList []string

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = StringList{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return l.parse([]byte(v))
	case []byte:
		return l.parse(v)
	default:
		return fmt.Errorf("StringList: unsupported Scan type %T", src)
	}
}

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	return l.parse(data)
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// GormDBDataType picks jsonb on Postgres and plain text elsewhere.
func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

func (l *StringList) parse(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = StringList{}
		return nil
	}

	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return fmt.Errorf("StringList: decode string wrapper: %w", err)
		}
		inner = string(bytes.TrimSpace([]byte(inner)))
		if inner == "" {
			*l = StringList{}
			return nil
		}
		if inner[0] != '[' {
			return fmt.Errorf("StringList: string wrapper does not hold an array")
		}
		data = []byte(inner)
	}

	if data[0] != '[' {
		return fmt.Errorf("StringList: expected JSON array")
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("StringList: decode array: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = StringList(out)
	return nil
}
