package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

// jsonbValue marshals a Go value into a driver-compatible JSONB payload.
func jsonbValue(v interface{}) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return raw, nil
}

// jsonbScan unmarshals a JSONB column into dest.
func jsonbScan(src, dest interface{}) error {
	if src == nil {
		return nil
	}
	var raw []byte
	switch typed := src.(type) {
	case []byte:
		raw = typed
	case string:
		raw = []byte(typed)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
