// Package valueobject holds small column types shared by repositories.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrJSONMapScanType is returned when a column value cannot hold a JSON object.
var ErrJSONMapScanType = errors.New("valueobject: unsupported jsonmap source")

// JSONMap is a JSONB object column. SQL NULL and JSON null both read back as
// an empty map, and a nil map is written as {}.
type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(j))
}

func (j *JSONMap) Scan(src any) error {
	var raw []byte

	switch v := src.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case map[string]any:
		*j = v
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("%w: %T", ErrJSONMapScanType, src)
	}

	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if out == nil {
		out = JSONMap{}
	}
	*j = out
	return nil
}

// GetString returns the string stored at key; other types read as "".
func (j JSONMap) GetString(key string) string {
	if s, ok := j[key].(string); ok {
		return s
	}
	return ""
}
