package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ErrScanValueNotBytes indicates the database handed Scan a value it
// cannot treat as JSON bytes.
var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap is a free-form JSON object column. OTP records use it for
// request audit data (client ip, user agent, delivery channel).
type JSONMap map[string]any

// Value marshals the map for a jsonb parameter.
func (j JSONMap) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Scan accepts the representations drivers produce for jsonb: raw bytes,
// a string, json.RawMessage, or an already-decoded map.
func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = JSONMap{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case json.RawMessage:
		raw = []byte(v)
	case map[string]any:
		*j = JSONMap(v)
		return nil
	default:
		return ErrScanValueNotBytes
	}

	var decoded JSONMap
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*j = decoded
	return nil
}

// GetString returns the string at key, or "" when absent or another type.
func (j JSONMap) GetString(key string) string {
	v, _ := j[key].(string)
	return v
}
