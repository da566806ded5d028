package store

import (
	"encoding/json"
	"fmt"
)

// Serde converts between in-memory values and their wire representation.
// Stores use the key serde to derive a stable lookup key; value serdes are
// handed through to the supplier and applied at the persistence boundary.
type Serde interface {
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte) (any, error)
	fmt.Stringer
}

// JSONSerde encodes values as JSON.
type JSONSerde struct{}

func (s JSONSerde) Serialize(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json serde: %w", err)
	}
	return b, nil
}

func (s JSONSerde) Deserialize(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("json serde: %w", err)
	}
	return v, nil
}

func (s JSONSerde) String() string { return "json" }

// StringSerde passes strings through unchanged and rejects everything else.
type StringSerde struct{}

func (s StringSerde) Serialize(v any) ([]byte, error) {
	str, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("string serde: expected string, got %T", v)
	}
	return []byte(str), nil
}

func (s StringSerde) Deserialize(data []byte) (any, error) {
	return string(data), nil
}

func (s StringSerde) String() string { return "string" }
