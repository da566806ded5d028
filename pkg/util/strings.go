package util

import (
	"encoding/json"
	"fmt"
)

// Stringify renders a value as compact JSON, falling back to Go syntax for
// values JSON cannot express.
func Stringify(v any) string {
	if v == nil {
		return "<nil>"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}
