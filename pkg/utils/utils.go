package utils

import "encoding/json"

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// ToJson marshals v for logging, ignoring errors.
func ToJson(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
