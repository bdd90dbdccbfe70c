package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Scope separates small settings that follow the user across devices from
// data that stays on this installation.
type Scope string

const (
	ScopeSync  Scope = "sync"
	ScopeLocal Scope = "local"
)

func (s Scope) Valid() bool {
	return s == ScopeSync || s == ScopeLocal
}

// Storage is an asynchronous-safe key/value store. Missing keys are simply
// absent from the map returned by Get.
type Storage interface {
	Get(ctx context.Context, scope Scope, keys ...string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, scope Scope, values map[string]any) error
	Close() error
}

// Decode unmarshals the value stored under key into dst and reports whether the key was present.
func Decode(values map[string]json.RawMessage, key string, dst any) (bool, error) {
	raw, ok := values[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("error decoding %q: %w", key, err)
	}
	return true, nil
}

// encodeValues marshals every value and returns the keys in a stable order.
func encodeValues(values map[string]any) ([]string, map[string][]byte, error) {
	keys := make([]string, 0, len(values))
	encoded := make(map[string][]byte, len(values))
	for key, value := range values {
		if raw, ok := value.(json.RawMessage); ok {
			encoded[key] = append([]byte(nil), raw...)
		} else {
			data, err := json.Marshal(value)
			if err != nil {
				return nil, nil, fmt.Errorf("error encoding %q: %w", key, err)
			}
			encoded[key] = data
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, encoded, nil
}

func checkScope(scope Scope) error {
	if !scope.Valid() {
		return fmt.Errorf("unknown storage scope %q", scope)
	}
	return nil
}
