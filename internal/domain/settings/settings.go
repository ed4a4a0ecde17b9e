// Package settings provides the host's persistent key/value store,
// backed by a YAML document on disk.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
	"github.com/mosaicfw/mosaic/internal/domain/safety"
)

// Store is the host's settings provider. Values are held as boundary
// values and deep-copied in both directions, so a caller keeping a
// reference to a stored list or map cannot mutate the store's copy.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]safety.Value
}

// Open creates a store backed by the given file, loading any existing
// document. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]safety.Value)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	for key, value := range raw {
		s.values[key] = fromAny(value)
	}
	return s, nil
}

var _ capability.Settings = (*Store)(nil)

// Get returns the stored value for a key.
func (s *Store) Get(key string) (safety.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	if !ok {
		return safety.Null(), false
	}
	return safety.DeepCopy(value), true
}

// Set stores a value under a key, replacing any previous value.
func (s *Store) Set(key string, value safety.Value) {
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = safety.DeepCopy(value)
}

// Delete removes a key. Unknown keys are a no-op.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Keys returns all stored keys, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Save persists the current values to the backing file, creating parent
// directories as needed.
func (s *Store) Save() error {
	s.mu.Lock()
	raw := make(map[string]any, len(s.values))
	for key, value := range s.values {
		raw[key] = toAny(value)
	}
	s.mu.Unlock()

	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating settings dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// toAny lowers a boundary value to plain Go data for YAML encoding.
func toAny(v safety.Value) any {
	switch v.Kind {
	case safety.KindString:
		return v.Str
	case safety.KindBytes:
		return v.Bytes
	case safety.KindInt:
		return v.Int
	case safety.KindFloat:
		return v.Float
	case safety.KindBool:
		return v.Bool
	case safety.KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = toAny(item)
		}
		return out
	case safety.KindMap:
		out := make(map[string]any, len(v.Map))
		for key, item := range v.Map {
			out[key] = toAny(item)
		}
		return out
	default:
		return nil
	}
}

// fromAny lifts decoded YAML data into a boundary value. Unrepresentable
// types decode as null.
func fromAny(raw any) safety.Value {
	switch value := raw.(type) {
	case string:
		return safety.String(value)
	case []byte:
		return safety.Bytes(value)
	case int:
		return safety.Int(int64(value))
	case int64:
		return safety.Int(value)
	case float64:
		return safety.Float(value)
	case bool:
		return safety.Bool(value)
	case []any:
		items := make([]safety.Value, len(value))
		for i, item := range value {
			items[i] = fromAny(item)
		}
		return safety.List(items...)
	case map[string]any:
		items := make(map[string]safety.Value, len(value))
		for key, item := range value {
			items[key] = fromAny(item)
		}
		return safety.Map(items)
	default:
		return safety.Null()
	}
}
