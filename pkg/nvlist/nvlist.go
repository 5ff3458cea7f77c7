// Package nvlist provides typed lookups over the dynamically keyed
// attribute tree that describes a pool configuration. The tree arrives as
// JSON from the configured zpool command and is decoded once; lookups hand
// out references into the decoded document and never copy it.
package nvlist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Lookup failures are distinguishable so callers can treat optional keys
// (no scan ever run) differently from schema breakage.
var (
	ErrNotFound  = errors.New("key not found")
	ErrWrongType = errors.New("unexpected value type")
)

// IsNotFound reports whether err is a missing-key lookup failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// List is one node of the attribute tree.
type List struct {
	pairs map[string]any
}

// New wraps an already-decoded pair map. Used by tests to build trees
// without going through JSON.
func New(pairs map[string]any) *List {
	return &List{pairs: pairs}
}

// Keys returns the key names present in this node, in map order. Callers
// that need deterministic output sort the result themselves.
func (l *List) Keys() []string {
	keys := make([]string, 0, len(l.pairs))
	for k := range l.pairs {
		keys = append(keys, k)
	}
	return keys
}

func (l *List) lookup(key string) (any, error) {
	v, ok := l.pairs[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return v, nil
}

// Uint64 returns the named 64-bit counter.
func (l *List) Uint64(key string) (uint64, error) {
	v, err := l.lookup(key)
	if err != nil {
		return 0, err
	}
	u, ok := v.(uint64)
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, ErrWrongType)
	}
	return u, nil
}

// Uint64Array returns the named array of 64-bit counters (vdev stats,
// scan stats, histogram buckets).
func (l *List) Uint64Array(key string) ([]uint64, error) {
	v, err := l.lookup(key)
	if err != nil {
		return nil, err
	}
	a, ok := v.([]uint64)
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrWrongType)
	}
	return a, nil
}

// String returns the named string value (vdev type, device path).
func (l *List) String(key string) (string, error) {
	v, err := l.lookup(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrWrongType)
	}
	return s, nil
}

// List returns the named sub-tree (vdev_tree, vdev_stats_ex).
func (l *List) List(key string) (*List, error) {
	v, err := l.lookup(key)
	if err != nil {
		return nil, err
	}
	sub, ok := v.(*List)
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrWrongType)
	}
	return sub, nil
}

// ListArray returns the named array of sub-trees (children).
func (l *List) ListArray(key string) ([]*List, error) {
	v, err := l.lookup(key)
	if err != nil {
		return nil, err
	}
	a, ok := v.([]*List)
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrWrongType)
	}
	return a, nil
}

// FromJSON decodes a JSON document into a List. Numbers decode through
// json.Number so full-range uint64 counters survive; arrays of numbers
// become []uint64 and arrays of objects become []*List.
func FromJSON(data []byte) (*List, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	pairs, err := convertPairs(raw)
	if err != nil {
		return nil, err
	}
	return &List{pairs: pairs}, nil
}

func convertPairs(raw map[string]any) (map[string]any, error) {
	pairs := make(map[string]any, len(raw))
	for k, v := range raw {
		converted, err := convertValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		pairs[k] = converted
	}
	return pairs, nil
}

func convertValue(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		u, err := parseUint(val)
		if err != nil {
			return nil, err
		}
		return u, nil
	case string:
		return val, nil
	case map[string]any:
		pairs, err := convertPairs(val)
		if err != nil {
			return nil, err
		}
		return &List{pairs: pairs}, nil
	case []any:
		return convertArray(val)
	default:
		return nil, fmt.Errorf("value %T: %w", v, ErrWrongType)
	}
}

func convertArray(vals []any) (any, error) {
	if len(vals) == 0 {
		return []uint64{}, nil
	}
	switch vals[0].(type) {
	case json.Number:
		a := make([]uint64, len(vals))
		for i, v := range vals {
			n, ok := v.(json.Number)
			if !ok {
				return nil, fmt.Errorf("mixed array element %d: %w", i, ErrWrongType)
			}
			u, err := parseUint(n)
			if err != nil {
				return nil, err
			}
			a[i] = u
		}
		return a, nil
	case map[string]any:
		a := make([]*List, len(vals))
		for i, v := range vals {
			m, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("mixed array element %d: %w", i, ErrWrongType)
			}
			pairs, err := convertPairs(m)
			if err != nil {
				return nil, err
			}
			a[i] = &List{pairs: pairs}
		}
		return a, nil
	default:
		return nil, fmt.Errorf("array of %T: %w", vals[0], ErrWrongType)
	}
}

func parseUint(n json.Number) (uint64, error) {
	u, err := strconv.ParseUint(string(n), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", n, ErrWrongType)
	}
	return u, nil
}
