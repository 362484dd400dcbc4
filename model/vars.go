package model

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Vars maps variable names to value lists, keeping keys in first-assignment order.
// Appends suppress values already present under the same key.
type Vars struct {
	keys   []string
	values map[string][]string
}

// NewVars creates an empty variable map.
func NewVars() *Vars {
	return &Vars{values: make(map[string][]string)}
}

func (v *Vars) touch(key string) {
	if v.values == nil {
		v.values = make(map[string][]string)
	}
	if _, ok := v.values[key]; !ok {
		v.keys = append(v.keys, key)
		v.values[key] = nil
	}
}

// Set replaces the values stored under key.
func (v *Vars) Set(key string, values []string) {
	v.touch(key)
	v.values[key] = slices.Clone(values)
}

// Append adds each value not already stored under key.
func (v *Vars) Append(key string, values []string) {
	v.touch(key)
	for _, value := range values {
		if !slices.Contains(v.values[key], value) {
			v.values[key] = append(v.values[key], value)
		}
	}
}

// Get returns the values stored under key.
func (v *Vars) Get(key string) ([]string, bool) {
	if v == nil {
		return nil, false
	}
	values, ok := v.values[key]
	return values, ok
}

// First returns the first value stored under key.
func (v *Vars) First(key string) (string, bool) {
	values, ok := v.Get(key)
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Keys returns the keys in first-assignment order.
func (v *Vars) Keys() []string {
	if v == nil {
		return nil
	}
	return slices.Clone(v.keys)
}

// Len returns the number of keys.
func (v *Vars) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// MarshalJSON writes the keys in first-assignment order.
func (v *Vars) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range v.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		values := v.values[key]
		if values == nil {
			values = []string{}
		}
		val, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
