package feed

import (
	"bytes"
	"encoding/json"
)

// Record is a platform-formatted field set with stable insertion order.
// Serializers depend on the order: CSV derives its header from the first
// record's keys and JSON/XML emit fields in the order the formatter set
// them, so output is deterministic across runs.
type Record struct {
	keys   []string
	values map[string]any
}

func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Set adds or replaces a field. A replaced field keeps its original
// position.
func (r *Record) Set(key string, value any) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

func (r *Record) Get(key string) (any, bool) {
	value, ok := r.values[key]
	return value, ok
}

// Keys returns field names in insertion order.
func (r *Record) Keys() []string {
	return r.keys
}

func (r *Record) Len() int {
	return len(r.keys)
}

// MarshalJSON emits fields in insertion order. encoding/json re-indents
// custom marshaler output, so pretty-printing still works downstream.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valueJSON, err := json.Marshal(r.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(valueJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
