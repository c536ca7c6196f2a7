package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
)

// storeKeys are written by store implementations and never part of a record.
var storeKeys = map[string]bool{"_id": true, "__v": true}

var knownKeysCache sync.Map

// toDocument marshals the typed fields over the flattened attributes.
func toDocument(v interface{}, attributes map[string]interface{}) (ports.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var typed map[string]interface{}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	doc := make(ports.Document, len(attributes)+len(typed))
	known := knownKeys(reflect.TypeOf(v))
	for k, val := range attributes {
		if !known[k] {
			doc[k] = val
		}
	}
	for k, val := range typed {
		doc[k] = val
	}
	return doc, nil
}

// fromDocument fills v from doc and returns the attributes v has no field for.
func fromDocument(doc ports.Document, v interface{}) (map[string]interface{}, error) {
	clean := make(map[string]interface{}, len(doc))
	for k, val := range doc {
		if !storeKeys[k] {
			clean[k] = val
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}

	known := knownKeys(reflect.TypeOf(v))
	attrs := make(map[string]interface{})
	for k, val := range clean {
		if !known[k] {
			attrs[k] = normalizeValue(val)
		}
	}
	return attrs, nil
}

// knownKeys collects the JSON names of a struct type, including embedded structs.
func knownKeys(t reflect.Type) map[string]bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := knownKeysCache.Load(t); ok {
		return cached.(map[string]bool)
	}
	keys := make(map[string]bool)
	collectKeys(t, keys)
	knownKeysCache.Store(t, keys)
	return keys
}

func collectKeys(t reflect.Type, keys map[string]bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if f.Anonymous && tag == "" {
			collectKeys(f.Type, keys)
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name == "-" || !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[name] = true
	}
}

// normalizeValue maps driver-specific numeric types onto float64 so
// attributes compare the same regardless of the backing store.
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	}
	return v
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
