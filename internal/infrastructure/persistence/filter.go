package persistence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
)

// matchDocument evaluates a filter against a document in memory.
func matchDocument(doc ports.Document, filter ports.Filter) bool {
	for _, cond := range filter {
		if !matchCondition(doc[cond.Field], cond) {
			return false
		}
	}
	return true
}

func matchCondition(value interface{}, cond ports.Condition) bool {
	switch cond.Op {
	case ports.OpEq, ports.OpIn:
		for _, want := range cond.Values {
			if scalarString(value) == scalarString(want) {
				return true
			}
		}
		return false
	case ports.OpPrefix:
		s := strings.ToLower(scalarString(value))
		for _, p := range cond.Values {
			if strings.HasPrefix(s, strings.ToLower(scalarString(p))) {
				return true
			}
		}
		return false
	case ports.OpContains:
		if len(cond.Values) == 0 {
			return true
		}
		return strings.Contains(strings.ToLower(scalarString(value)), strings.ToLower(scalarString(cond.Values[0])))
	}
	return false
}

// scalarString renders scalars the way they compare across stores:
// integral numbers without a decimal part, nil as empty.
func scalarString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	}
	return fmt.Sprint(v)
}

// project keeps only the listed attributes plus the key.
func project(doc ports.Document, projection []string) ports.Document {
	if len(projection) == 0 {
		return doc
	}
	out := make(ports.Document, len(projection)+1)
	out["id"] = doc["id"]
	for _, field := range projection {
		if v, ok := doc[field]; ok {
			out[field] = v
		}
	}
	return out
}

func validateFilter(filter ports.Filter) error {
	for _, cond := range filter {
		if cond.Field == "" {
			return fmt.Errorf("filter condition without field")
		}
		switch cond.Op {
		case ports.OpEq, ports.OpContains:
			if len(cond.Values) != 1 {
				return fmt.Errorf("%s condition on %s needs exactly one value", cond.Op, cond.Field)
			}
		case ports.OpIn, ports.OpPrefix:
			if len(cond.Values) == 0 {
				return fmt.Errorf("%s condition on %s needs values", cond.Op, cond.Field)
			}
		default:
			return fmt.Errorf("unsupported operator %q", cond.Op)
		}
	}
	return nil
}
