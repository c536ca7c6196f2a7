package erp

import (
	"math"
	"strconv"
	"strings"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
)

// NormalizedRecord maps stored attribute names to decoded values:
// bool, float64, int64, string or nil.
type NormalizedRecord map[string]interface{}

// Normalize decodes every declared field of an external record.
// It never fails; undecodable values take the rule's fallback.
func Normalize(external models.ExternalRecord, specs []FieldSpec) NormalizedRecord {
	out := make(NormalizedRecord, len(specs))
	for _, spec := range specs {
		raw, present := external.Raw(spec.External)
		out[spec.Name()] = decode(spec, raw, present)
	}
	return out
}

func decode(spec FieldSpec, raw string, present bool) interface{} {
	switch spec.Rule {
	case RuleFlag:
		return present && raw == "T"
	case RulePresent:
		return present && raw != ""
	case RuleIdentity:
		return parseIdentity(raw)
	case RuleNumber:
		if f, ok := parseNumber(raw); ok {
			return f
		}
		if spec.Fallback == FallbackZero {
			return float64(0)
		}
		if !present {
			return nil
		}
		return raw
	case RuleDigits:
		if !present {
			return nil
		}
		return digitsOnly(raw)
	default:
		if !present {
			return nil
		}
		return raw
	}
}

// ParseIdentity decodes an ERP key such as "0500" into 500. Invalid keys decode to 0.
func ParseIdentity(raw string) int64 {
	return parseIdentity(raw)
}

func parseIdentity(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, ok := parseNumber(raw); ok && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return int64(f)
	}
	return 0
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func digitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// String returns the attribute as a string, or "" when absent or not a string.
func (r NormalizedRecord) String(name string) string {
	if s, ok := r[name].(string); ok {
		return s
	}
	return ""
}

// Bool returns the attribute as a bool.
func (r NormalizedRecord) Bool(name string) bool {
	b, ok := r[name].(bool)
	return ok && b
}

// Identity returns an identity attribute.
func (r NormalizedRecord) Identity(name string) int64 {
	n, _ := r[name].(int64)
	return n
}
