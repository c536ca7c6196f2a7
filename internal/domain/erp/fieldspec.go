package erp

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// DecodeRule selects how a raw ERP string becomes a typed value.
type DecodeRule string

const (
	// RuleFlag decodes "T" to true and anything else to false.
	RuleFlag DecodeRule = "flag"
	// RuleNumber parses a float, using the field fallback on failure.
	RuleNumber DecodeRule = "number"
	// RuleIdentity parses an integer key; failures decode to 0.
	RuleIdentity DecodeRule = "identity"
	// RulePassthrough keeps the raw string, or nil when absent.
	RulePassthrough DecodeRule = "passthrough"
	// RuleDigits keeps only the digits of the raw string.
	RuleDigits DecodeRule = "digits"
	// RulePresent is true for any non-empty value.
	RulePresent DecodeRule = "present"
)

// Fallback is the value a number field takes when parsing fails.
type Fallback string

const (
	FallbackZero Fallback = "zero"
	FallbackRaw  Fallback = "raw"
)

// GroupHrc marks loyalty attributes stored under the hrc sub-document.
const GroupHrc = "hrc"

// FieldSpec describes one ERP attribute.
type FieldSpec struct {
	External string     `yaml:"external"`
	Internal string     `yaml:"internal"`
	Rule     DecodeRule `yaml:"rule"`
	Fallback Fallback   `yaml:"fallback"`
	Group    string     `yaml:"group"`
}

// Name returns the stored attribute name.
func (s FieldSpec) Name() string {
	if s.Internal != "" {
		return s.Internal
	}
	return s.External
}

// FieldTable is the full set of specs for person fields and sublist lines.
type FieldTable struct {
	Fields    []FieldSpec `yaml:"fields"`
	Address   []FieldSpec `yaml:"address"`
	SalesTeam []FieldSpec `yaml:"salesteam"`
}

//go:embed fields.yaml
var defaultTableYAML []byte

var (
	defaultTable     *FieldTable
	defaultTableOnce sync.Once
)

// DefaultFieldTable returns the embedded table. It panics if the embedded
// file is invalid, which is a build defect.
func DefaultFieldTable() *FieldTable {
	defaultTableOnce.Do(func() {
		table, err := LoadFieldTable(defaultTableYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded field table: %v", err))
		}
		defaultTable = table
	})
	return defaultTable
}

// LoadFieldTable parses and validates a YAML field table.
func LoadFieldTable(data []byte) (*FieldTable, error) {
	var table FieldTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse field table: %w", err)
	}
	for section, specs := range map[string][]FieldSpec{
		"fields":    table.Fields,
		"address":   table.Address,
		"salesteam": table.SalesTeam,
	} {
		if err := validateSpecs(specs); err != nil {
			return nil, fmt.Errorf("section %s: %w", section, err)
		}
	}
	return &table, nil
}

func validateSpecs(specs []FieldSpec) error {
	seen := make(map[string]bool, len(specs))
	for i, spec := range specs {
		if spec.External == "" {
			return fmt.Errorf("entry %d has no external name", i)
		}
		switch spec.Rule {
		case RuleFlag, RuleIdentity, RulePassthrough, RuleDigits, RulePresent:
			if spec.Fallback != "" {
				return fmt.Errorf("field %s: fallback only applies to number rules", spec.External)
			}
		case RuleNumber:
			if spec.Fallback != FallbackZero && spec.Fallback != FallbackRaw {
				return fmt.Errorf("field %s: number rule needs fallback zero or raw", spec.External)
			}
		default:
			return fmt.Errorf("field %s: unknown rule %q", spec.External, spec.Rule)
		}
		if spec.Group != "" && spec.Group != GroupHrc {
			return fmt.Errorf("field %s: unknown group %q", spec.External, spec.Group)
		}
		name := spec.Name()
		if seen[name] {
			return fmt.Errorf("duplicate attribute %s", name)
		}
		seen[name] = true
	}
	return nil
}

// HrcNames lists the stored names of the loyalty attributes.
func (t *FieldTable) HrcNames() []string {
	var names []string
	for _, spec := range t.Fields {
		if spec.Group == GroupHrc {
			names = append(names, spec.Name())
		}
	}
	return names
}

// Partition splits a normalized person record into top-level attributes
// and the loyalty sub-document.
func (t *FieldTable) Partition(record NormalizedRecord) (attributes, hrc map[string]interface{}) {
	attributes = make(map[string]interface{}, len(record))
	hrc = make(map[string]interface{})
	groups := make(map[string]string, len(t.Fields))
	for _, spec := range t.Fields {
		groups[spec.Name()] = spec.Group
	}
	for name, value := range record {
		if groups[name] == GroupHrc {
			hrc[name] = value
			continue
		}
		attributes[name] = value
	}
	return attributes, hrc
}
