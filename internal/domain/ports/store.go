package ports

import (
	"context"
	"time"
)

// Document is a stored record as a flat attribute map. Nested values are
// maps and slices of the same JSON-compatible shapes.
type Document map[string]interface{}

// Operator is a comparison used by a filter Condition.
type Operator string

const (
	// OpEq matches attributes equal to the first value.
	OpEq Operator = "eq"
	// OpIn matches attributes equal to any of the values.
	OpIn Operator = "in"
	// OpPrefix matches string attributes starting with any value, case-insensitively.
	OpPrefix Operator = "prefix"
	// OpContains matches string attributes containing the first value, case-insensitively.
	OpContains Operator = "contains"
)

// Condition is a single attribute predicate.
type Condition struct {
	Field  string
	Op     Operator
	Values []interface{}
}

// Filter is a conjunction of conditions. An empty filter matches everything.
type Filter []Condition

// Eq builds an equality condition.
func Eq(field string, value interface{}) Condition {
	return Condition{Field: field, Op: OpEq, Values: []interface{}{value}}
}

// In builds a membership condition.
func In(field string, values ...interface{}) Condition {
	return Condition{Field: field, Op: OpIn, Values: values}
}

// Prefix builds a case-insensitive prefix condition over alternatives.
func Prefix(field string, prefixes ...string) Condition {
	values := make([]interface{}, len(prefixes))
	for i, p := range prefixes {
		values[i] = p
	}
	return Condition{Field: field, Op: OpPrefix, Values: values}
}

// Contains builds a case-insensitive substring condition.
func Contains(field, substr string) Condition {
	return Condition{Field: field, Op: OpContains, Values: []interface{}{substr}}
}

// QueryOptions controls projection, paging and the execution bound of a query.
type QueryOptions struct {
	Projection []string
	Skip       int64
	Limit      int64
	MaxTime    time.Duration
}

// DocumentStore is the persistence boundary for person records.
// Keys are the ERP-assigned integer identities.
type DocumentStore interface {
	// FindByKey returns nil, nil when no record has the key.
	FindByKey(ctx context.Context, collection string, key int64, projection []string) (Document, error)
	// UpsertByKey sets the given top-level attributes, creating the record if
	// needed. Attributes absent from patch are left untouched.
	UpsertByKey(ctx context.Context, collection string, key int64, patch Document) error
	// Query returns matching records ordered by key.
	Query(ctx context.Context, collection string, filter Filter, opts QueryOptions) ([]Document, error)
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
	DeleteByKey(ctx context.Context, collection string, key int64) (bool, error)
}
