package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/ports"
)

// MemoryStore is an in-process DocumentStore used for development and tests.
// Documents are deep-copied on the way in and out.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[int64]ports.Document
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[int64]ports.Document)}
}

func (s *MemoryStore) FindByKey(ctx context.Context, collection string, key int64, projection []string) (ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][key]
	if !ok {
		return nil, nil
	}
	out, err := copyDocument(doc)
	if err != nil {
		return nil, err
	}
	return project(out, projection), nil
}

func (s *MemoryStore) UpsertByKey(ctx context.Context, collection string, key int64, patch ports.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	patchCopy, err := copyDocument(patch)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[int64]ports.Document)
		s.collections[collection] = docs
	}
	doc, ok := docs[key]
	if !ok {
		doc = ports.Document{}
	}
	for k, v := range patchCopy {
		doc[k] = v
	}
	doc["id"] = float64(key)
	docs[key] = doc
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filter ports.Filter, opts ports.QueryOptions) ([]ports.Document, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.sortedKeys(collection)
	var out []ports.Document
	var skipped int64
	for _, key := range keys {
		doc := s.collections[collection][key]
		if !matchDocument(doc, filter) {
			continue
		}
		if skipped < opts.Skip {
			skipped++
			continue
		}
		if opts.Limit > 0 && int64(len(out)) >= opts.Limit {
			break
		}
		cp, err := copyDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, project(cp, opts.Projection))
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, collection string, filter ports.Filter) (int64, error) {
	if err := validateFilter(filter); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, doc := range s.collections[collection] {
		if matchDocument(doc, filter) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteByKey(ctx context.Context, collection string, key int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][key]; !ok {
		return false, nil
	}
	delete(s.collections[collection], key)
	return true, nil
}

func (s *MemoryStore) sortedKeys(collection string) []int64 {
	keys := make([]int64, 0, len(s.collections[collection]))
	for k := range s.collections[collection] {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// copyDocument round-trips through JSON so stored values have the same
// shapes a real store would return.
func copyDocument(doc ports.Document) (ports.Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to copy document: %w", err)
	}
	var out ports.Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to copy document: %w", err)
	}
	return out, nil
}
