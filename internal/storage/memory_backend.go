package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/Benny93/qshape-go/internal/predicates"
)

// MemoryBackend is an in-memory implementation of ShapeStore for tests
// and one-off runs.
type MemoryBackend struct {
	mu         sync.RWMutex
	shapes     map[string]int64
	features   map[string]int64
	meta       map[string]string
	predicates map[int]string
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	m := &MemoryBackend{}
	m.reset()
	return m
}

func (m *MemoryBackend) reset() {
	m.shapes = make(map[string]int64)
	m.features = make(map[string]int64)
	m.meta = make(map[string]string)
	m.predicates = make(map[int]string)
}

// Initialize implements ShapeStore.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shapes == nil {
		m.reset()
	}
	return nil
}

// Close implements ShapeStore.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shapes = nil
	m.features = nil
	m.meta = nil
	m.predicates = nil
	return nil
}

// MergeSummary implements ShapeStore.
func (m *MemoryBackend) MergeSummary(ctx context.Context, shapes, features map[string]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shapes == nil {
		return ErrNotInitialized
	}
	for sig, n := range shapes {
		m.shapes[sig] += n
	}
	for f, n := range features {
		m.features[f] += n
	}
	return nil
}

// TopShapes implements ShapeStore.
func (m *MemoryBackend) TopShapes(ctx context.Context, n int) ([]ShapeFrequency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.shapes == nil {
		return nil, ErrNotInitialized
	}
	shapes := make([]ShapeFrequency, 0, len(m.shapes))
	for sig, count := range m.shapes {
		shapes = append(shapes, ShapeFrequency{Signature: sig, Count: count})
	}
	return top(shapes, n), nil
}

// ShapeCount implements ShapeStore.
func (m *MemoryBackend) ShapeCount(ctx context.Context, signature string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.shapes == nil {
		return 0, ErrNotInitialized
	}
	return m.shapes[signature], nil
}

// FeatureCounts implements ShapeStore.
func (m *MemoryBackend) FeatureCounts(ctx context.Context) ([]FeatureFrequency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.features == nil {
		return nil, ErrNotInitialized
	}
	features := make([]FeatureFrequency, 0, len(m.features))
	for f, count := range m.features {
		features = append(features, FeatureFrequency{Feature: f, Count: count})
	}
	sortFeatures(features)
	return features, nil
}

// SavePredicates implements ShapeStore.
func (m *MemoryBackend) SavePredicates(ctx context.Context, entries []predicates.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.predicates == nil {
		return ErrNotInitialized
	}
	for _, e := range entries {
		m.predicates[e.ID] = e.URI
	}
	return nil
}

// LoadPredicates implements ShapeStore.
func (m *MemoryBackend) LoadPredicates(ctx context.Context) ([]predicates.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.predicates == nil {
		return nil, ErrNotInitialized
	}
	entries := make([]predicates.Entry, 0, len(m.predicates))
	for id, uri := range m.predicates {
		entries = append(entries, predicates.Entry{URI: uri, ID: id})
	}
	slices.SortFunc(entries, func(a, b predicates.Entry) int { return a.ID - b.ID })
	return entries, nil
}

// SetMeta implements ShapeStore.
func (m *MemoryBackend) SetMeta(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.meta == nil {
		return ErrNotInitialized
	}
	m.meta[key] = value
	return nil
}

// GetMeta implements ShapeStore.
func (m *MemoryBackend) GetMeta(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.meta == nil {
		return "", false, ErrNotInitialized
	}
	v, ok := m.meta[key]
	return v, ok, nil
}

// ShapeTotal implements ShapeStore.
func (m *MemoryBackend) ShapeTotal() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.shapes)
}
