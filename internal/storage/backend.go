// Package storage persists shape frequencies across analysis runs.
//
// It defines the ShapeStore interface that all storage implementations
// must satisfy, along with the types shared by the backends.
package storage

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/Benny93/qshape-go/internal/predicates"
)

// ErrNotInitialized is returned by operations on a store that has not
// been initialized or has been closed.
var ErrNotInitialized = errors.New("store not initialized")

// Well-known metadata keys.
const (
	MetaLastRun     = "last_run"
	MetaTotalLines  = "total_lines"
	MetaTotalQuery  = "total_queries"
	MetaValidQuery  = "valid_queries"
	MetaShapedQuery = "shaped_queries"
)

// ShapeFrequency is a signature and the number of queries that had it.
type ShapeFrequency struct {
	Signature string `json:"signature"`
	Count     int64  `json:"count"`
}

// FeatureFrequency is a feature tag and the number of queries that
// carried it.
type FeatureFrequency struct {
	Feature string `json:"feature"`
	Count   int64  `json:"count"`
}

// ShapeStore defines the interface for storage implementations.
//
// Implementations must be thread-safe and support concurrent access.
type ShapeStore interface {
	// Initialize opens or creates the store at the given path.
	// If readOnly is true, the store is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the store.
	Close() error

	// MergeSummary adds shape and feature counts to the stored totals.
	MergeSummary(ctx context.Context, shapes, features map[string]int64) error

	// TopShapes returns the n most frequent shapes, ties broken by
	// signature. n <= 0 returns every shape.
	TopShapes(ctx context.Context, n int) ([]ShapeFrequency, error)

	// ShapeCount returns the stored count of one signature.
	ShapeCount(ctx context.Context, signature string) (int64, error)

	// FeatureCounts returns every feature count sorted by count.
	FeatureCounts(ctx context.Context) ([]FeatureFrequency, error)

	// SavePredicates stores the predicate map, adding to the stored
	// entries.
	SavePredicates(ctx context.Context, entries []predicates.Entry) error

	// LoadPredicates returns the stored predicate map sorted by id.
	LoadPredicates(ctx context.Context) ([]predicates.Entry, error)

	// SetMeta stores a metadata value.
	SetMeta(ctx context.Context, key, value string) error

	// GetMeta returns a metadata value and whether it was set.
	GetMeta(ctx context.Context, key string) (string, bool, error)

	// ShapeTotal returns the number of distinct stored shapes.
	ShapeTotal() int
}

func sortShapes(shapes []ShapeFrequency) {
	slices.SortFunc(shapes, func(a, b ShapeFrequency) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Signature, b.Signature)
	})
}

func sortFeatures(features []FeatureFrequency) {
	slices.SortFunc(features, func(a, b FeatureFrequency) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Feature, b.Feature)
	})
}

func top(shapes []ShapeFrequency, n int) []ShapeFrequency {
	sortShapes(shapes)
	if n > 0 && len(shapes) > n {
		shapes = shapes[:n]
	}
	return shapes
}
