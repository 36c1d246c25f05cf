package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/Benny93/qshape-go/internal/predicates"
)

// Key prefixes for different data types
const (
	prefixShape     = "s:" // signature -> count
	prefixFeature   = "f:" // feature tag -> count
	prefixMeta      = "m:" // metadata key -> value
	prefixPredicate = "p:" // zero-padded id -> uri
)

// BadgerBackend is a BadgerDB-backed storage implementation.
type BadgerBackend struct {
	db          *badger.DB
	initialized bool
	mu          sync.RWMutex
	shapeCount  int
}

// NewBadgerBackend creates a new BadgerDB backend.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithNumMemtables(5).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.initialized = true
	b.shapeCount = b.countPrefix(prefixShape)
	return nil
}

// countPrefix counts the keys under prefix.
func (b *BadgerBackend) countPrefix(prefix string) int {
	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	return n
}

// Close releases all resources held by the backend.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

func encodeCount(n int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	return buf[:]
}

func decodeCount(val []byte) (int64, error) {
	if len(val) != 8 {
		return 0, fmt.Errorf("corrupt counter of %d bytes", len(val))
	}
	return int64(binary.BigEndian.Uint64(val)), nil
}

// readCount returns the counter at key, zero if absent.
func readCount(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var n int64
	err = item.Value(func(val []byte) error {
		n, err = decodeCount(val)
		return err
	})
	return n, err
}

// batchTxn wraps a read-write transaction that is committed and renewed
// whenever it grows too big.
type batchTxn struct {
	db  *badger.DB
	txn *badger.Txn
}

func (bt *batchTxn) set(key, val []byte) error {
	err := bt.txn.Set(key, val)
	if errors.Is(err, badger.ErrTxnTooBig) {
		if err := bt.txn.Commit(); err != nil {
			return err
		}
		bt.txn = bt.db.NewTransaction(true)
		err = bt.txn.Set(key, val)
	}
	return err
}

// MergeSummary adds shape and feature counts to the stored totals.
func (b *BadgerBackend) MergeSummary(ctx context.Context, shapes, features map[string]int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return ErrNotInitialized
	}

	bt := &batchTxn{db: b.db, txn: b.db.NewTransaction(true)}
	defer func() { bt.txn.Discard() }()

	added := 0
	merge := func(prefix string, counts map[string]int64) error {
		for name, delta := range counts {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := []byte(prefix + name)
			n, err := readCount(bt.txn, key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", key, err)
			}
			if n == 0 && prefix == prefixShape {
				added++
			}
			if err := bt.set(key, encodeCount(n+delta)); err != nil {
				return fmt.Errorf("setting %s: %w", key, err)
			}
		}
		return nil
	}

	if err := merge(prefixShape, shapes); err != nil {
		return err
	}
	if err := merge(prefixFeature, features); err != nil {
		return err
	}
	if err := bt.txn.Commit(); err != nil {
		return fmt.Errorf("committing summary: %w", err)
	}
	b.shapeCount += added
	return nil
}

// scanCounts calls fn for every counter under prefix.
func (b *BadgerBackend) scanCounts(prefix string, fn func(name string, n int64)) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := strings.TrimPrefix(string(item.Key()), prefix)
			if err := item.Value(func(val []byte) error {
				n, err := decodeCount(val)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fn(name, n)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// TopShapes returns the n most frequent shapes.
func (b *BadgerBackend) TopShapes(ctx context.Context, n int) ([]ShapeFrequency, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.db == nil {
		return nil, ErrNotInitialized
	}

	var shapes []ShapeFrequency
	err := b.scanCounts(prefixShape, func(sig string, count int64) {
		shapes = append(shapes, ShapeFrequency{Signature: sig, Count: count})
	})
	if err != nil {
		return nil, fmt.Errorf("scanning shapes: %w", err)
	}
	return top(shapes, n), nil
}

// ShapeCount returns the stored count of one signature.
func (b *BadgerBackend) ShapeCount(ctx context.Context, signature string) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.db == nil {
		return 0, ErrNotInitialized
	}

	var n int64
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = readCount(txn, []byte(prefixShape+signature))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("getting shape: %w", err)
	}
	return n, nil
}

// FeatureCounts returns every feature count.
func (b *BadgerBackend) FeatureCounts(ctx context.Context) ([]FeatureFrequency, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.db == nil {
		return nil, ErrNotInitialized
	}

	var features []FeatureFrequency
	err := b.scanCounts(prefixFeature, func(f string, count int64) {
		features = append(features, FeatureFrequency{Feature: f, Count: count})
	})
	if err != nil {
		return nil, fmt.Errorf("scanning features: %w", err)
	}
	sortFeatures(features)
	return features, nil
}

// predicateKey pads the id so that keys iterate in id order.
func predicateKey(id int) []byte {
	return fmt.Appendf(nil, "%s%010d", prefixPredicate, id)
}

// SavePredicates stores the predicate map.
func (b *BadgerBackend) SavePredicates(ctx context.Context, entries []predicates.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return ErrNotInitialized
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for _, e := range entries {
		if err := wb.Set(predicateKey(e.ID), []byte(e.URI)); err != nil {
			return fmt.Errorf("setting predicate: %w", err)
		}
	}
	return wb.Flush()
}

// LoadPredicates returns the stored predicate map.
func (b *BadgerBackend) LoadPredicates(ctx context.Context) ([]predicates.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.db == nil {
		return nil, ErrNotInitialized
	}

	var entries []predicates.Entry
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixPredicate)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id, err := strconv.Atoi(strings.TrimPrefix(string(item.Key()), prefixPredicate))
			if err != nil {
				return fmt.Errorf("corrupt predicate key %q: %w", item.Key(), err)
			}
			uri, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries = append(entries, predicates.Entry{URI: string(uri), ID: id})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading predicates: %w", err)
	}
	return entries, nil
}

// SetMeta stores a metadata value.
func (b *BadgerBackend) SetMeta(ctx context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return ErrNotInitialized
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixMeta+key), []byte(value))
	})
}

// GetMeta returns a metadata value.
func (b *BadgerBackend) GetMeta(ctx context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.db == nil {
		return "", false, ErrNotInitialized
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixMeta + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting meta %s: %w", key, err)
	}
	return string(value), true, nil
}

// ShapeTotal returns the number of distinct stored shapes.
func (b *BadgerBackend) ShapeTotal() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.shapeCount
}
