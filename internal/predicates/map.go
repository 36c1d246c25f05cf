// Package predicates assigns stable small integer ids to predicate URIs.
//
// A Map is shared by every query-processing worker of an analysis run.
// Ids are dense from 1, never reassigned and never removed, so a map
// saved at the end of one run and loaded at the start of the next keeps
// every id it handed out.
package predicates

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Entry is one predicate and its id.
type Entry struct {
	URI string
	ID  int
}

// slot holds the id of one URI. The first caller to run once allocates
// the id; concurrent callers for the same URI block on once until it is
// published.
type slot struct {
	once sync.Once
	id   atomic.Int64
}

// Map is a concurrent, grow-only bijection between predicate URIs and ids.
// The zero value is not usable; call New or Load.
type Map struct {
	ids   sync.Map // string -> *slot
	uris  sync.Map // int -> string
	last  atomic.Int64
	count atomic.Int64
}

// New returns an empty map whose first id is 1.
func New() *Map {
	return &Map{}
}

// Intern returns the id of uri, allocating the next id if uri has not been
// seen. Concurrent calls for the same unseen uri all return the same id.
func (m *Map) Intern(uri string) int {
	v, ok := m.ids.Load(uri)
	if !ok {
		v, _ = m.ids.LoadOrStore(uri, &slot{})
	}
	s := v.(*slot)
	s.once.Do(func() {
		id := m.last.Add(1)
		m.uris.Store(int(id), uri)
		m.count.Add(1)
		s.id.Store(id)
	})
	return int(s.id.Load())
}

// Lookup returns the id of uri without allocating one.
func (m *Map) Lookup(uri string) (int, bool) {
	v, ok := m.ids.Load(uri)
	if !ok {
		return 0, false
	}
	id := v.(*slot).id.Load()
	return int(id), id > 0
}

// URI returns the predicate with the given id.
func (m *Map) URI(id int) (string, bool) {
	v, ok := m.uris.Load(id)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Size returns the number of distinct predicates in the map.
func (m *Map) Size() int {
	return int(m.count.Load())
}

// Entries returns all predicates sorted by id.
func (m *Map) Entries() []Entry {
	var entries []Entry
	m.uris.Range(func(k, v any) bool {
		entries = append(entries, Entry{URI: v.(string), ID: k.(int)})
		return true
	})
	slices.SortFunc(entries, func(a, b Entry) int { return a.ID - b.ID })
	return entries
}

// FromEntries builds a map holding exactly the given entries. The next
// allocated id is one past the largest id given.
func FromEntries(entries []Entry) (*Map, error) {
	m := New()
	var maxID int64
	for _, e := range entries {
		if e.ID <= 0 {
			return nil, fmt.Errorf("predicate %q: id %d is not positive", e.URI, e.ID)
		}
		if _, dup := m.uris.Load(e.ID); dup {
			return nil, fmt.Errorf("predicate %q: id %d assigned twice", e.URI, e.ID)
		}
		s := &slot{}
		if _, dup := m.ids.LoadOrStore(e.URI, s); dup {
			return nil, fmt.Errorf("predicate %q listed twice", e.URI)
		}
		id := int64(e.ID)
		s.once.Do(func() { s.id.Store(id) })
		m.uris.Store(e.ID, e.URI)
		m.count.Add(1)
		maxID = max(maxID, id)
	}
	m.last.Store(maxID)
	return m, nil
}

// Load reads a map in "uri<TAB>id" line format. Lines may come in any
// order; blank lines are ignored.
func Load(r io.Reader) (*Map, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		i := strings.LastIndexByte(text, '\t')
		if i < 0 {
			return nil, fmt.Errorf("line %d: missing tab separator", line)
		}
		id, err := strconv.Atoi(strings.TrimSpace(text[i+1:]))
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing id: %w", line, err)
		}
		entries = append(entries, Entry{URI: text[:i], ID: id})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading predicate map: %w", err)
	}
	return FromEntries(entries)
}

// LoadFile reads a map saved with SaveFile.
func LoadFile(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening predicate map: %w", err)
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return m, nil
}

// Save writes the map as "uri<TAB>id" lines sorted by id.
func (m *Map) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range m.Entries() {
		if _, err := fmt.Fprintf(bw, "%s\t%d\n", e.URI, e.ID); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveFile writes the map to path, replacing any existing file.
func (m *Map) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating predicate map: %w", err)
	}
	if err := m.Save(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing predicate map: %w", err)
	}
	return f.Close()
}
