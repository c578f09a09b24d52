package particles

/* store.go contains the Store, which owns the raw arrays of a snapshot and
its family partition. Derived-quantity caches and spatial indices validate
themselves against the per-array version counters kept here. */

import (
	"fmt"
	"sort"
	"sync"
)

// Family is a disjoint particle-type partition tag. Every particle in a
// Store belongs to exactly one Family.
type Family int

const (
	Gas Family = iota
	DarkMatter
	Star
	NFamilies
)

func (f Family) String() string {
	switch f {
	case Gas:
		return "gas"
	case DarkMatter:
		return "dm"
	case Star:
		return "star"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// ShapeError is returned when an array's length disagrees with the row
// count of the store or view it is assigned to.
type ShapeError struct {
	Name      string
	Got, Want int
}

func (err *ShapeError) Error() string {
	return fmt.Sprintf("The array '%s' has length %d, but the store it is "+
		"being assigned to has %d rows. Raw array lengths must always match "+
		"the row count of their store.", err.Name, err.Got, err.Want)
}

// UnknownArrayError is returned when a raw array name is requested which
// was never registered and for which no derivation rule exists.
type UnknownArrayError struct {
	Name string
}

func (err *UnknownArrayError) Error() string {
	return fmt.Sprintf("The store does not contain an array named '%s'.",
		err.Name)
}

// Store owns the raw per-particle arrays of a snapshot along with the
// family partition of its rows. Writes through Set are serialized against
// concurrent reads; a Store is safe for single-writer multiple-reader use.
type Store struct {
	mu       sync.RWMutex
	n        int
	fields   Fields
	versions map[string]uint64
	families map[Family][]int
}

// NewStore creates a Store with n rows and the given family partition. The
// index sets in families must be disjoint and must cover all n rows exactly;
// families not present in the map are treated as empty. Passing a nil map
// puts every row in DarkMatter.
func NewStore(n int, families map[Family][]int) (*Store, error) {
	if families == nil {
		all := make([]int, n)
		for i := range all { all[i] = i }
		families = map[Family][]int{DarkMatter: all}
	}

	seen := make([]bool, n)
	total := 0
	for fam, idx := range families {
		for _, i := range idx {
			if i < 0 || i >= n {
				return nil, fmt.Errorf("The '%s' family contains the row "+
					"index %d, which is outside the store's %d rows.",
					fam, i, n)
			}
			if seen[i] {
				return nil, fmt.Errorf("The row index %d appears in more "+
					"than one family: families must be disjoint.", i)
			}
			seen[i] = true
		}
		total += len(idx)
	}
	if total != n {
		return nil, fmt.Errorf("The families cover %d of the store's %d "+
			"rows: families must be exhaustive.", total, n)
	}

	// Keep the index sets sorted so views built from them have a stable
	// row order.
	owned := map[Family][]int{}
	for fam, idx := range families {
		cp := make([]int, len(idx))
		copy(cp, idx)
		sort.Ints(cp)
		owned[fam] = cp
	}

	return &Store{
		n:        n,
		fields:   Fields{},
		versions: map[string]uint64{},
		families: owned,
	}, nil
}

// Len returns the number of rows in the store.
func (s *Store) Len() int { return s.n }

// Get returns the raw array with the given name. If no such array has been
// set, an *UnknownArrayError is returned.
func (s *Store) Get(name string) (Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.fields[name]
	if !ok { return nil, &UnknownArrayError{name} }
	return f, nil
}

// Has returns true if the store contains a raw array with the given name.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.fields[name]
	return ok
}

// Set assigns a raw array under the field's name, replacing any previous
// array and bumping the array's version so that dependent derived caches
// and spatial indices notice the change. Fails with a *ShapeError if the
// array's length is not the store's row count.
func (s *Store) Set(f Field) error {
	if f.Len() != s.n {
		return &ShapeError{f.Name(), f.Len(), s.n}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fields[f.Name()] = f
	s.versions[f.Name()]++
	return nil
}

// Version returns the version counter of a raw array. Arrays which have
// never been set have version 0; the first Set gives version 1. Overwriting
// through Set always changes the version, which is how caches detect that
// an entry is stale.
func (s *Store) Version(name string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.versions[name]
}

// Names returns the names of all raw arrays in the store, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FamilyIndex returns the sorted row indices belonging to a family. The
// returned slice is owned by the store and must not be modified.
func (s *Store) FamilyIndex(f Family) []int {
	return s.families[f]
}

// Families returns the families with at least one row, in Family order.
func (s *Store) Families() []Family {
	out := []Family{}
	for f := Family(0); f < NFamilies; f++ {
		if len(s.families[f]) > 0 {
			out = append(out, f)
		}
	}
	return out
}
