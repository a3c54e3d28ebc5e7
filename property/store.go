package property

import (
	"iter"
	"maps"
	"slices"

	"github.com/jathurchan/guestprop/types"
)

// Property is a single entry of the store.
type Property struct {
	Name      string
	Value     string
	Timestamp types.Timestamp
	Flags     Flags
}

// propertyStore maps names to properties and iterates them in name order.
// It has no locking of its own.
type propertyStore struct {
	props map[string]*Property
	max   int
}

func newPropertyStore(max int) *propertyStore {
	return &propertyStore{
		props: make(map[string]*Property),
		max:   max,
	}
}

func (st *propertyStore) get(name string) (*Property, bool) {
	p, ok := st.props[name]
	return p, ok
}

// put updates an existing property in place or inserts a new one.
// Inserting beyond the maximum fails with ErrTooMuchData.
func (st *propertyStore) put(name, value string, ts types.Timestamp, flags Flags) error {
	if p, ok := st.props[name]; ok {
		p.Value = value
		p.Timestamp = ts
		p.Flags = flags
		return nil
	}
	if len(st.props) >= st.max {
		return ErrTooMuchData
	}
	st.props[name] = &Property{Name: name, Value: value, Timestamp: ts, Flags: flags}
	return nil
}

// remove deletes name and reports whether it existed.
func (st *propertyStore) remove(name string) bool {
	if _, ok := st.props[name]; !ok {
		return false
	}
	delete(st.props, name)
	return true
}

func (st *propertyStore) len() int {
	return len(st.props)
}

// matching yields the properties whose names match patterns, in name order.
// The sequence is recomputed from the current contents on every range.
func (st *propertyStore) matching(patterns string) iter.Seq[*Property] {
	return func(yield func(*Property) bool) {
		for _, name := range slices.Sorted(maps.Keys(st.props)) {
			if !matchPatterns(patterns, name) {
				continue
			}
			if !yield(st.props[name]) {
				return
			}
		}
	}
}
