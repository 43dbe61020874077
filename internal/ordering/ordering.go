// Package ordering keeps a dense, zero-based order field across the children
// of one parent (exercises in a session, sets in an exercise).
//
// The functions here never touch storage. They take the parent's current
// child collection in whatever order storage returned it and report which
// entries need a new order value. The caller stages those changes together
// with the structural change (insert, delete) and commits them as one batch.
package ordering

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an ID is not a member of the collection.
	ErrNotFound = errors.New("ordering: item not in collection")
	// ErrNotDense is returned when orders are not exactly {0, ..., n-1}.
	ErrNotDense = errors.New("ordering: orders are not dense")
)

// Entry is one child of a parent and its position among its siblings.
type Entry struct {
	ID    uuid.UUID
	Order int
}

// Append returns the order for an item appended to entries.
func Append(entries []Entry) int {
	return len(entries)
}

// Remove returns the renumbered siblings left behind when id is removed.
// The removed entry itself is not part of the result.
func Remove(entries []Entry, id uuid.UUID) ([]Entry, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}
	target, ok := find(entries, id)
	if !ok {
		return nil, fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}

	var changed []Entry
	for _, e := range entries {
		if e.Order > target.Order {
			changed = append(changed, Entry{ID: e.ID, Order: e.Order - 1})
		}
	}
	return changed, nil
}

// Move places source at destination's current order and shifts the entries
// in between by one slot. Moving an entry onto itself changes nothing.
func Move(entries []Entry, source, destination uuid.UUID) ([]Entry, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}
	src, ok := find(entries, source)
	if !ok {
		return nil, fmt.Errorf("move source %s: %w", source, ErrNotFound)
	}
	dst, ok := find(entries, destination)
	if !ok {
		return nil, fmt.Errorf("move destination %s: %w", destination, ErrNotFound)
	}
	if src.ID == dst.ID {
		return nil, nil
	}

	var changed []Entry
	for _, e := range entries {
		if e.ID == src.ID {
			continue
		}
		switch {
		case src.Order < dst.Order && e.Order > src.Order && e.Order <= dst.Order:
			changed = append(changed, Entry{ID: e.ID, Order: e.Order - 1})
		case src.Order > dst.Order && e.Order >= dst.Order && e.Order < src.Order:
			changed = append(changed, Entry{ID: e.ID, Order: e.Order + 1})
		}
	}
	changed = append(changed, Entry{ID: src.ID, Order: dst.Order})
	return changed, nil
}

// Apply returns a copy of entries with changes applied, dropping any entry
// whose ID is in removed.
func Apply(entries, changes []Entry, removed ...uuid.UUID) []Entry {
	next := make(map[uuid.UUID]int, len(changes))
	for _, c := range changes {
		next[c.ID] = c.Order
	}
	gone := make(map[uuid.UUID]bool, len(removed))
	for _, id := range removed {
		gone[id] = true
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if gone[e.ID] {
			continue
		}
		if o, ok := next[e.ID]; ok {
			e.Order = o
		}
		out = append(out, e)
	}
	return out
}

// Validate reports whether entries hold exactly the orders 0..len-1, each once.
func Validate(entries []Entry) error {
	seen := make([]bool, len(entries))
	for _, e := range entries {
		if e.Order < 0 || e.Order >= len(entries) {
			return fmt.Errorf("%w: order %d out of range for %d items", ErrNotDense, e.Order, len(entries))
		}
		if seen[e.Order] {
			return fmt.Errorf("%w: duplicate order %d", ErrNotDense, e.Order)
		}
		seen[e.Order] = true
	}
	return nil
}

// Sorted returns a copy of entries sorted by order.
func Sorted(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func find(entries []Entry, id uuid.UUID) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
