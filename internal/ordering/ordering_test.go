package ordering

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
)

// collection builds entries named by letter: collection("A","B") gives A:0, B:1.
func collection(names ...string) ([]Entry, map[string]uuid.UUID) {
	ids := make(map[string]uuid.UUID, len(names))
	entries := make([]Entry, len(names))
	for i, n := range names {
		id := uuid.New()
		ids[n] = id
		entries[i] = Entry{ID: id, Order: i}
	}
	return entries, ids
}

func orderOf(t *testing.T, entries []Entry, id uuid.UUID) int {
	t.Helper()
	for _, e := range entries {
		if e.ID == id {
			return e.Order
		}
	}
	t.Fatalf("id %s not found", id)
	return -1
}

// shuffled returns entries in a random iteration order, like an unordered
// to-many relationship would.
func shuffled(r *rand.Rand, entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// TestAppendKeepsDense verifies that every append lands on the next order and
// the collection stays exactly {0..n-1} after each step.
func TestAppendKeepsDense(t *testing.T) {
	var entries []Entry
	for i := 0; i < 25; i++ {
		o := Append(entries)
		if o != i {
			t.Fatalf("append #%d order = %d, want %d", i, o, i)
		}
		entries = append(entries, Entry{ID: uuid.New(), Order: o})
		if err := Validate(entries); err != nil {
			t.Fatalf("after append #%d: %v", i, err)
		}
	}
}

// TestRemoveMiddle checks [A:0,B:1,C:2] minus B gives [A:0,C:1].
func TestRemoveMiddle(t *testing.T) {
	entries, ids := collection("A", "B", "C")

	changed, err := Remove(entries, ids["B"])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := Apply(entries, changed, ids["B"])

	if len(after) != 2 {
		t.Fatalf("len = %d, want 2", len(after))
	}
	if got := orderOf(t, after, ids["A"]); got != 0 {
		t.Errorf("A = %d, want 0", got)
	}
	if got := orderOf(t, after, ids["C"]); got != 1 {
		t.Errorf("C = %d, want 1", got)
	}
}

// TestRemoveLastRenumbersNothing covers d = size-1: no sibling has a higher order.
func TestRemoveLastRenumbersNothing(t *testing.T) {
	entries, ids := collection("A", "B", "C")

	changed, err := Remove(entries, ids["C"])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changed) != 0 {
		t.Errorf("changed = %v, want none", changed)
	}
}

// TestRemoveAnyElement removes every position of several collection sizes
// and checks the survivors are dense and unique.
func TestRemoveAnyElement(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for n := 1; n <= 12; n++ {
		for victim := 0; victim < n; victim++ {
			entries, _ := collection(letters(n)...)
			id := entries[victim].ID
			entries = shuffled(r, entries)

			changed, err := Remove(entries, id)
			if err != nil {
				t.Fatalf("n=%d victim=%d: %v", n, victim, err)
			}
			after := Apply(entries, changed, id)
			if len(after) != n-1 {
				t.Fatalf("n=%d victim=%d: len = %d", n, victim, len(after))
			}
			if err := Validate(after); err != nil {
				t.Fatalf("n=%d victim=%d: %v", n, victim, err)
			}
		}
	}
}

// TestMoveDown checks [A:0,B:1,C:2,D:3] Move(A, C) gives [B:0,C:1,A:2,D:3].
func TestMoveDown(t *testing.T) {
	entries, ids := collection("A", "B", "C", "D")

	changed, err := Move(entries, ids["A"], ids["C"])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := Apply(entries, changed)

	want := map[string]int{"B": 0, "C": 1, "A": 2, "D": 3}
	for name, order := range want {
		if got := orderOf(t, after, ids[name]); got != order {
			t.Errorf("%s = %d, want %d", name, got, order)
		}
	}
}

// TestMoveUp checks [A:0,B:1,C:2,D:3] Move(D, B) gives [A:0,D:1,B:2,C:3].
func TestMoveUp(t *testing.T) {
	entries, ids := collection("A", "B", "C", "D")

	changed, err := Move(entries, ids["D"], ids["B"])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := Apply(entries, changed)

	want := map[string]int{"A": 0, "D": 1, "B": 2, "C": 3}
	for name, order := range want {
		if got := orderOf(t, after, ids[name]); got != order {
			t.Errorf("%s = %d, want %d", name, got, order)
		}
	}
}

// TestMoveOntoSelfIsNoop verifies Move(x, x) reports no changes for every position.
func TestMoveOntoSelfIsNoop(t *testing.T) {
	entries, _ := collection("A", "B", "C", "D")
	for _, e := range entries {
		changed, err := Move(entries, e.ID, e.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(changed) != 0 {
			t.Errorf("Move(%d,%d) changed %v, want none", e.Order, e.Order, changed)
		}
	}
}

// TestMoveAllPairs checks every (source, destination) pair in collections of
// several sizes: source lands on destination's old order, the order set is
// unchanged, and only the range between the two positions moves.
func TestMoveAllPairs(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for n := 2; n <= 9; n++ {
		for s := 0; s < n; s++ {
			for d := 0; d < n; d++ {
				if s == d {
					continue
				}
				base, _ := collection(letters(n)...)
				src, dst := base[s].ID, base[d].ID
				entries := shuffled(r, base)

				changed, err := Move(entries, src, dst)
				if err != nil {
					t.Fatalf("n=%d %d->%d: %v", n, s, d, err)
				}
				after := Apply(entries, changed)

				if got := orderOf(t, after, src); got != d {
					t.Errorf("n=%d %d->%d: source order = %d, want %d", n, s, d, got, d)
				}
				if err := Validate(after); err != nil {
					t.Errorf("n=%d %d->%d: %v", n, s, d, err)
				}

				lo, hi := min(s, d), max(s, d)
				for i, e := range base {
					if i >= lo && i <= hi {
						continue
					}
					if got := orderOf(t, after, e.ID); got != e.Order {
						t.Errorf("n=%d %d->%d: untouched entry %d moved to %d", n, s, d, e.Order, got)
					}
				}
			}
		}
	}
}

// TestRandomSequenceStaysDense drives a random mix of append, remove and move
// and validates the invariant after every step.
func TestRandomSequenceStaysDense(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	var entries []Entry

	for step := 0; step < 2000; step++ {
		switch op := r.IntN(3); {
		case op == 0 || len(entries) == 0:
			entries = append(entries, Entry{ID: uuid.New(), Order: Append(entries)})
		case op == 1:
			id := entries[r.IntN(len(entries))].ID
			changed, err := Remove(entries, id)
			if err != nil {
				t.Fatalf("step %d remove: %v", step, err)
			}
			entries = Apply(entries, changed, id)
		default:
			src := entries[r.IntN(len(entries))].ID
			dst := entries[r.IntN(len(entries))].ID
			changed, err := Move(entries, src, dst)
			if err != nil {
				t.Fatalf("step %d move: %v", step, err)
			}
			entries = Apply(entries, changed)
		}
		if err := Validate(entries); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		entries = shuffled(r, entries)
	}
}

// TestUnknownIDs verifies that IDs outside the collection are rejected.
func TestUnknownIDs(t *testing.T) {
	entries, ids := collection("A", "B")
	stranger := uuid.New()

	if _, err := Remove(entries, stranger); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(stranger) err = %v, want ErrNotFound", err)
	}
	if _, err := Move(entries, stranger, ids["A"]); !errors.Is(err, ErrNotFound) {
		t.Errorf("Move(stranger, A) err = %v, want ErrNotFound", err)
	}
	if _, err := Move(entries, ids["A"], stranger); !errors.Is(err, ErrNotFound) {
		t.Errorf("Move(A, stranger) err = %v, want ErrNotFound", err)
	}
}

// TestValidate covers gaps, duplicates and negative orders.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		orders  []int
		wantErr bool
	}{
		{name: "empty", orders: nil},
		{name: "dense", orders: []int{2, 0, 1}},
		{name: "gap", orders: []int{0, 2}, wantErr: true},
		{name: "duplicate", orders: []int{0, 1, 1}, wantErr: true},
		{name: "negative", orders: []int{-1, 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entries []Entry
			for _, o := range tt.orders {
				entries = append(entries, Entry{ID: uuid.New(), Order: o})
			}
			err := Validate(entries)
			if tt.wantErr && !errors.Is(err, ErrNotDense) {
				t.Errorf("err = %v, want ErrNotDense", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestMoveRefusesCorruptCollection verifies that renumbering is not applied
// on top of a collection that already has a gap.
func TestMoveRefusesCorruptCollection(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	entries := []Entry{{ID: a, Order: 0}, {ID: b, Order: 2}}

	if _, err := Move(entries, a, b); !errors.Is(err, ErrNotDense) {
		t.Errorf("err = %v, want ErrNotDense", err)
	}
	if _, err := Remove(entries, a); !errors.Is(err, ErrNotDense) {
		t.Errorf("err = %v, want ErrNotDense", err)
	}
}

// TestSorted verifies Sorted orders by position and leaves its input alone.
func TestSorted(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	in := []Entry{{ID: c, Order: 2}, {ID: a, Order: 0}, {ID: b, Order: 1}}

	out := Sorted(in)
	for i, e := range out {
		if e.Order != i {
			t.Errorf("out[%d].Order = %d", i, e.Order)
		}
	}
	if in[0].ID != c {
		t.Error("Sorted modified its input")
	}
}

func letters(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('A' + i))
	}
	return out
}
