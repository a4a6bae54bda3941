package pipeline

import (
	"sort"
	"testing"
)

// mk builds an expanded row for assignment tests.
func mk(base, reg int, fc string, bits int) ExpandedVariable {
	return ExpandedVariable{BaseIndex: base, Register: reg, FunctionCode: fc, TypeSize: bits}
}

func TestAssignHandlers(t *testing.T) {
	tests := []struct {
		name string
		rows []ExpandedVariable
		want []int // handler id per row, in input order
	}{
		{
			name: "contiguous same-function rows share a handler",
			rows: []ExpandedVariable{
				mk(0, 100, "3", 16),
				mk(1, 101, "3", 16),
				mk(2, 102, "3", 16),
			},
			want: []int{1, 1, 1},
		},
		{
			name: "32-bit widths advance the expected address by two",
			rows: []ExpandedVariable{
				mk(0, 100, "3", 32),
				mk(1, 102, "3", 32),
				mk(2, 104, "3", 16),
			},
			want: []int{1, 1, 1},
		},
		{
			name: "address gap starts a new handler",
			rows: []ExpandedVariable{
				mk(0, 100, "3", 16),
				mk(1, 102, "3", 16),
			},
			want: []int{1, 2},
		},
		{
			name: "function code change starts a new handler",
			rows: []ExpandedVariable{
				mk(0, 100, "3", 16),
				mk(1, 101, "4", 16),
			},
			want: []int{1, 2},
		},
		{
			name: "overlapping address starts a new handler",
			rows: []ExpandedVariable{
				mk(0, 100, "3", 32),
				mk(1, 101, "3", 16),
			},
			want: []int{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssignHandlers(tt.rows)
			for i, e := range got {
				if e.Handler != tt.want[i] {
					t.Errorf("row %d handler = %d, want %d", i, e.Handler, tt.want[i])
				}
			}
		})
	}
}

func TestAssignHandlersCapacityBoundary(t *testing.T) {
	// 124 contiguous 16-bit rows fill a handler exactly; the 125th is
	// contiguous and same-function but must start a new handler.
	rows := make([]ExpandedVariable, 0, HandlerCapacity+1)
	for i := 0; i <= HandlerCapacity; i++ {
		rows = append(rows, mk(i, 100+i, "3", 16))
	}
	got := AssignHandlers(rows)

	for i := 0; i < HandlerCapacity; i++ {
		if got[i].Handler != 1 {
			t.Fatalf("row %d handler = %d, want 1", i, got[i].Handler)
		}
	}
	if got[HandlerCapacity].Handler != 2 {
		t.Errorf("row %d handler = %d, want 2", HandlerCapacity, got[HandlerCapacity].Handler)
	}
}

func TestAssignHandlersCapacityWithWideRows(t *testing.T) {
	// 62 contiguous 32-bit rows occupy exactly 124 units; one more
	// contiguous 16-bit row must overflow into a second handler.
	rows := make([]ExpandedVariable, 0, 63)
	for i := 0; i < 62; i++ {
		rows = append(rows, mk(i, 200+2*i, "3", 32))
	}
	rows = append(rows, mk(62, 200+2*62, "3", 16))
	got := AssignHandlers(rows)

	if got[61].Handler != 1 {
		t.Fatalf("row 61 handler = %d, want 1", got[61].Handler)
	}
	if got[62].Handler != 2 {
		t.Errorf("row 62 handler = %d, want 2", got[62].Handler)
	}
}

// Contiguity is judged against the single most recently placed row, not
// against any member of the handler. A row whose address matches an
// earlier member's successor slot must still start a new handler.
func TestAssignHandlersContiguityIsAgainstLastRowOnly(t *testing.T) {
	rows := []ExpandedVariable{
		mk(0, 100, "3", 16),
		mk(1, 101, "3", 16),
		mk(2, 101, "3", 16), // duplicate address: successor of row 0, not of row 1
	}
	got := AssignHandlers(rows)
	if got[1].Handler != 1 {
		t.Fatalf("row 1 handler = %d, want 1", got[1].Handler)
	}
	if got[2].Handler != 2 {
		t.Errorf("row 2 handler = %d, want 2 (contiguity must use the last placed row)", got[2].Handler)
	}
}

func TestSortForAssignment(t *testing.T) {
	rows := []ExpandedVariable{
		mk(0, 200, "4", 16),
		mk(1, 100, "3", 16),
		mk(2, 50, "10", 16),
		mk(3, 101, "3", 16),
	}
	got := SortForAssignment(rows)

	wantOrder := []int{1, 3, 0, 2} // fc 3 (100,101), fc 4 (200), fc 10 (50)
	for i, e := range got {
		if e.BaseIndex != wantOrder[i] {
			t.Errorf("position %d has base index %d, want %d", i, e.BaseIndex, wantOrder[i])
		}
	}
	if rows[0].BaseIndex != 0 {
		t.Error("SortForAssignment mutated its input")
	}
}

func TestSortForAssignmentStableOnTies(t *testing.T) {
	// Equal (function, register) pairs must keep their original relative
	// order so handler assignment stays deterministic.
	rows := []ExpandedVariable{
		mk(0, 100, "3", 16),
		mk(1, 100, "3", 32),
		mk(2, 100, "3", 16),
	}
	got := SortForAssignment(rows)
	for i, e := range got {
		if e.BaseIndex != i {
			t.Errorf("position %d has base index %d, want %d", i, e.BaseIndex, i)
		}
	}
}

// Invariant checks over a mixed workload: every handler is homogeneous in
// function code, contiguous, and within capacity.
func TestAssignHandlersInvariants(t *testing.T) {
	var rows []ExpandedVariable
	reg := 0
	for i := 0; i < 300; i++ {
		fc := "3"
		if i%7 == 0 {
			fc = "4"
		}
		bits := 16
		if i%3 == 0 {
			bits = 32
		}
		if i%11 == 0 {
			reg += 5 // inject gaps
		}
		rows = append(rows, mk(i, reg, fc, bits))
		reg += widthUnits(bits)
	}

	got := AssignHandlers(SortForAssignment(rows))

	byHandler := make(map[int][]ExpandedVariable)
	for _, e := range got {
		byHandler[e.Handler] = append(byHandler[e.Handler], e)
	}

	for id, members := range byHandler {
		sort.Slice(members, func(i, j int) bool { return members[i].Register < members[j].Register })

		units := 0
		for i, m := range members {
			units += m.WidthUnits()
			if m.FunctionCode != members[0].FunctionCode {
				t.Errorf("handler %d mixes function codes %q and %q", id, members[0].FunctionCode, m.FunctionCode)
			}
			if i > 0 {
				prev := members[i-1]
				if m.Register != prev.Register+prev.WidthUnits() {
					t.Errorf("handler %d not contiguous at register %d", id, m.Register)
				}
			}
		}
		if units > HandlerCapacity {
			t.Errorf("handler %d occupies %d units, capacity is %d", id, units, HandlerCapacity)
		}
	}
}
