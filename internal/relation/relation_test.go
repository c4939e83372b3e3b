package relation

import (
	"testing"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

func TestAddAndFindJoinColumn(t *testing.T) {
	r := NewRegistry()
	left := value.NewTable([]string{"id"})
	right := value.NewTable([]string{"uid"})

	r.Add(left, "id", right, "uid", "number")

	lc, rc, ok := r.FindJoinColumn(left, right)
	if !ok || lc != "id" || rc != "uid" {
		t.Fatalf("FindJoinColumn(left,right) = %q %q %v", lc, rc, ok)
	}
}

func TestFindJoinColumnIsSymmetric(t *testing.T) {
	r := NewRegistry()
	left := value.NewTable([]string{"id"})
	right := value.NewTable([]string{"uid"})
	r.Add(left, "id", right, "uid", "number")

	lc, rc, ok := r.FindJoinColumn(right, left)
	if !ok || lc != "uid" || rc != "id" {
		t.Fatalf("FindJoinColumn(right,left) = %q %q %v", lc, rc, ok)
	}
}

func TestFindJoinColumnMissingReturnsFalse(t *testing.T) {
	r := NewRegistry()
	left := value.NewTable([]string{"id"})
	right := value.NewTable([]string{"uid"})
	unrelated := value.NewTable([]string{"x"})

	if _, _, ok := r.FindJoinColumn(left, unrelated); ok {
		t.Fatal("expected no relation between left and unrelated")
	}
	_ = right
}

func TestRemoveDeletesByID(t *testing.T) {
	r := NewRegistry()
	left := value.NewTable([]string{"id"})
	right := value.NewTable([]string{"uid"})
	id := r.Add(left, "id", right, "uid", "number")

	if !r.Remove(id) {
		t.Fatal("Remove should report true for an existing relation")
	}
	if r.Remove(id) {
		t.Fatal("Remove should report false the second time")
	}
	if _, _, ok := r.FindJoinColumn(left, right); ok {
		t.Fatal("relation should no longer be found after Remove")
	}
}

func TestForColumnFindsBothSides(t *testing.T) {
	r := NewRegistry()
	left := value.NewTable([]string{"id"})
	right := value.NewTable([]string{"uid"})
	r.Add(left, "id", right, "uid", "number")

	if got := r.ForColumn(left, "id"); len(got) != 1 {
		t.Fatalf("ForColumn(left,id) = %d relations, want 1", len(got))
	}
	if got := r.ForColumn(right, "uid"); len(got) != 1 {
		t.Fatalf("ForColumn(right,uid) = %d relations, want 1", len(got))
	}
	if got := r.ForColumn(left, "other"); len(got) != 0 {
		t.Fatalf("ForColumn(left,other) = %d relations, want 0", len(got))
	}
}

func TestClearRemovesEverything(t *testing.T) {
	r := NewRegistry()
	left := value.NewTable([]string{"id"})
	right := value.NewTable([]string{"uid"})
	r.Add(left, "id", right, "uid", "number")

	r.Clear()
	if len(r.All()) != 0 {
		t.Fatalf("All() after Clear = %d, want 0", len(r.All()))
	}
}

func TestGlobalReturnsSameRegistryEveryCall(t *testing.T) {
	if Global() != Global() {
		t.Fatal("Global() should return the same singleton instance")
	}
}
