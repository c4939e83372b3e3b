// Package relation tracks declared join relationships between table
// columns — a lightweight foreign-key registry the `relate`/`merge_tables`
// built-ins consult so `merge_tables` can find a join column without it
// being re-specified on every call (spec §7/§9 supplement).
//
// Grounded on original_source/value/relations.rs's `RelationRegistry`
// (a `Vec<Relation>` keyed by table pointer identity, reached through an
// unsafe static). Adapted into idiomatic Go: table identity is the
// `*value.Table` pointer itself (Go's GC keeps it alive and comparable, no
// `Rc<RefCell<_>>` needed), and the global registry is a `sync.RWMutex`-
// guarded struct built with `sync.Once` instead of an `unsafe` static,
// following internal/database/db_manager.go's `DBManager{connections,
// mu sync.RWMutex}` shape. Each Relation carries a `uuid.UUID` identity
// (github.com/google/uuid) so a specific relation can be named and removed
// later, the way DBManager's string connection IDs let a caller address
// one connection among many.
package relation

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// Relation records that column1 of table1 joins to column2 of table2.
type Relation struct {
	ID       uuid.UUID
	Table1   *value.Table
	Column1  string
	Table2   *value.Table
	Column2  string
	TypeName string // the join key's declared type, e.g. "number" or "string"
}

// Registry is a thread-safe collection of declared relations.
type Registry struct {
	mu        sync.RWMutex
	relations map[uuid.UUID]Relation
}

func NewRegistry() *Registry {
	return &Registry{relations: make(map[uuid.UUID]Relation)}
}

// Add declares a new relation and returns its generated ID.
func (r *Registry) Add(table1 *value.Table, column1 string, table2 *value.Table, column2, typeName string) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.relations[id] = Relation{
		ID: id, Table1: table1, Column1: column1,
		Table2: table2, Column2: column2, TypeName: typeName,
	}
	return id
}

// Remove deletes a relation by ID, reporting whether it existed.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.relations[id]; !ok {
		return false
	}
	delete(r.relations, id)
	return true
}

// All returns every declared relation, in no particular order.
func (r *Registry) All() []Relation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Relation, 0, len(r.relations))
	for _, rel := range r.relations {
		out = append(out, rel)
	}
	return out
}

// ForColumn returns every relation that touches table's column, from
// either side of the join.
func (r *Registry) ForColumn(table *value.Table, column string) []Relation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Relation
	for _, rel := range r.relations {
		if (rel.Table1 == table && rel.Column1 == column) ||
			(rel.Table2 == table && rel.Column2 == column) {
			out = append(out, rel)
		}
	}
	return out
}

// FindJoinColumn looks up a previously declared relation between left and
// right, returning the column pair to join on. ok is false if no relation
// connects the two tables.
func (r *Registry) FindJoinColumn(left, right *value.Table) (leftCol, rightCol string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rel := range r.relations {
		if rel.Table1 == left && rel.Table2 == right {
			return rel.Column1, rel.Column2, true
		}
		if rel.Table1 == right && rel.Table2 == left {
			return rel.Column2, rel.Column1, true
		}
	}
	return "", "", false
}

// Clear removes every declared relation.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relations = make(map[uuid.UUID]Relation)
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry every Interpreter shares by
// default, lazily constructed on first use.
func Global() *Registry {
	globalOnce.Do(func() { global = NewRegistry() })
	return global
}
