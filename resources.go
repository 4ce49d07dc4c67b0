package manufacture

import (
	"fmt"
	"reflect"
)

// resourceEntry holds one registered singleton resource. The value is stored
// as a *T so read and write guards can hand out the same pointer.
type resourceEntry struct {
	name  string
	value any
	cell  borrowCell
}

// resourceRegistry manages process-wide singleton resources, keyed by
// reflect.Type so two distinct types can never collide on identity.
type resourceRegistry struct {
	entries map[reflect.Type]*resourceEntry
}

func newResourceRegistry() resourceRegistry {
	return resourceRegistry{entries: make(map[reflect.Type]*resourceEntry)}
}

func (r *resourceRegistry) add(t reflect.Type, name string, value any) {
	if _, ok := r.entries[t]; ok {
		panic(fmt.Sprintf("ecs: attempted to override an existing resource: %s", name))
	}
	r.entries[t] = &resourceEntry{
		name:  name,
		value: value,
		cell:  borrowCell{name: "resource " + name},
	}
}

// remove fails when the resource is still borrowed; the cell dies with the
// entry, so a live guard would otherwise dangle.
func (r *resourceRegistry) remove(t reflect.Type) {
	if e, ok := r.entries[t]; ok {
		e.cell.checkFree()
		delete(r.entries, t)
	}
}

// get fails fatally on a missing registration: fetching an unregistered
// resource is a wiring bug, never a normal runtime case.
func (r *resourceRegistry) get(t reflect.Type) *resourceEntry {
	e, ok := r.entries[t]
	if !ok {
		panic(fmt.Sprintf("ecs: tried to fetch an unregistered resource: %s", t.String()))
	}
	return e
}

// ResView is a read-only borrow of a resource. Close releases the borrow;
// it is safe to call more than once.
type ResView[T any] struct {
	entry  *resourceEntry
	closed bool
}

// Value returns the borrowed resource. The view must not be used to mutate it.
func (v *ResView[T]) Value() *T {
	return v.entry.value.(*T)
}

func (v *ResView[T]) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.entry.cell.releaseRead()
}

// ResViewMut is an exclusive borrow of a resource.
type ResViewMut[T any] struct {
	entry  *resourceEntry
	closed bool
}

// Value returns the borrowed resource for reading and writing.
func (v *ResViewMut[T]) Value() *T {
	return v.entry.value.(*T)
}

func (v *ResViewMut[T]) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.entry.cell.releaseWrite()
}
