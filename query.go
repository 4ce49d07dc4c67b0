package manufacture

// Access declares how one query slot borrows its component storage. Optional
// slots never disqualify an entity; they yield a nil pointer when the
// component is absent.
type Access uint8

const (
	// Read borrows the slot's storage immutably; the component is required.
	Read Access = iota
	// Write borrows the slot's storage exclusively; the component is required.
	Write
	// OptRead borrows immutably; the component is optional.
	OptRead
	// OptWrite borrows exclusively; the component is optional.
	OptWrite
)

func (a Access) optional() bool {
	return a == OptRead || a == OptWrite
}

func (a Access) writes() bool {
	return a == Write || a == OptWrite
}

// compSlot is one fetched storage inside a query, borrowed for the query's
// whole lifetime. Component access during iteration re-borrows by ID each
// step, so no aggregate reference is ever held across iterations.
type compSlot[T any] struct {
	store Storage[T]
	entry *componentEntry
	mode  Access
}

func openSlot[T any](w *World, mode Access) compSlot[T] {
	e := componentEntryFor[T](w)
	if mode.writes() {
		e.cell.acquireWrite()
	} else {
		e.cell.acquireRead()
	}
	return compSlot[T]{store: e.store.(Storage[T]), entry: e, mode: mode}
}

func (s *compSlot[T]) close() {
	if s.mode.writes() {
		s.entry.cell.releaseWrite()
	} else {
		s.entry.cell.releaseRead()
	}
}

// excludes reports whether this slot rules the entity out of query results.
func (s *compSlot[T]) excludes(id EntityID) bool {
	return !s.mode.optional() && !s.store.Has(id)
}

// at returns the slot pointer for a matched entity; nil for an absent
// optional component.
func (s *compSlot[T]) at(id EntityID) *T {
	p, _ := s.store.Get(id)
	return p
}

// Filter restricts query iteration by membership in a component set the
// filter fetches read-only for itself, independent of what the query returns.
type Filter interface {
	matches(id EntityID) bool
	close()
}

type havingFilter[T any] struct {
	view *CompView[T]
}

// Having keeps only entities that have component T.
func Having[T any](w *World) Filter {
	return &havingFilter[T]{view: Fetch[T](w)}
}

func (f *havingFilter[T]) matches(id EntityID) bool {
	return f.view.Has(id)
}

func (f *havingFilter[T]) close() {
	f.view.Close()
}

type withoutFilter[T any] struct {
	view *CompView[T]
}

// Without keeps only entities that lack component T.
func Without[T any](w *World) Filter {
	return &withoutFilter[T]{view: Fetch[T](w)}
}

func (f *withoutFilter[T]) matches(id EntityID) bool {
	return !f.view.Has(id)
}

func (f *withoutFilter[T]) close() {
	f.view.Close()
}

func filtersMatch(fs []Filter, id EntityID) bool {
	for _, f := range fs {
		if !f.matches(id) {
			return false
		}
	}
	return true
}

func closeFilters(fs []Filter) {
	for _, f := range fs {
		f.close()
	}
}

// Query is a borrow-checked view over one component type. The constructor is
// the only place a borrow is opened; Close releases it (and any filters) on
// every path. Iteration follows the Reset/Next/At protocol and visits live
// entity IDs in ascending order.
type Query[A any] struct {
	w       *World
	a       compSlot[A]
	filters []Filter
	cur     int
	closed  bool
}

// NewQuery opens a query over component A with the given access mode.
func NewQuery[A any](w *World, mode Access) *Query[A] {
	return &Query[A]{w: w, a: openSlot[A](w, mode), cur: -1}
}

// Filter attaches membership filters; they apply to iteration only.
func (q *Query[A]) Filter(fs ...Filter) *Query[A] {
	q.filters = append(q.filters, fs...)
	return q
}

// Get returns the entity's component, or false when the entity is dead or
// lacks a required component. Optional slots yield nil instead of failing.
func (q *Query[A]) Get(id EntityID) (*A, bool) {
	if !q.w.Alive(id) || q.a.excludes(id) {
		return nil, false
	}
	return q.a.at(id), true
}

// GetToken is Get with token validation; an invalid token yields no access.
func (q *Query[A]) GetToken(t *Token) (*A, bool) {
	if !q.w.ValidateToken(t) {
		return nil, false
	}
	return q.Get(t.id)
}

// Reset rewinds iteration to the first matching entity.
func (q *Query[A]) Reset() {
	q.cur = -1
}

// Next advances to the next matching entity, returning false when done.
func (q *Query[A]) Next() bool {
	metas := q.w.entities.metas
	for i := q.cur + 1; i < len(metas); i++ {
		id := EntityID(i)
		if !metas[i].alive || q.a.excludes(id) || !filtersMatch(q.filters, id) {
			continue
		}
		q.cur = i
		return true
	}
	q.cur = len(metas)
	return false
}

// Entity returns the current iteration entity's ID.
func (q *Query[A]) Entity() EntityID {
	return EntityID(q.cur)
}

// At returns the current entity's component pointer (nil for an absent
// optional slot). Only valid after Next returned true.
func (q *Query[A]) At() *A {
	return q.a.at(EntityID(q.cur))
}

// Close releases the query's borrows, including its filters. Safe to call
// more than once.
func (q *Query[A]) Close() {
	if q.closed {
		return
	}
	q.closed = true
	closeFilters(q.filters)
	q.a.close()
}
