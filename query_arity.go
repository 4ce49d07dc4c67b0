package manufacture

// Multi-component queries, expanded per arity. Tuples cap at four components;
// wider access patterns go through a Request scope instead.

// Query2 is a borrow-checked view over two component types.
type Query2[A, B any] struct {
	w       *World
	a       compSlot[A]
	b       compSlot[B]
	filters []Filter
	cur     int
	closed  bool
}

// NewQuery2 opens a query over components A and B with per-slot access modes.
func NewQuery2[A, B any](w *World, modeA, modeB Access) *Query2[A, B] {
	return &Query2[A, B]{
		w:   w,
		a:   openSlot[A](w, modeA),
		b:   openSlot[B](w, modeB),
		cur: -1,
	}
}

// Filter attaches membership filters; they apply to iteration only.
func (q *Query2[A, B]) Filter(fs ...Filter) *Query2[A, B] {
	q.filters = append(q.filters, fs...)
	return q
}

// Get returns the entity's components, or false when the entity is dead or
// lacks any required component. Optional slots yield nil instead of failing.
func (q *Query2[A, B]) Get(id EntityID) (*A, *B, bool) {
	if !q.w.Alive(id) || q.a.excludes(id) || q.b.excludes(id) {
		return nil, nil, false
	}
	return q.a.at(id), q.b.at(id), true
}

// GetToken is Get with token validation.
func (q *Query2[A, B]) GetToken(t *Token) (*A, *B, bool) {
	if !q.w.ValidateToken(t) {
		return nil, nil, false
	}
	return q.Get(t.id)
}

// Reset rewinds iteration to the first matching entity.
func (q *Query2[A, B]) Reset() {
	q.cur = -1
}

// Next advances to the next matching entity, returning false when done.
func (q *Query2[A, B]) Next() bool {
	metas := q.w.entities.metas
	for i := q.cur + 1; i < len(metas); i++ {
		id := EntityID(i)
		if !metas[i].alive || q.a.excludes(id) || q.b.excludes(id) || !filtersMatch(q.filters, id) {
			continue
		}
		q.cur = i
		return true
	}
	q.cur = len(metas)
	return false
}

// Entity returns the current iteration entity's ID.
func (q *Query2[A, B]) Entity() EntityID {
	return EntityID(q.cur)
}

// At returns the current entity's component pointers.
func (q *Query2[A, B]) At() (*A, *B) {
	id := EntityID(q.cur)
	return q.a.at(id), q.b.at(id)
}

// Close releases the query's borrows, including its filters.
func (q *Query2[A, B]) Close() {
	if q.closed {
		return
	}
	q.closed = true
	closeFilters(q.filters)
	q.b.close()
	q.a.close()
}

// Query3 is a borrow-checked view over three component types.
type Query3[A, B, C any] struct {
	w       *World
	a       compSlot[A]
	b       compSlot[B]
	c       compSlot[C]
	filters []Filter
	cur     int
	closed  bool
}

// NewQuery3 opens a query over components A, B and C with per-slot access
// modes.
func NewQuery3[A, B, C any](w *World, modeA, modeB, modeC Access) *Query3[A, B, C] {
	return &Query3[A, B, C]{
		w:   w,
		a:   openSlot[A](w, modeA),
		b:   openSlot[B](w, modeB),
		c:   openSlot[C](w, modeC),
		cur: -1,
	}
}

// Filter attaches membership filters; they apply to iteration only.
func (q *Query3[A, B, C]) Filter(fs ...Filter) *Query3[A, B, C] {
	q.filters = append(q.filters, fs...)
	return q
}

// Get returns the entity's components, or false when the entity is dead or
// lacks any required component.
func (q *Query3[A, B, C]) Get(id EntityID) (*A, *B, *C, bool) {
	if !q.w.Alive(id) || q.a.excludes(id) || q.b.excludes(id) || q.c.excludes(id) {
		return nil, nil, nil, false
	}
	return q.a.at(id), q.b.at(id), q.c.at(id), true
}

// GetToken is Get with token validation.
func (q *Query3[A, B, C]) GetToken(t *Token) (*A, *B, *C, bool) {
	if !q.w.ValidateToken(t) {
		return nil, nil, nil, false
	}
	return q.Get(t.id)
}

// Reset rewinds iteration to the first matching entity.
func (q *Query3[A, B, C]) Reset() {
	q.cur = -1
}

// Next advances to the next matching entity, returning false when done.
func (q *Query3[A, B, C]) Next() bool {
	metas := q.w.entities.metas
	for i := q.cur + 1; i < len(metas); i++ {
		id := EntityID(i)
		if !metas[i].alive || q.a.excludes(id) || q.b.excludes(id) || q.c.excludes(id) ||
			!filtersMatch(q.filters, id) {
			continue
		}
		q.cur = i
		return true
	}
	q.cur = len(metas)
	return false
}

// Entity returns the current iteration entity's ID.
func (q *Query3[A, B, C]) Entity() EntityID {
	return EntityID(q.cur)
}

// At returns the current entity's component pointers.
func (q *Query3[A, B, C]) At() (*A, *B, *C) {
	id := EntityID(q.cur)
	return q.a.at(id), q.b.at(id), q.c.at(id)
}

// Close releases the query's borrows, including its filters.
func (q *Query3[A, B, C]) Close() {
	if q.closed {
		return
	}
	q.closed = true
	closeFilters(q.filters)
	q.c.close()
	q.b.close()
	q.a.close()
}

// Query4 is a borrow-checked view over four component types.
type Query4[A, B, C, D any] struct {
	w       *World
	a       compSlot[A]
	b       compSlot[B]
	c       compSlot[C]
	d       compSlot[D]
	filters []Filter
	cur     int
	closed  bool
}

// NewQuery4 opens a query over components A, B, C and D with per-slot access
// modes.
func NewQuery4[A, B, C, D any](w *World, modeA, modeB, modeC, modeD Access) *Query4[A, B, C, D] {
	return &Query4[A, B, C, D]{
		w:   w,
		a:   openSlot[A](w, modeA),
		b:   openSlot[B](w, modeB),
		c:   openSlot[C](w, modeC),
		d:   openSlot[D](w, modeD),
		cur: -1,
	}
}

// Filter attaches membership filters; they apply to iteration only.
func (q *Query4[A, B, C, D]) Filter(fs ...Filter) *Query4[A, B, C, D] {
	q.filters = append(q.filters, fs...)
	return q
}

// Get returns the entity's components, or false when the entity is dead or
// lacks any required component.
func (q *Query4[A, B, C, D]) Get(id EntityID) (*A, *B, *C, *D, bool) {
	if !q.w.Alive(id) || q.a.excludes(id) || q.b.excludes(id) ||
		q.c.excludes(id) || q.d.excludes(id) {
		return nil, nil, nil, nil, false
	}
	return q.a.at(id), q.b.at(id), q.c.at(id), q.d.at(id), true
}

// GetToken is Get with token validation.
func (q *Query4[A, B, C, D]) GetToken(t *Token) (*A, *B, *C, *D, bool) {
	if !q.w.ValidateToken(t) {
		return nil, nil, nil, nil, false
	}
	return q.Get(t.id)
}

// Reset rewinds iteration to the first matching entity.
func (q *Query4[A, B, C, D]) Reset() {
	q.cur = -1
}

// Next advances to the next matching entity, returning false when done.
func (q *Query4[A, B, C, D]) Next() bool {
	metas := q.w.entities.metas
	for i := q.cur + 1; i < len(metas); i++ {
		id := EntityID(i)
		if !metas[i].alive || q.a.excludes(id) || q.b.excludes(id) ||
			q.c.excludes(id) || q.d.excludes(id) || !filtersMatch(q.filters, id) {
			continue
		}
		q.cur = i
		return true
	}
	q.cur = len(metas)
	return false
}

// Entity returns the current iteration entity's ID.
func (q *Query4[A, B, C, D]) Entity() EntityID {
	return EntityID(q.cur)
}

// At returns the current entity's component pointers.
func (q *Query4[A, B, C, D]) At() (*A, *B, *C, *D) {
	id := EntityID(q.cur)
	return q.a.at(id), q.b.at(id), q.c.at(id), q.d.at(id)
}

// Close releases the query's borrows, including its filters.
func (q *Query4[A, B, C, D]) Close() {
	if q.closed {
		return
	}
	q.closed = true
	closeFilters(q.filters)
	q.d.close()
	q.c.close()
	q.b.close()
	q.a.close()
}
