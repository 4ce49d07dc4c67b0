package manufacture

import (
	"fmt"
	"reflect"
)

// Events are transient values double-buffered per type: sends accumulate in
// the current (write) buffer, readers see only the previous tick's (read)
// buffer. At the tick boundary the read buffer is discarded and the buffers
// swap, so an event is readable for exactly one tick window.

// AppExit is the built-in shutdown event. Sending it asks the dispatcher to
// terminate its run loop at the end of the current frame; all codes sent in
// that frame are surfaced together.
type AppExit struct {
	Code int
}

// eventStore is the type-erased surface the World needs per event type.
type eventStore interface {
	id() string
	rotate()
	pending() int
	checkFree()
}

// eventPair is the typed double buffer for one event type.
type eventPair[E any] struct {
	name      string
	readBuf   []E
	writeBuf  []E
	readCell  borrowCell
	writeCell borrowCell
}

func newEventPair[E any](name string) *eventPair[E] {
	return &eventPair[E]{
		name:      name,
		readCell:  borrowCell{name: "event " + name + " (read)"},
		writeCell: borrowCell{name: "event " + name + " (write)"},
	}
}

func (p *eventPair[E]) id() string {
	return p.name
}

// rotate discards last tick's events and makes this tick's sends readable.
func (p *eventPair[E]) rotate() {
	p.readBuf = p.readBuf[:0]
	p.readBuf, p.writeBuf = p.writeBuf, p.readBuf
}

func (p *eventPair[E]) pending() int {
	return len(p.writeBuf)
}

// checkFree fails when either buffer is still borrowed.
func (p *eventPair[E]) checkFree() {
	p.readCell.checkFree()
	p.writeCell.checkFree()
}

// eventMap is the per-type event registry.
type eventMap struct {
	entries map[reflect.Type]eventStore
}

func newEventMap() eventMap {
	return eventMap{entries: make(map[reflect.Type]eventStore)}
}

func registerEventPair[E any](m *eventMap) {
	t := reflect.TypeFor[E]()
	if _, ok := m.entries[t]; ok {
		panic(fmt.Sprintf("ecs: conflicting event registration: %s", t.String()))
	}
	m.entries[t] = newEventPair[E](t.String())
}

// deregister fails when either of the type's buffers is still borrowed.
func (m *eventMap) deregister(t reflect.Type) {
	if e, ok := m.entries[t]; ok {
		e.checkFree()
		delete(m.entries, t)
	}
}

func eventPairFor[E any](m *eventMap) *eventPair[E] {
	t := reflect.TypeFor[E]()
	e, ok := m.entries[t]
	if !ok {
		panic(fmt.Sprintf("ecs: attempted to fetch unregistered event: %s", t.String()))
	}
	return e.(*eventPair[E])
}

func (m *eventMap) rotateAll() {
	for _, e := range m.entries {
		e.rotate()
	}
}

// pendingTypes returns the event types with at least one send this tick.
func (m *eventMap) pendingTypes() []reflect.Type {
	var out []reflect.Type
	for t, e := range m.entries {
		if e.pending() > 0 {
			out = append(out, t)
		}
	}
	return out
}

// EventReader is a read borrow over last tick's events of type E.
type EventReader[E any] struct {
	pair   *eventPair[E]
	closed bool
}

// Len returns the number of readable events.
func (r *EventReader[E]) Len() int {
	return len(r.pair.readBuf)
}

// Events returns last tick's events in send order. The slice is owned by the
// buffer and must not be retained past Close.
func (r *EventReader[E]) Events() []E {
	return r.pair.readBuf
}

// Each visits every readable event in send order.
func (r *EventReader[E]) Each(fn func(E)) {
	for _, e := range r.pair.readBuf {
		fn(e)
	}
}

func (r *EventReader[E]) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.pair.readCell.releaseRead()
}

// EventWriter is a write borrow over this tick's event buffer of type E. The
// writer may also read back what was already sent this tick.
type EventWriter[E any] struct {
	pair   *eventPair[E]
	closed bool
}

// Send queues an event for next tick's readers.
func (w *EventWriter[E]) Send(e E) {
	w.pair.writeBuf = append(w.pair.writeBuf, e)
}

// Len returns the number of events already sent this tick.
func (w *EventWriter[E]) Len() int {
	return len(w.pair.writeBuf)
}

// Events returns this tick's sends so far, in send order.
func (w *EventWriter[E]) Events() []E {
	return w.pair.writeBuf
}

func (w *EventWriter[E]) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.pair.writeCell.releaseWrite()
}
