package manufacture

// Request is the system-resource counterpart of Query: a scope through which
// a system fetches resources, event readers/writers and the command/trigger
// writers. Every borrow opened through the scope is tracked and released
// together by Close, on every exit path. Illegal combinations (two writers
// for one identity) fail the same aliasing check as direct fetches, at the
// accessor call.
type Request struct {
	w      *World
	open   []interface{ Close() }
	closed bool
}

// NewRequest opens a request scope on the World.
func NewRequest(w *World) *Request {
	return &Request{w: w}
}

func (r *Request) track(v interface{ Close() }) {
	r.open = append(r.open, v)
}

// Res fetches a read borrow of the T singleton for the scope's lifetime.
func Res[T any](r *Request) *T {
	v := FetchResource[T](r.w)
	r.track(v)
	return v.Value()
}

// ResMut fetches the exclusive borrow of the T singleton for the scope's
// lifetime.
func ResMut[T any](r *Request) *T {
	v := FetchResourceMut[T](r.w)
	r.track(v)
	return v.Value()
}

// Reader fetches a reader over last tick's events of type E.
func Reader[E any](r *Request) *EventReader[E] {
	v := EventReaderFor[E](r.w)
	r.track(v)
	return v
}

// Writer fetches the writer for this tick's events of type E.
func Writer[E any](r *Request) *EventWriter[E] {
	v := EventWriterFor[E](r.w)
	r.track(v)
	return v
}

// Commands fetches the command queue writer.
func (r *Request) Commands() *CommandWriter {
	v := r.w.CommandWriter()
	r.track(v)
	return v
}

// Triggers fetches the trigger queue writer.
func (r *Request) Triggers() *TriggerWriter {
	v := r.w.TriggerWriter()
	r.track(v)
	return v
}

// Close releases every borrow opened through the scope, most recent first.
// Safe to call more than once.
func (r *Request) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for i := len(r.open) - 1; i >= 0; i-- {
		r.open[i].Close()
	}
	r.open = nil
}
