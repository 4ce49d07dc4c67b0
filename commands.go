package manufacture

// Command is a deferred World mutation. Commands queued during a tick are
// drained once per logic tick, after systems run, with exclusive access to
// the World. Typical uses: spawn/despawn, add/remove components, register new
// types.
type Command interface {
	Execute(w *World)
}

// CommandFunc adapts a plain function to the Command interface.
type CommandFunc func(w *World)

func (f CommandFunc) Execute(w *World) {
	f(w)
}

// commandQueue is the World's single deferred-command queue. Drain order is
// FIFO: commands run in the order they were queued. This is observable by
// callers and deliberate; a later command sees the effects of every earlier
// one.
type commandQueue struct {
	queue []Command
	cell  borrowCell
}

// CommandWriter is the single mutable handle to the command queue. Fetching a
// second writer before this one is closed fails the aliasing check.
type CommandWriter struct {
	q      *commandQueue
	closed bool
}

// Queue appends a command for the end-of-tick drain.
func (w *CommandWriter) Queue(cmd Command) {
	w.q.queue = append(w.q.queue, cmd)
}

// QueueFunc is shorthand for Queue(CommandFunc(fn)).
func (w *CommandWriter) QueueFunc(fn func(*World)) {
	w.Queue(CommandFunc(fn))
}

// Len returns the number of queued commands.
func (w *CommandWriter) Len() int {
	return len(w.q.queue)
}

func (w *CommandWriter) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.q.cell.releaseWrite()
}

// triggerQueue holds singlefire trigger names in two buffers: pending is what
// the current drain consumes, next accumulates triggers raised meanwhile.
// Swapping at the tick boundary means a singlefire firing a trigger during
// its own drain waits for the next tick instead of daisy-chaining.
type triggerQueue struct {
	pending []string
	next    []string
	cell    borrowCell
}

// swap promotes accumulated triggers and returns the batch to drain.
func (q *triggerQueue) swap() []string {
	q.pending = q.pending[:0]
	q.pending, q.next = q.next, q.pending
	return q.pending
}

// TriggerWriter is the single mutable handle to the trigger queue.
type TriggerWriter struct {
	q      *triggerQueue
	closed bool
}

// Fire queues the named singlefire system to run on the next logic tick.
func (w *TriggerWriter) Fire(systemID string) {
	w.q.next = append(w.q.next, systemID)
}

// Len returns the number of triggers accumulated for the next tick.
func (w *TriggerWriter) Len() int {
	return len(w.q.next)
}

func (w *TriggerWriter) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.q.cell.releaseWrite()
}
