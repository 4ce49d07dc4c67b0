package manufacture

import (
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
)

// componentEntry is one registered component type: its storage behind a
// borrow cell, plus a type-erased remove hook used by despawn.
type componentEntry struct {
	name     string
	store    any // Storage[T]
	cell     borrowCell
	removeID func(EntityID)
}

// World is the sole owner of all entity, component, resource and event state.
// Every registry is keyed by reflect.Type, so identity collisions between
// distinct types are structurally impossible; the reflected type name is
// carried for diagnostics. All access goes through scoped, runtime-checked
// borrow views.
//
// A World is not safe for concurrent use; the engine is single-threaded by
// design and the borrow cells assume serial acquisition.
type World struct {
	log        zerolog.Logger
	entities   entityRegistry
	components map[reflect.Type]*componentEntry
	resources  resourceRegistry
	events     eventMap
	commands   commandQueue
	triggers   triggerQueue
	frames     uint64
	ticks      uint64
}

// NewWorld creates an empty World with the built-in AppExit event registered.
func NewWorld() *World {
	w := &World{
		log:        zerolog.Nop(),
		components: make(map[reflect.Type]*componentEntry),
		resources:  newResourceRegistry(),
		events:     newEventMap(),
	}
	w.commands.cell = borrowCell{name: "command queue"}
	w.triggers.cell = borrowCell{name: "trigger queue"}
	RegisterEvent[AppExit](w)
	return w
}

// SetLogger installs a logger for registration and lifecycle diagnostics.
// The default is a no-op logger.
func (w *World) SetLogger(log zerolog.Logger) {
	w.log = log
}

// RegisterComponent registers component type T backed by a DenseVecStorage.
// Registering the same type twice is a fatal wiring error.
func RegisterComponent[T any](w *World) {
	RegisterComponentStorage[T](w, NewDenseVecStorage[T]())
}

// RegisterComponentStorage registers component type T with an explicit
// storage variant.
func RegisterComponentStorage[T any](w *World, s Storage[T]) {
	t := reflect.TypeFor[T]()
	if _, ok := w.components[t]; ok {
		panic(fmt.Sprintf("ecs: attempted to override an existing component: %s", t.String()))
	}
	w.components[t] = &componentEntry{
		name:     t.String(),
		store:    s,
		cell:     borrowCell{name: "component " + t.String()},
		removeID: s.Remove,
	}
	w.log.Debug().Str("component", t.String()).Msg("registered component")
}

// DeregisterComponent removes component type T; all entities silently lose
// that component. Deregistering while the storage is borrowed is a fatal
// aliasing violation.
func DeregisterComponent[T any](w *World) {
	t := reflect.TypeFor[T]()
	if e, ok := w.components[t]; ok {
		e.cell.checkFree()
		delete(w.components, t)
	}
}

func componentEntryFor[T any](w *World) *componentEntry {
	t := reflect.TypeFor[T]()
	e, ok := w.components[t]
	if !ok {
		panic(fmt.Sprintf("ecs: tried to fetch an unregistered component: %s", t.String()))
	}
	return e
}

// Fetch opens a read borrow of T's storage. Any number of concurrent readers
// may coexist; a live writer makes this a fatal aliasing error.
func Fetch[T any](w *World) *CompView[T] {
	e := componentEntryFor[T](w)
	e.cell.acquireRead()
	return &CompView[T]{w: w, entry: e, store: e.store.(Storage[T])}
}

// FetchMut opens the exclusive write borrow of T's storage.
func FetchMut[T any](w *World) *CompViewMut[T] {
	e := componentEntryFor[T](w)
	e.cell.acquireWrite()
	return &CompViewMut[T]{w: w, entry: e, store: e.store.(Storage[T])}
}

// RegisterResource registers the process-wide singleton of type T with the
// given initial value. Duplicate registration is a fatal wiring error.
func RegisterResource[T any](w *World, value T) {
	t := reflect.TypeFor[T]()
	w.resources.add(t, t.String(), &value)
	w.log.Debug().Str("resource", t.String()).Msg("registered resource")
}

// DeregisterResource removes the singleton of type T. Deregistering while the
// resource is borrowed is a fatal aliasing violation.
func DeregisterResource[T any](w *World) {
	w.resources.remove(reflect.TypeFor[T]())
}

// FetchResource opens a read borrow of the T singleton.
func FetchResource[T any](w *World) *ResView[T] {
	e := w.resources.get(reflect.TypeFor[T]())
	e.cell.acquireRead()
	return &ResView[T]{entry: e}
}

// FetchResourceMut opens the exclusive write borrow of the T singleton.
func FetchResourceMut[T any](w *World) *ResViewMut[T] {
	e := w.resources.get(reflect.TypeFor[T]())
	e.cell.acquireWrite()
	return &ResViewMut[T]{entry: e}
}

// RegisterEvent registers event type E with an empty double buffer.
func RegisterEvent[E any](w *World) {
	registerEventPair[E](&w.events)
	w.log.Debug().Str("event", reflect.TypeFor[E]().String()).Msg("registered event")
}

// DeregisterEvent removes event type E and discards both of its buffers.
// Deregistering while either buffer is borrowed is a fatal aliasing violation.
func DeregisterEvent[E any](w *World) {
	w.events.deregister(reflect.TypeFor[E]())
}

// EventReaderFor opens a read borrow over last tick's events of type E.
func EventReaderFor[E any](w *World) *EventReader[E] {
	p := eventPairFor[E](&w.events)
	p.readCell.acquireRead()
	return &EventReader[E]{pair: p}
}

// EventWriterFor opens the write borrow over this tick's event buffer of
// type E.
func EventWriterFor[E any](w *World) *EventWriter[E] {
	p := eventPairFor[E](&w.events)
	p.writeCell.acquireWrite()
	return &EventWriter[E]{pair: p}
}

// CommandWriter opens the single mutable handle to the deferred command
// queue.
func (w *World) CommandWriter() *CommandWriter {
	w.commands.cell.acquireWrite()
	return &CommandWriter{q: &w.commands}
}

// TriggerWriter opens the single mutable handle to the trigger queue.
func (w *World) TriggerWriter() *TriggerWriter {
	w.triggers.cell.acquireWrite()
	return &TriggerWriter{q: &w.triggers}
}

// Spawn allocates the lowest available entity ID (recycled IDs first) and
// returns a builder for chaining initial components.
func (w *World) Spawn() *EntityBuilder {
	e := w.entities.spawn()
	return &EntityBuilder{w: w, entity: e}
}

// Despawn removes the entity and its components from every registered
// storage. Returns false when no such entity is alive; despawning twice is a
// no-op, not an error. Each storage is mutated under its own write borrow, so
// despawning while any component storage is borrowed is a fatal aliasing
// violation.
func (w *World) Despawn(id EntityID) bool {
	if !w.entities.despawn(id) {
		return false
	}
	for _, e := range w.components {
		e.cell.acquireWrite()
		e.removeID(id)
		e.cell.releaseWrite()
	}
	return true
}

// DespawnToken despawns via a token, validating it first. The token is
// invalidated either way.
func (w *World) DespawnToken(t *Token) bool {
	if !w.ValidateToken(t) {
		return false
	}
	t.valid = false
	return w.Despawn(t.id)
}

// ValidateToken reports whether the token still references a live entity.
// Validity is sticky: once this returns false for a token, the token is
// marked invalid and every later call returns false.
func (w *World) ValidateToken(t *Token) bool {
	if !t.valid {
		return false
	}
	e, ok := w.entities.get(t.id)
	if !ok || e.hash != t.hash {
		t.valid = false
		return false
	}
	return true
}

// Entity returns the live entity record for an ID.
func (w *World) Entity(id EntityID) (Entity, bool) {
	return w.entities.get(id)
}

// Alive reports whether an entity with the given ID currently exists.
func (w *World) Alive(id EntityID) bool {
	return w.entities.alive(id)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.entities.len()
}

// DrainCommands executes queued commands in arrival order until the queue is
// empty. The queue's borrow is only held between commands, so a command may
// open its own CommandWriter; anything it queues runs in this same drain.
func (w *World) DrainCommands() {
	for {
		w.commands.cell.acquireWrite()
		if len(w.commands.queue) == 0 {
			w.commands.cell.releaseWrite()
			return
		}
		cmd := w.commands.queue[0]
		w.commands.queue = w.commands.queue[1:]
		w.commands.cell.releaseWrite()
		cmd.Execute(w)
	}
}

// takeTriggers promotes accumulated triggers and returns this tick's batch.
func (w *World) takeTriggers() []string {
	return w.triggers.swap()
}

// pendingEventTypes returns the event types sent to during the current tick.
func (w *World) pendingEventTypes() []reflect.Type {
	return w.events.pendingTypes()
}

// RotateEvents swaps every event type's buffers: last tick's events vanish,
// this tick's sends become readable.
func (w *World) RotateEvents() {
	w.events.rotateAll()
}

// EndTick performs the end-of-tick maintenance for callers driving a World
// without a Dispatcher: drain commands, rotate event buffers, advance the
// tick counter.
func (w *World) EndTick() {
	w.DrainCommands()
	w.RotateEvents()
	w.advanceTick()
}

// drainExitCodes collects and clears every AppExit sent so far, from both
// buffers, so an exit requested before or after the tick rotation is seen
// the same frame.
func (w *World) drainExitCodes() []int {
	p := eventPairFor[AppExit](&w.events)
	if len(p.readBuf) == 0 && len(p.writeBuf) == 0 {
		return nil
	}
	codes := make([]int, 0, len(p.readBuf)+len(p.writeBuf))
	for _, e := range p.readBuf {
		codes = append(codes, e.Code)
	}
	for _, e := range p.writeBuf {
		codes = append(codes, e.Code)
	}
	p.readBuf = p.readBuf[:0]
	p.writeBuf = p.writeBuf[:0]
	return codes
}

// Frames returns the number of completed dispatcher frames.
func (w *World) Frames() uint64 {
	return w.frames
}

// Ticks returns the number of completed logic ticks.
func (w *World) Ticks() uint64 {
	return w.ticks
}

func (w *World) advanceFrame() {
	w.frames++
}

func (w *World) advanceTick() {
	w.ticks++
}

// CompView is a read borrow of one component type's storage.
type CompView[T any] struct {
	w      *World
	entry  *componentEntry
	store  Storage[T]
	closed bool
}

// Get returns the entity's component, or (nil, false) when absent. The view
// must not be used to mutate the component.
func (v *CompView[T]) Get(id EntityID) (*T, bool) {
	return v.store.Get(id)
}

// GetToken is Get with token validation; an invalid token yields no access.
func (v *CompView[T]) GetToken(t *Token) (*T, bool) {
	if !v.w.ValidateToken(t) {
		return nil, false
	}
	return v.store.Get(t.id)
}

// Has reports whether the entity has this component.
func (v *CompView[T]) Has(id EntityID) bool {
	return v.store.Has(id)
}

// Len returns the number of stored components.
func (v *CompView[T]) Len() int {
	return v.store.Len()
}

// EachID visits every stored entity ID in the storage's natural order.
func (v *CompView[T]) EachID(fn func(EntityID)) {
	v.store.EachID(fn)
}

func (v *CompView[T]) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.entry.cell.releaseRead()
}

// CompViewMut is the exclusive write borrow of one component type's storage.
type CompViewMut[T any] struct {
	w      *World
	entry  *componentEntry
	store  Storage[T]
	closed bool
}

// Get returns the entity's component for reading and writing.
func (v *CompViewMut[T]) Get(id EntityID) (*T, bool) {
	return v.store.Get(id)
}

// GetToken is Get with token validation.
func (v *CompViewMut[T]) GetToken(t *Token) (*T, bool) {
	if !v.w.ValidateToken(t) {
		return nil, false
	}
	return v.store.Get(t.id)
}

// Insert stores a component for the entity, replacing any existing one.
func (v *CompViewMut[T]) Insert(id EntityID, c T) {
	v.store.Insert(id, c)
}

// InsertToken inserts via a token; invalid tokens are ignored.
func (v *CompViewMut[T]) InsertToken(t *Token, c T) {
	if !v.w.ValidateToken(t) {
		return
	}
	v.store.Insert(t.id, c)
}

// Remove deletes the entity's component; absent IDs are a no-op.
func (v *CompViewMut[T]) Remove(id EntityID) {
	v.store.Remove(id)
}

// Has reports whether the entity has this component.
func (v *CompViewMut[T]) Has(id EntityID) bool {
	return v.store.Has(id)
}

// Len returns the number of stored components.
func (v *CompViewMut[T]) Len() int {
	return v.store.Len()
}

// EachID visits every stored entity ID in the storage's natural order.
func (v *CompViewMut[T]) EachID(fn func(EntityID)) {
	v.store.EachID(fn)
}

func (v *CompViewMut[T]) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.entry.cell.releaseWrite()
}
