package manufacture

import "reflect"

// SystemType places a system within the execution loop.
type SystemType uint8

const (
	// Logic systems run on the fixed-rate tick, staged by run order.
	Logic SystemType = iota
	// Preprocessor systems run every frame before the tick gate.
	Preprocessor
	// Postprocessor systems run every frame after the tick gate.
	Postprocessor
	// Singlefire systems run once per trigger naming their ID; never staged.
	Singlefire
	// EventResponder systems run when their event type was sent this tick;
	// never staged.
	EventResponder
)

func (t SystemType) String() string {
	switch t {
	case Logic:
		return "logic"
	case Preprocessor:
		return "preprocessor"
	case Postprocessor:
		return "postprocessor"
	case Singlefire:
		return "singlefire"
	case EventResponder:
		return "event-responder"
	default:
		return "unknown"
	}
}

// RunOrder is one ordering constraint between two systems of the same
// category. It constrains ordering only; use Depends for existence.
type RunOrder struct {
	target string
	after  bool
}

// Before constrains the declaring system to run in an earlier stage than the
// named system.
func Before(systemID string) RunOrder {
	return RunOrder{target: systemID}
}

// After constrains the declaring system to run in a later stage than the
// named system.
func After(systemID string) RunOrder {
	return RunOrder{target: systemID, after: true}
}

// SystemMeta is a system's registration record: identity, hard dependencies,
// ordering constraints and execution category. It lives inside the dispatcher
// builder and is discarded after scheduling, except for diagnostics.
type SystemMeta struct {
	// ID is the system's process-wide identity. Collisions across
	// independently authored modules are the caller's problem to avoid.
	ID string
	// Depends lists system IDs that must already be registered when this
	// system is added. Existence precondition, not an ordering hint.
	Depends []string
	// RunOrder lists Before/After constraints against same-category systems.
	RunOrder []RunOrder
	// Type is the execution category; zero value is Logic.
	Type SystemType
	// Event is the responded-to event type; EventResponder systems only.
	Event reflect.Type
}

// System is one unit of per-tick logic. Execute receives the World and opens
// its own Query and Request scopes; the dispatcher guarantees no two systems
// run interleaved, so borrows opened inside Execute never race.
type System interface {
	Meta() SystemMeta
	Execute(w *World)
}

// EventOf names an event type for SystemMeta.Event.
func EventOf[E any]() reflect.Type {
	return reflect.TypeFor[E]()
}
