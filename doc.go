// Package manufacture implements the runtime core of an Entity-Component-System
// engine: a World that owns all entity, component, resource and event state, and
// a Dispatcher that schedules registered systems into dependency-respecting
// stages and drives the fixed-rate main loop.
//
// Features:
// - Per-component-type storage variants (dense, map, ordered, dense-with-proxy).
// - Registries keyed by reflect.Type, so two types can never collide on identity.
// - Runtime-checked borrow discipline: many readers or one writer per identity.
// - Double-buffered events, deferred commands, singlefire triggers.
// - Automatic stage scheduling with Before/After constraints and cycle detection.
package manufacture
