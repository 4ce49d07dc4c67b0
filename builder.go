package manufacture

// EntityBuilder finalizes a spawn: the entity already exists by the time the
// builder is returned, and With calls attach its initial components.
type EntityBuilder struct {
	w      *World
	entity Entity
}

// With attaches a component to the entity being built. The component type
// must already be registered.
func With[T any](b *EntityBuilder, c T) *EntityBuilder {
	v := FetchMut[T](b.w)
	defer v.Close()
	v.Insert(b.entity.id, c)
	return b
}

// Entity returns the spawned entity record.
func (b *EntityBuilder) Entity() Entity {
	return b.entity
}

// ID returns the spawned entity's ID.
func (b *EntityBuilder) ID() EntityID {
	return b.entity.id
}

// Token returns a token for the spawned entity.
func (b *EntityBuilder) Token() Token {
	return b.entity.Token()
}
