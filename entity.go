package manufacture

import "math/rand/v2"

// EntityID is the numeric identity of an entity. IDs are densely recycled from
// despawned entities, so an ID alone is not a stable reference across ticks;
// use a Token for that.
type EntityID uint32

// Entity is a live entity record: its ID plus a random 32-bit instance hash.
// The hash distinguishes an entity from a later entity that recycled the same
// ID. Entities are owned exclusively by the World; callers hold IDs or Tokens.
type Entity struct {
	id   EntityID
	hash uint32
}

// ID returns the entity's numeric identity.
func (e Entity) ID() EntityID {
	return e.id
}

// Hash returns the entity's instance hash.
func (e Entity) Hash() uint32 {
	return e.hash
}

// Token returns a copyable, world-independent reference to this entity. The
// token stays valid for as long as an entity with the same ID and hash lives
// in the World.
func (e Entity) Token() Token {
	return Token{id: e.id, hash: e.hash, valid: true}
}

// Token is a snapshot reference to an entity. Validity is sticky: once a
// token has been observed invalid by World.ValidateToken it never reports
// valid again, even if the ID is recycled.
type Token struct {
	id    EntityID
	hash  uint32
	valid bool
}

// ID returns the referenced entity's ID. Only meaningful while Valid.
func (t Token) ID() EntityID {
	return t.id
}

// Hash returns the referenced entity's instance hash.
func (t Token) Hash() uint32 {
	return t.hash
}

// Valid reports the token's cached validity. It reflects the last
// World.ValidateToken call; a freshly minted token starts valid.
func (t Token) Valid() bool {
	return t.valid
}

// entityMeta holds the per-ID liveness state, indexed by EntityID.
type entityMeta struct {
	hash  uint32
	alive bool
}

// entityRegistry owns the live entity set and the recycled ID pool. Free IDs
// are kept in a min-heap so spawn always hands out the lowest available ID
// before growing the ID space.
type entityRegistry struct {
	metas   []entityMeta
	freeIDs []EntityID // min-heap, lowest ID on top
	count   int
}

func (r *entityRegistry) spawn() Entity {
	var id EntityID
	if len(r.freeIDs) > 0 {
		id = heapPop(&r.freeIDs)
	} else {
		id = EntityID(len(r.metas))
		r.metas = append(r.metas, entityMeta{})
	}
	hash := rand.Uint32()
	r.metas[id] = entityMeta{hash: hash, alive: true}
	r.count++
	return Entity{id: id, hash: hash}
}

func (r *entityRegistry) despawn(id EntityID) bool {
	if int(id) >= len(r.metas) || !r.metas[id].alive {
		return false
	}
	r.metas[id] = entityMeta{}
	heapPush(&r.freeIDs, id)
	r.count--
	return true
}

func (r *entityRegistry) alive(id EntityID) bool {
	return int(id) < len(r.metas) && r.metas[id].alive
}

func (r *entityRegistry) get(id EntityID) (Entity, bool) {
	if !r.alive(id) {
		return Entity{}, false
	}
	return Entity{id: id, hash: r.metas[id].hash}, true
}

func (r *entityRegistry) len() int {
	return r.count
}

// eachID visits every live entity ID in ascending order.
func (r *entityRegistry) eachID(fn func(EntityID)) {
	for i := range r.metas {
		if r.metas[i].alive {
			fn(EntityID(i))
		}
	}
}
