package manufacture

import "sort"

// Storage maps entity IDs to component values for one component type. At most
// one value exists per (storage, ID) pair; Insert overwrites. The variants
// trade insertion/removal cost against iteration density, but are functionally
// interchangeable through this contract.
type Storage[T any] interface {
	// Insert stores a component for the given entity, replacing any existing one.
	Insert(id EntityID, v T)
	// Remove deletes the entity's component. Removing an absent ID is a no-op.
	Remove(id EntityID)
	// Get returns a pointer to the entity's component, or (nil, false).
	// The pointer is only good until the next Insert or Remove.
	Get(id EntityID) (*T, bool)
	// Has reports whether the entity has a component in this storage.
	Has(id EntityID) bool
	// Len returns the number of stored components.
	Len() int
	// EachID visits every stored ID. Order is variant-specific; only
	// BTreeMapStorage guarantees ascending order.
	EachID(fn func(EntityID))
}

// InsertToken inserts via a token, skipping tokens already known invalid.
func InsertToken[T any](s Storage[T], t Token, v T) {
	if !t.Valid() {
		return
	}
	s.Insert(t.ID(), v)
}

// RemoveToken removes via a token, skipping tokens already known invalid.
func RemoveToken[T any](s Storage[T], t Token) {
	if !t.Valid() {
		return
	}
	s.Remove(t.ID())
}

// VecStorage keeps components in a slice indexed directly by entity ID.
// Fast lookups and dense iteration for low, contiguous ID ranges; memory
// proportional to the highest stored ID.
type VecStorage[T any] struct {
	slots   []T
	present []bool
	count   int
}

// NewVecStorage creates an empty VecStorage.
func NewVecStorage[T any]() *VecStorage[T] {
	return &VecStorage[T]{}
}

func (s *VecStorage[T]) Insert(id EntityID, v T) {
	if int(id) >= len(s.slots) {
		grow := int(id) + 1 - len(s.slots)
		s.slots = extendSlice(s.slots, grow)
		s.present = extendSlice(s.present, grow)
	}
	if !s.present[id] {
		s.count++
	}
	s.slots[id] = v
	s.present[id] = true
}

func (s *VecStorage[T]) Remove(id EntityID) {
	if int(id) >= len(s.present) || !s.present[id] {
		return
	}
	var zero T
	s.slots[id] = zero
	s.present[id] = false
	s.count--
}

func (s *VecStorage[T]) Get(id EntityID) (*T, bool) {
	if int(id) >= len(s.present) || !s.present[id] {
		return nil, false
	}
	return &s.slots[id], true
}

func (s *VecStorage[T]) Has(id EntityID) bool {
	return int(id) < len(s.present) && s.present[id]
}

func (s *VecStorage[T]) Len() int {
	return s.count
}

func (s *VecStorage[T]) EachID(fn func(EntityID)) {
	for i := range s.present {
		if s.present[i] {
			fn(EntityID(i))
		}
	}
}

// HashMapStorage keeps components in a map. Cheap for sparse, high-churn
// component sets; no iteration order.
type HashMapStorage[T any] struct {
	items map[EntityID]*T
}

// NewHashMapStorage creates an empty HashMapStorage.
func NewHashMapStorage[T any]() *HashMapStorage[T] {
	return &HashMapStorage[T]{items: make(map[EntityID]*T)}
}

func (s *HashMapStorage[T]) Insert(id EntityID, v T) {
	s.items[id] = &v
}

func (s *HashMapStorage[T]) Remove(id EntityID) {
	delete(s.items, id)
}

func (s *HashMapStorage[T]) Get(id EntityID) (*T, bool) {
	p, ok := s.items[id]
	return p, ok
}

func (s *HashMapStorage[T]) Has(id EntityID) bool {
	_, ok := s.items[id]
	return ok
}

func (s *HashMapStorage[T]) Len() int {
	return len(s.items)
}

func (s *HashMapStorage[T]) EachID(fn func(EntityID)) {
	for id := range s.items {
		fn(id)
	}
}

// BTreeMapStorage keeps components keyed by ID with a sorted index, so EachID
// visits IDs in ascending order. Inserts pay a binary-search shift; iteration
// is ordered and allocation-free.
type BTreeMapStorage[T any] struct {
	items map[EntityID]*T
	order []EntityID
}

// NewBTreeMapStorage creates an empty BTreeMapStorage.
func NewBTreeMapStorage[T any]() *BTreeMapStorage[T] {
	return &BTreeMapStorage[T]{items: make(map[EntityID]*T)}
}

func (s *BTreeMapStorage[T]) Insert(id EntityID, v T) {
	if _, ok := s.items[id]; !ok {
		i := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= id })
		s.order = append(s.order, 0)
		copy(s.order[i+1:], s.order[i:])
		s.order[i] = id
	}
	s.items[id] = &v
}

func (s *BTreeMapStorage[T]) Remove(id EntityID) {
	if _, ok := s.items[id]; !ok {
		return
	}
	delete(s.items, id)
	i := sort.Search(len(s.order), func(i int) bool { return s.order[i] >= id })
	s.order = append(s.order[:i], s.order[i+1:]...)
}

func (s *BTreeMapStorage[T]) Get(id EntityID) (*T, bool) {
	p, ok := s.items[id]
	return p, ok
}

func (s *BTreeMapStorage[T]) Has(id EntityID) bool {
	_, ok := s.items[id]
	return ok
}

func (s *BTreeMapStorage[T]) Len() int {
	return len(s.items)
}

func (s *BTreeMapStorage[T]) EachID(fn func(EntityID)) {
	for _, id := range s.order {
		fn(id)
	}
}

// DenseVecStorage packs components contiguously and maps IDs to packed slots
// through a sparse proxy index. Removal is O(1) by swapping the last element
// into the vacated slot; the proxy entry of the moved element's owner is then
// re-pointed at that slot.
type DenseVecStorage[T any] struct {
	dense []T
	ids   []EntityID // owner of each dense slot
	proxy []int      // EntityID -> dense slot, -1 when absent
}

// NewDenseVecStorage creates an empty DenseVecStorage.
func NewDenseVecStorage[T any]() *DenseVecStorage[T] {
	return &DenseVecStorage[T]{}
}

func (s *DenseVecStorage[T]) slot(id EntityID) int {
	if int(id) >= len(s.proxy) {
		return -1
	}
	return s.proxy[id]
}

func (s *DenseVecStorage[T]) Insert(id EntityID, v T) {
	if i := s.slot(id); i >= 0 {
		s.dense[i] = v
		return
	}
	for int(id) >= len(s.proxy) {
		s.proxy = append(s.proxy, -1)
	}
	s.proxy[id] = len(s.dense)
	s.dense = append(s.dense, v)
	s.ids = append(s.ids, id)
}

func (s *DenseVecStorage[T]) Remove(id EntityID) {
	i := s.slot(id)
	if i < 0 {
		return
	}
	last := len(s.dense) - 1
	if i < last {
		moved := s.ids[last]
		s.dense[i] = s.dense[last]
		s.ids[i] = moved
		s.proxy[moved] = i
	}
	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.ids = s.ids[:last]
	s.proxy[id] = -1
}

func (s *DenseVecStorage[T]) Get(id EntityID) (*T, bool) {
	i := s.slot(id)
	if i < 0 {
		return nil, false
	}
	return &s.dense[i], true
}

func (s *DenseVecStorage[T]) Has(id EntityID) bool {
	return s.slot(id) >= 0
}

func (s *DenseVecStorage[T]) Len() int {
	return len(s.dense)
}

func (s *DenseVecStorage[T]) EachID(fn func(EntityID)) {
	for _, id := range s.ids {
		fn(id)
	}
}
