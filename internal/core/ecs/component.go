package ecs

// Removable lets the Registry drop an entity from a store when the destroy
// queue is flushed.
type Removable interface {
	Remove(id EntityID)
}

// PtrComponentStore maps entity handles to pointers. Worlds keep their actors
// in one, so a handle resolves to the same *T for as long as it is alive.
type PtrComponentStore[T any] struct {
	byID map[EntityID]*T
}

func NewPtrComponentStore[T any]() *PtrComponentStore[T] {
	return &PtrComponentStore[T]{byID: make(map[EntityID]*T, 256)}
}

// Set binds v to id, replacing any previous value.
func (s *PtrComponentStore[T]) Set(id EntityID, v *T) { s.byID[id] = v }

// Get returns the value bound to id. Stale handles are never present because
// the registry removes them on flush.
func (s *PtrComponentStore[T]) Get(id EntityID) (*T, bool) {
	v, ok := s.byID[id]
	return v, ok
}

func (s *PtrComponentStore[T]) Remove(id EntityID) { delete(s.byID, id) }

func (s *PtrComponentStore[T]) Has(id EntityID) bool {
	_, ok := s.byID[id]
	return ok
}

// Len counts bound handles, including ones queued for destruction.
func (s *PtrComponentStore[T]) Len() int { return len(s.byID) }
