// Package ecs implements the entity/component store backing the game
// state. Entities are opaque integer handles; typed facts ("components")
// attach to them, and singleton "resources" hold global state that
// belongs to no entity. The store is not goroutine safe; callers
// serialize access behind their own lock.
package ecs

import (
	"errors"
	"fmt"
	"reflect"
)

// Entity is an opaque handle into a World. Entities are allocated
// monotonically and never reused within a World's lifetime.
type Entity uint32

// ErrComponentExists is returned by Add when the entity already carries a
// component of the given type.
var ErrComponentExists = errors.New("ecs: component already exists for entity")

// store holds every component of a single type, keyed by entity.
// Values are pointers so lookups hand out stable, mutable references.
type store struct {
	items map[Entity]any
}

func newStore() *store {
	return &store{items: make(map[Entity]any)}
}

// World owns all component storages and resources for one game.
type World struct {
	storages  map[reflect.Type]*store
	resources map[reflect.Type]any
	next      Entity
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		storages:  make(map[reflect.Type]*store),
		resources: make(map[reflect.Type]any),
	}
}

// Clear removes every entity, component, and resource and restarts
// entity allocation from zero.
func (w *World) Clear() {
	w.storages = make(map[reflect.Type]*store)
	w.resources = make(map[reflect.Type]any)
	w.next = 0
}

func (w *World) storageFor(t reflect.Type) *store {
	st, ok := w.storages[t]
	if !ok {
		st = newStore()
		w.storages[t] = st
	}
	return st
}

// Spawn allocates a new entity and atomically attaches the given
// components. Supplying two components of the same type in one call is a
// programmer error and panics.
func (w *World) Spawn(components ...any) Entity {
	e := w.next
	w.next++
	for _, c := range components {
		t := reflect.TypeOf(c)
		st := w.storageFor(t)
		if _, exists := st.items[e]; exists {
			panic(fmt.Sprintf("ecs: duplicate component %s in Spawn", t))
		}
		p := reflect.New(t)
		p.Elem().Set(reflect.ValueOf(c))
		st.items[e] = p.Interface()
	}
	return e
}

// Add attaches a component to an entity. It fails if a component of that
// type is already present; callers that want replacement must Remove
// first.
func Add[C any](w *World, e Entity, c C) error {
	st := w.storageFor(reflect.TypeFor[C]())
	if _, exists := st.items[e]; exists {
		return fmt.Errorf("%w: %s on entity %d", ErrComponentExists, reflect.TypeFor[C](), e)
	}
	st.items[e] = &c
	return nil
}

// Remove detaches and returns the entity's component of type C.
func Remove[C any](w *World, e Entity) (C, bool) {
	var zero C
	st, ok := w.storages[reflect.TypeFor[C]()]
	if !ok {
		return zero, false
	}
	v, ok := st.items[e]
	if !ok {
		return zero, false
	}
	delete(st.items, e)
	return *v.(*C), true
}

// Get returns a mutable reference to the entity's component of type C.
func Get[C any](w *World, e Entity) (*C, bool) {
	st, ok := w.storages[reflect.TypeFor[C]()]
	if !ok {
		return nil, false
	}
	v, ok := st.items[e]
	if !ok {
		return nil, false
	}
	return v.(*C), true
}
