package ecs

import (
	"iter"
	"reflect"
	"slices"
)

// Filter narrows a query to entities carrying particular components.
// Filters passed to Query compose with logical AND.
type Filter interface {
	componentType() reflect.Type
	match(w *World, e Entity) bool
}

type hasFilter struct {
	t reflect.Type
}

func (f hasFilter) componentType() reflect.Type { return f.t }

func (f hasFilter) match(w *World, e Entity) bool {
	st, ok := w.storages[f.t]
	if !ok {
		return false
	}
	_, ok = st.items[e]
	return ok
}

// Has matches entities that carry any value of component type C.
func Has[C any]() Filter {
	return hasFilter{t: reflect.TypeFor[C]()}
}

type exactFilter[C comparable] struct {
	want C
}

func (f exactFilter[C]) componentType() reflect.Type { return reflect.TypeFor[C]() }

func (f exactFilter[C]) match(w *World, e Entity) bool {
	p, ok := Get[C](w, e)
	return ok && *p == f.want
}

// Exact matches entities whose component of type C equals the given
// value.
func Exact[C comparable](want C) Filter {
	return exactFilter[C]{want: want}
}

// Query returns a restartable sequence of the entities matched by every
// filter, in ascending entity order. At least one filter is required; the
// first filter's component storage provides the candidate set.
func (w *World) Query(first Filter, rest ...Filter) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		st, ok := w.storages[first.componentType()]
		if !ok {
			return
		}
		candidates := make([]Entity, 0, len(st.items))
		for e := range st.items {
			candidates = append(candidates, e)
		}
		slices.Sort(candidates)
	outer:
		for _, e := range candidates {
			if !first.match(w, e) {
				continue
			}
			for _, f := range rest {
				if !f.match(w, e) {
					continue outer
				}
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Count reports how many entities match every filter.
func (w *World) Count(first Filter, rest ...Filter) int {
	n := 0
	for range w.Query(first, rest...) {
		n++
	}
	return n
}
