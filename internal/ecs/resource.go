package ecs

import "reflect"

// AddResource installs the single global instance of type R, replacing
// any previous instance.
func AddResource[R any](w *World, r R) {
	w.resources[reflect.TypeFor[R]()] = &r
}

// Resource returns a mutable reference to the resource of type R.
// Absence is a valid, checkable state.
func Resource[R any](w *World) (*R, bool) {
	v, ok := w.resources[reflect.TypeFor[R]()]
	if !ok {
		return nil, false
	}
	return v.(*R), true
}

// RemoveResource detaches and returns the resource of type R.
func RemoveResource[R any](w *World) (R, bool) {
	var zero R
	t := reflect.TypeFor[R]()
	v, ok := w.resources[t]
	if !ok {
		return zero, false
	}
	delete(w.resources, t)
	return *v.(*R), true
}

// ResourceOrDefault returns the resource of type R, creating a
// zero-valued instance on first access if none exists.
func ResourceOrDefault[R any](w *World) *R {
	t := reflect.TypeFor[R]()
	v, ok := w.resources[t]
	if !ok {
		v = new(R)
		w.resources[t] = v
	}
	return v.(*R)
}
