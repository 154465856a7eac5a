// Copyright 2025 The weenix-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package slot implements the generation-tagged slot table recommended by
// spec.md section 9 as the replacement for the self-referential pointer
// graphs (process<->parent, process<->children, thread<->process,
// handle<->vnode) found in the original C kernel. A Ref is a stable,
// comparable handle into a Table; it stays valid (and Get keeps returning
// the stored value) for the lifetime of the entry, and reliably fails once
// the slot has been reused for something else.
package slot

import "github.com/google/uuid"

// Ref identifies one entry in a Table at the moment it was issued.
type Ref struct {
	index int
	gen   uuid.UUID
}

// Valid reports whether r was ever issued by a Table.
func (r Ref) Valid() bool {
	return r.gen != uuid.Nil
}

// Index returns the slot index r was issued for. Callers that need a stable
// small integer identifier (a PID, an FD) on top of a Ref use this; staleness
// is still only decidable through Get, since the index alone is reused.
func (r Ref) Index() int {
	return r.index
}

type entry[T any] struct {
	gen    uuid.UUID
	value  T
	filled bool
}

// Table is a slot table keyed by (index, generation) pairs. It is not
// internally synchronized; callers needing concurrent access wrap it with
// their own critical section, matching the IPL discipline described in
// spec.md section 5.
type Table[T any] struct {
	entries []entry[T]
	free    []int
}

// New returns an empty table.
func New[T any]() *Table[T] {
	return &Table[T]{}
}

// Insert stores value in a free slot (reusing one if available) and returns
// a Ref to it.
func (t *Table[T]) Insert(value T) Ref {
	gen := uuid.New()
	if len(t.free) > 0 {
		idx := t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		t.entries[idx] = entry[T]{gen: gen, value: value, filled: true}
		return Ref{index: idx, gen: gen}
	}

	t.entries = append(t.entries, entry[T]{gen: gen, value: value, filled: true})
	return Ref{index: len(t.entries) - 1, gen: gen}
}

// Get returns the value stored at r and true, or the zero value and false if
// r no longer refers to a live entry.
func (t *Table[T]) Get(r Ref) (T, bool) {
	var zero T
	if r.index < 0 || r.index >= len(t.entries) {
		return zero, false
	}
	e := t.entries[r.index]
	if !e.filled || e.gen != r.gen {
		return zero, false
	}
	return e.value, true
}

// Set overwrites the value stored at r in place, returning false (and doing
// nothing) if r is stale.
func (t *Table[T]) Set(r Ref, value T) bool {
	if r.index < 0 || r.index >= len(t.entries) {
		return false
	}
	e := &t.entries[r.index]
	if !e.filled || e.gen != r.gen {
		return false
	}
	e.value = value
	return true
}

// Delete frees the slot at r, returning false if r was already stale.
func (t *Table[T]) Delete(r Ref) bool {
	if r.index < 0 || r.index >= len(t.entries) {
		return false
	}
	e := &t.entries[r.index]
	if !e.filled || e.gen != r.gen {
		return false
	}
	var zero T
	e.value = zero
	e.filled = false
	t.free = append(t.free, r.index)
	return true
}

// Each calls fn for every live entry, in index order. fn must not mutate the
// table.
func (t *Table[T]) Each(fn func(Ref, T)) {
	for i, e := range t.entries {
		if e.filled {
			fn(Ref{index: i, gen: e.gen}, e.value)
		}
	}
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	n := 0
	for _, e := range t.entries {
		if e.filled {
			n++
		}
	}
	return n
}
