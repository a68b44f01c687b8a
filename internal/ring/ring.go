/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package ring is a GC friendly, fixed-size ring container used as the
// index-navigation layer beneath the append-log store: it knows how to
// address a slot relative to a moving base, modulo its length, nothing
// more. Insertion order, occupancy, and eviction are bookkeeping the
// caller (store.Store) layers on top.
package ring

// Ring is a fixed-size ring of slots. Items are allocated by one malloc
// and the ring itself cannot grow or shrink; the value held in each slot
// can be freely read and overwritten.
type Ring[V any] struct {
	items []Item[V]
}

// Item is the element stored in the Ring.
type Item[V any] struct {
	value V
	idx   int
}

// New returns a ring of n zero-valued slots.
func New[V any](n int) *Ring[V] {
	r := &Ring[V]{items: make([]Item[V], n)}
	for i := range r.items {
		r.items[i].idx = i
	}
	return r
}

// Get returns the ith item.
func (r *Ring[V]) Get(i int) (*Item[V], bool) {
	if i < 0 || i >= len(r.items) {
		return nil, false
	}
	return &r.items[i], true
}

// SlotOf returns the item i slots forward of base, wrapping modulo the
// ring's length. This is the addressing mode the append-log store actually
// needs: base is its oldest-record offset, i counts how many records newer
// than the oldest, so the store never computes that modulo arithmetic
// itself — the ring owns it, since "wrap relative to a moving base" is
// exactly what distinguishes a ring from a plain slice.
func (r *Ring[V]) SlotOf(base, i int) (*Item[V], bool) {
	if len(r.items) == 0 {
		return nil, false
	}
	idx := (base + i) % len(r.items)
	if idx < 0 {
		idx += len(r.items)
	}
	return &r.items[idx], true
}

// Len returns the number of slots in the ring.
func (r *Ring[V]) Len() int {
	return len(r.items)
}

// Index returns the slot index of the item.
func (it *Item[V]) Index() int {
	return it.idx
}

// Value returns a copy of the slot's value.
func (it *Item[V]) Value() V {
	return it.value
}

// Pointer returns a pointer to the slot's value, for in-place mutation.
// Do not retain the pointer past the next call that might reallocate the ring
// (the ring never reallocates, so in practice the pointer is valid for the
// ring's lifetime).
func (it *Item[V]) Pointer() *V {
	return &it.value
}
