// Copyright 2024 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store implements the bounded append-log: a fixed-capacity ring
// of LF-terminated records addressable either as a flat byte stream or by
// (record index, intra-record offset).
package store

import (
	"errors"
	"sync"

	"github.com/ringsocket/ringsocket/internal/mempool"
	"github.com/ringsocket/ringsocket/internal/ring"
)

// ErrInvalidArgument is returned by SeekTo when the coordinate does not
// address a valid position in the currently occupied window.
var ErrInvalidArgument = errors.New("store: invalid seek coordinate")

// DefaultCapacity is the number of records retained when none is configured.
const DefaultCapacity = 10

// Record is an immutable, LF-terminated byte sequence. Its backing array is
// allocated from mempool and must be released exactly once, either by the
// Store (on eviction or Drain) or by the caller if it never enters the Store.
type Record struct {
	buf []byte
}

// NewRecord copies data into a freshly pooled buffer and returns the Record
// owning it. data must end in '\n'; NewRecord does not check this, callers
// (the write assembler) are responsible for framing.
func NewRecord(data []byte) Record {
	buf := mempool.Malloc(len(data))
	copy(buf, data)
	return Record{buf: buf}
}

// Len returns the number of bytes in the record, including its trailing LF.
func (r Record) Len() int { return len(r.buf) }

// Bytes returns the record's bytes. The slice is borrowed; it is invalid
// after the record is freed.
func (r Record) Bytes() []byte { return r.buf }

// Release returns the record's backing buffer to the pool. Call exactly
// once: after Append returns it as evicted, or never if it stays in the
// Store (Drain releases those).
func (r Record) Release() {
	if r.buf != nil {
		mempool.Free(r.buf)
	}
}

// Store is a fixed-capacity ring of Records. The zero value is not usable;
// construct with New. Store is not safe for concurrent use on its own —
// callers must hold the lock (Lock/Unlock, embedded from sync.Mutex) around
// any sequence of mutating or traversing calls, including across an Append
// immediately followed by a ReadAt loop, so that the two form one atomic
// "append, then echo everything" step.
type Store struct {
	sync.Mutex

	ring *ring.Ring[Record]

	capacity  int
	inOff     int
	outOff    int
	full      bool
	totalSize uint64
}

// New returns an empty Store with room for capacity records.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		ring:     ring.New[Record](capacity),
		capacity: capacity,
	}
}

// occupiedCount returns how many slots currently hold a record.
// Caller must hold the lock.
func (s *Store) occupiedCount() int {
	if s.full {
		return s.capacity
	}
	return (s.inOff - s.outOff + s.capacity) % s.capacity
}

// recordAt returns the ith occupied record (0 = oldest). Caller must hold
// the lock and must have checked 0 <= i < occupiedCount().
func (s *Store) recordAt(i int) Record {
	it, _ := s.ring.SlotOf(s.outOff, i)
	return it.Value()
}

// Append transfers ownership of rec into the Store. If the Store was full,
// the oldest record is evicted and returned (ok=true) for the caller to
// dispose of; mempool.Free has NOT been called on it. Caller must hold the
// lock.
func (s *Store) Append(rec Record) (evicted Record, ok bool) {
	if s.full {
		it, _ := s.ring.Get(s.outOff)
		evicted = it.Value()
		ok = true
		s.totalSize -= uint64(evicted.Len())
		s.outOff = (s.outOff + 1) % s.capacity
	}

	it, _ := s.ring.Get(s.inOff)
	*it.Pointer() = rec
	s.totalSize += uint64(rec.Len())
	s.inOff = (s.inOff + 1) % s.capacity
	if s.inOff == s.outOff {
		s.full = true
	}
	return evicted, ok
}

// ReadAt locates the record covering logical position pos and returns a
// borrowed slice of up to maxBytes contiguous bytes starting there, plus the
// number of bytes returned. It never crosses a record boundary; callers
// loop, advancing pos by the returned count. A pos at or beyond LogicalSize
// returns (nil, 0) with no error: end of stream. Caller must hold the lock.
func (s *Store) ReadAt(pos uint64, maxBytes int) (slice []byte, n int) {
	count := s.occupiedCount()
	var cum uint64
	for i := 0; i < count; i++ {
		rec := s.recordAt(i)
		recLen := uint64(rec.Len())
		if pos < cum+recLen {
			off := pos - cum
			remain := recLen - off
			take := remain
			if uint64(maxBytes) < take {
				take = uint64(maxBytes)
			}
			return rec.Bytes()[off : off+take], int(take)
		}
		cum += recLen
	}
	return nil, 0
}

// SeekTo translates a (record index, intra-record offset) coordinate,
// relative to the currently occupied window (0 = oldest record), into an
// absolute logical position. off == length(record[cmd]) is valid and yields
// the position one past the record's last byte. Caller must hold the lock.
func (s *Store) SeekTo(cmd, off int) (pos uint64, err error) {
	count := s.occupiedCount()
	if cmd < 0 || cmd >= s.capacity || cmd >= count {
		return 0, ErrInvalidArgument
	}
	rec := s.recordAt(cmd)
	if off < 0 || off > rec.Len() {
		return 0, ErrInvalidArgument
	}
	var cum uint64
	for i := 0; i < cmd; i++ {
		cum += uint64(s.recordAt(i).Len())
	}
	return cum + uint64(off), nil
}

// LogicalSize returns the total length of all currently occupied records.
// Caller must hold the lock.
func (s *Store) LogicalSize() uint64 {
	return s.totalSize
}

// Drain releases every occupied record's backing buffer and resets the
// Store to empty. Caller must hold the lock.
func (s *Store) Drain() {
	count := s.occupiedCount()
	for i := 0; i < count; i++ {
		s.recordAt(i).Release()
	}
	s.inOff = 0
	s.outOff = 0
	s.full = false
	s.totalSize = 0
}
