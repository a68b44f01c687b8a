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

// Package assembler reassembles newline-delimited records out of an
// arbitrarily fragmented byte stream. One Assembler belongs to exactly one
// connection; it is never shared.
package assembler

import (
	"github.com/ringsocket/ringsocket/internal/mempool"
	"github.com/ringsocket/ringsocket/internal/store"
)

const lf = '\n'

// Assembler holds the bytes received on a connection that have not yet been
// terminated by LF. The zero value is ready to use.
type Assembler struct {
	partial []byte // mempool-backed; nil when empty
}

// Feed appends incoming to the assembler's partial buffer, splits on every
// LF, and returns the newly completed records in order. Each returned
// Record owns its own pooled buffer, independent of the assembler's
// internal state; bytes that don't end in LF remain held in partial for the
// next call. Feed never discards a byte: every byte received appears
// either in a returned Record or in partial.
func (a *Assembler) Feed(incoming []byte) []store.Record {
	buf := a.partial
	if buf == nil {
		buf = mempool.Malloc(0)
	}
	buf = mempool.Append(buf, incoming...)

	var completed []store.Record
	start := 0
	for i := 0; i < len(buf); i++ {
		if buf[i] == lf {
			completed = append(completed, store.NewRecord(buf[start:i+1]))
			start = i + 1
		}
	}

	if start > 0 {
		remaining := copy(buf, buf[start:])
		buf = buf[:remaining]
	}
	if len(buf) == 0 {
		mempool.Free(buf)
		buf = nil
	}
	a.partial = buf
	return completed
}

// HasPartial reports whether any unterminated bytes are currently buffered.
func (a *Assembler) HasPartial() bool {
	return len(a.partial) > 0
}

// Close discards partial unconditionally, releasing its pooled buffer.
// Bytes held in partial at Close time never become a Record: a record not
// terminated by LF before the connection closes is lost, by design.
func (a *Assembler) Close() {
	if a.partial != nil {
		mempool.Free(a.partial)
		a.partial = nil
	}
}
