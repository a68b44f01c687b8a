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

// Package connio wraps a net.Conn with the zero-copy bufiox reader/writer
// pair and a connection state tracked by a single atomic flag rather than
// a file-descriptor poller: a handler here is always a single goroutine
// already blocked in Read, so there is no independent readiness source to
// multiplex over, only the handler's own observation of EOF/error and a
// close initiated by the server.
package connio

import (
	"net"
	"sync/atomic"

	"github.com/ringsocket/ringsocket/bufiox"
)

// State describes the lifecycle of a connection as observed locally.
type State uint32

const (
	// StateOK means the connection is open and healthy.
	StateOK State = iota
	// StateRemoteClosed means the peer closed its write side; the handler
	// detected this as io.EOF on a Read.
	StateRemoteClosed
	// StateClosed means Close was called, locally or by the server.
	StateClosed
)

// Conn wraps a net.Conn with nocopy reader/writer access and a State.
type Conn struct {
	net.Conn

	reader *bufiox.DefaultReader
	writer bufiox.Writer

	state uint32
}

// Wrap constructs a Conn around an already-accepted net.Conn.
func Wrap(cn net.Conn) *Conn {
	return &Conn{
		Conn:   cn,
		reader: bufiox.NewDefaultReader(cn),
		writer: bufiox.NewDefaultWriter(cn),
	}
}

// Reader returns the *bufiox.DefaultReader for this connection. The
// concrete type (rather than the bufiox.Reader interface) is exposed
// because callers need its plain io.Reader-style Read, which returns
// whatever is already available instead of blocking for a full buffer the
// way ReadBinary does.
func (c *Conn) Reader() *bufiox.DefaultReader {
	return c.reader
}

// Writer returns the bufiox.Writer for nocopy, writev-batched writes.
func (c *Conn) Writer() bufiox.Writer {
	return c.writer
}

// State returns the connection's last observed state.
func (c *Conn) State() State {
	return State(atomic.LoadUint32(&c.state))
}

// MarkRemoteClosed records that the peer ended the connection. Called by the
// handler when a read returns io.EOF; it has no effect after Close.
func (c *Conn) MarkRemoteClosed() {
	atomic.CompareAndSwapUint32(&c.state, uint32(StateOK), uint32(StateRemoteClosed))
}

// Close marks the connection closed and closes the underlying socket. Safe
// to call more than once; only the first call closes the socket.
func (c *Conn) Close() error {
	if !atomic.CompareAndSwapUint32(&c.state, uint32(StateOK), uint32(StateClosed)) &&
		!atomic.CompareAndSwapUint32(&c.state, uint32(StateRemoteClosed), uint32(StateClosed)) {
		return nil
	}
	return c.Conn.Close()
}
