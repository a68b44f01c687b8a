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

package server

import (
	"net"
	"sync/atomic"

	"github.com/ringsocket/ringsocket/internal/connio"
)

// connection is one accepted client: its socket, a stable identity for log
// correlation, and the flag its handler sets on exit. Only the accept
// goroutine inserts into the registry and reaps from it, so completedFlag
// needs no lock of its own, just atomic visibility across the handler
// goroutine that sets it.
type connection struct {
	conn            *connio.Conn
	peerAddr        string
	handlerIdentity uint64
	completedFlag   uint32
}

func (c *connection) markCompleted() {
	atomic.StoreUint32(&c.completedFlag, 1)
}

func (c *connection) isCompleted() bool {
	return atomic.LoadUint32(&c.completedFlag) != 0
}

// registry tracks live connections between accept and reap. It is touched
// only from the accept goroutine: insert on accept, reap on the following
// loop iterations; Run's teardown calls drain only after that goroutine has
// returned. No mutex guards it by design (spec 5, "single-writer").
type registry struct {
	live []*connection
}

func (r *registry) insert(c *connection) {
	r.live = append(r.live, c)
}

// reap removes and returns every connection whose handler has finished,
// compacting the live slice in place.
func (r *registry) reap() []*connection {
	var done []*connection
	kept := r.live[:0]
	for _, c := range r.live {
		if c.isCompleted() {
			done = append(done, c)
		} else {
			kept = append(kept, c)
		}
	}
	r.live = kept
	return done
}

// drain returns every remaining connection regardless of completion state,
// used at teardown once all handlers are known to have exited.
func (r *registry) drain() []*connection {
	out := r.live
	r.live = nil
	return out
}

func newConnection(cn net.Conn, identity uint64) *connection {
	return &connection{
		conn:            connio.Wrap(cn),
		peerAddr:        cn.RemoteAddr().String(),
		handlerIdentity: identity,
	}
}
