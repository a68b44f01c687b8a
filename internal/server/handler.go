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
	"context"
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/ringsocket/ringsocket/internal/assembler"
	"github.com/ringsocket/ringsocket/internal/store"
)

// readPollInterval bounds how long a handler can sit blocked in Read before
// it wakes up to check for shutdown. It does not represent an error to the
// caller; a deadline expiring is the loop's heartbeat.
const readPollInterval = 250 * time.Millisecond

// handle runs one connection to completion: reassemble records, append each
// to the shared store, echo the store's contents back, repeat until EOF,
// error, or cancellation. It always marks c completed before returning,
// even on panic recovery upstream, so the registry can reap it.
func (s *Server) handle(ctx context.Context, c *connection) {
	defer c.markCompleted()
	defer c.conn.Close()

	log := s.log.With(zap.String("peer", c.peerAddr), zap.Uint64("handler", c.handlerIdentity))
	log.Debug("connection accepted")

	var asm assembler.Assembler
	defer asm.Close()

	buf := make([]byte, s.cfg.ReadChunkSize)

	for {
		if ctx.Err() != nil {
			log.Debug("connection handler observed shutdown")
			return
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(readPollInterval))
		n, err := c.conn.Reader().Read(buf)
		if n > 0 {
			for _, rec := range asm.Feed(buf[:n]) {
				s.appendAndEcho(log, c, rec)
			}
		}
		if err == nil {
			continue
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			continue
		}
		if errors.Is(err, io.EOF) {
			c.conn.MarkRemoteClosed()
			log.Debug("connection closed by peer",
				zap.Int("buffered", c.conn.Reader().Buffered()),
				zap.Bool("unterminated_record_lost", asm.HasPartial()))
			return
		}
		log.Warn("connection read failed", zap.Error(err),
			zap.Bool("unterminated_record_lost", asm.HasPartial()))
		return
	}
}

// appendAndEcho performs the one atomic "append, then echo everything" step
// described by the concurrency model: the store's lock is held across both
// the append and the full read-back, so no other append or read-back can
// interleave with this record's visibility.
func (s *Server) appendAndEcho(log *zap.Logger, c *connection, rec store.Record) {
	s.store.Lock()
	defer s.store.Unlock()

	if evicted, ok := s.store.Append(rec); ok {
		evicted.Release()
	}

	var slices [][]byte
	var pos uint64
	for {
		slice, n := s.store.ReadAt(pos, s.cfg.ReadChunkSize)
		if n == 0 {
			break
		}
		slices = append(slices, slice)
		pos += uint64(n)
	}

	w := c.conn.Writer()
	if _, err := w.WriteBinaries(slices...); err != nil {
		log.Warn("echo write failed", zap.Error(err))
		return
	}
	if err := w.Flush(); err != nil {
		log.Warn("echo flush failed", zap.Error(err))
	}
}
