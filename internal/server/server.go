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

// Package server accepts TCP connections, spawns one handler goroutine per
// connection, and coordinates their shared access to the ring store.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/ringsocket/ringsocket/concurrency/gopool"
	"github.com/ringsocket/ringsocket/hash/xfnv"
	"github.com/ringsocket/ringsocket/internal/config"
	"github.com/ringsocket/ringsocket/internal/store"
)

// Server owns the shared ring store, the listener, and the registry of
// live connections.
type Server struct {
	cfg *config.Config
	log *zap.Logger

	store *store.Store

	ln       net.Listener
	reg      registry
	wg       sync.WaitGroup
	identity uint64 // monotonically incremented, hashed via xfnv for log correlation

	pool *gopool.GoPool // dedicated to this server's handlers; not the package default

	ready chan struct{} // closed once the listener is open; Addr becomes valid
}

// New builds a Server around cfg and log. It does not open the listener;
// call Run for that. The handler pool is private to this Server, rather
// than the package-level default pool, so one server's panic policy and
// worker lifetime never leak into an unrelated user of this package in the
// same process.
func New(cfg *config.Config, log *zap.Logger) *Server {
	pool := gopool.NewHandlerPool("ringsocket-handlers", &gopool.Option{
		MaxIdleWorkers: 256,
		WorkerMaxAge:   30 * time.Second,
		TaskChanBuffer: 256,
	}, func(_ context.Context, r interface{}) {
		log.Error("recovered panic in connection handler", zap.Any("panic", r))
	})
	return &Server{
		cfg:   cfg,
		log:   log,
		store: store.New(cfg.RingCapacity),
		pool:  pool,
		ready: make(chan struct{}),
	}
}

// Addr blocks until the listener is open (or ctx is cancelled first) and
// returns its address. Intended for tests that bind an ephemeral port.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.ready:
		return s.ln.Addr(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// listenTCP builds the listening socket itself rather than going through
// net.ListenConfig, because net.Listen has no portable knob for the
// listen(2) backlog: the standard library always passes its own internal
// constant. SO_REUSEADDR is set on the raw socket for the same reason it
// used to be set via a Control callback — a restart should be able to
// rebind the port immediately.
func listenTCP(addr string, backlog int) (net.Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}

	domain := unix.AF_INET
	if tcpAddr.IP != nil && tcpAddr.IP.To4() == nil {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}

	if domain == unix.AF_INET {
		sa := &unix.SockaddrInet4{Port: tcpAddr.Port}
		if ip4 := tcpAddr.IP.To4(); ip4 != nil {
			copy(sa.Addr[:], ip4)
		}
		err = unix.Bind(fd, sa)
	} else {
		sa := &unix.SockaddrInet6{Port: tcpAddr.Port}
		if tcpAddr.IP != nil {
			copy(sa.Addr[:], tcpAddr.IP.To16())
		}
		if tcpAddr.Zone != "" {
			if iface, ierr := net.InterfaceByName(tcpAddr.Zone); ierr == nil {
				sa.ZoneId = uint32(iface.Index)
			}
		}
		err = unix.Bind(fd, sa)
	}
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}

	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("listen %s backlog %d: %w", addr, backlog, err)
	}

	f := os.NewFile(uintptr(fd), "ringsocket-listener")
	ln, err := net.FileListener(f)
	_ = f.Close() // FileListener dup'd fd; this closes our copy.
	if err != nil {
		return nil, fmt.Errorf("file listener: %w", err)
	}
	return ln, nil
}

// Run opens the listener and blocks until ctx is cancelled, then tears
// down: stop accepting, cancel outstanding handlers, join them, drain the
// store. It returns nil on a clean, cancellation-driven shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := listenTCP(s.cfg.ListenAddr, s.cfg.AcceptBacklog)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.ListenAddr, err)
	}
	s.ln = ln
	close(s.ready)
	s.log.Info("listening", zap.String("addr", s.cfg.ListenAddr))

	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.cfg.PeriodicWriterInterval > 0 {
		s.wg.Add(1)
		s.pool.Go(func() {
			defer s.wg.Done()
			s.runPeriodicAppender(handlerCtx)
		})
	}

	acceptErr := make(chan error, 1)
	s.pool.Go(func() {
		acceptErr <- s.acceptLoop(handlerCtx)
	})

	acceptExited := false
	select {
	case <-ctx.Done():
	case err := <-acceptErr:
		acceptExited = true
		if err != nil {
			s.log.Error("accept loop exited", zap.Error(err))
		}
	}

	cancel()
	_ = s.ln.Close()
	if !acceptExited {
		// acceptLoop must return before wg.Wait and the registry drain, so
		// no handler is added or registry entry touched concurrently.
		<-acceptErr
	}
	s.wg.Wait()
	if stragglers := s.reg.drain(); len(stragglers) > 0 {
		// wg.Wait guarantees every handler goroutine has already exited and
		// closed its own conn; reaching here only means acceptLoop's last
		// reap() pass never ran for them. Nothing left to do but count them.
		s.log.Debug("drained stragglers at shutdown", zap.Int("count", len(stragglers)))
	}
	s.store.Lock()
	s.store.Drain()
	s.store.Unlock()
	s.log.Info("shutdown complete")
	return nil
}

// acceptLoop accepts connections until ctx is cancelled. Accept errors are
// logged and retried on an exponential-backoff ticker so a transient
// file-descriptor shortage doesn't spin the loop hot; the ticker is rebuilt
// (implicitly resetting the backoff) after every successful accept.
func (s *Server) acceptLoop(ctx context.Context) error {
	var retry *backoff.Ticker

	for {
		if ctx.Err() != nil {
			return nil
		}

		cn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept failed", zap.Error(err))
			if retry == nil {
				retry = backoff.NewTicker(&backoff.ExponentialBackOff{
					InitialInterval:     10 * time.Millisecond,
					RandomizationFactor: 0.2,
					Multiplier:          2,
					MaxInterval:         2 * time.Second,
				})
			}
			select {
			case <-retry.C:
			case <-ctx.Done():
				retry.Stop()
				return nil
			}
			continue
		}
		if retry != nil {
			retry.Stop()
			retry = nil
		}

		s.identity++
		c := newConnection(cn, xfnv.HashIdentity(cn.RemoteAddr().String(), s.identity))
		s.reg.insert(c)

		s.wg.Add(1)
		s.pool.CtxGo(ctx, func() {
			defer s.wg.Done()
			s.handle(ctx, c)
		})

		for _, done := range s.reg.reap() {
			_ = done
		}
	}
}
