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
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ringsocket/ringsocket/internal/config"
)

func startTestServer(t *testing.T) (net.Addr, func()) {
	t.Helper()
	cfg := config.Default()
	cfg.ListenAddr = "127.0.0.1:0"

	s := New(cfg, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	addr, err := s.Addr(ctx)
	require.NoError(t, err)

	return addr, func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down in time")
		}
	}
}

func TestScenarioS1EndToEnd(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	cn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer cn.Close()

	_, err = cn.Write([]byte("hello\n"))
	require.NoError(t, err)

	reply := make([]byte, 6)
	r := bufio.NewReader(cn)
	n := 0
	for n < len(reply) {
		m, err := r.Read(reply[n:])
		require.NoError(t, err)
		n += m
	}
	require.Equal(t, "hello\n", string(reply))
}

func TestScenarioS3SplitPacketEndToEnd(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	cn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer cn.Close()

	_, err = cn.Write([]byte("foo"))
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = cn.Write([]byte("bar\n"))
	require.NoError(t, err)

	reply := make([]byte, 7)
	r := bufio.NewReader(cn)
	n := 0
	for n < len(reply) {
		m, err := r.Read(reply[n:])
		require.NoError(t, err)
		n += m
	}
	require.Equal(t, "foobar\n", string(reply))
}

func TestMultipleConnectionsDoNotCrossPartials(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	a, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer a.Close()
	b, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer b.Close()

	_, err = a.Write([]byte("a-part"))
	require.NoError(t, err)
	_, err = b.Write([]byte("b-part"))
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	_, err = b.Write([]byte("\n"))
	require.NoError(t, err)

	reply := make([]byte, 7)
	r := bufio.NewReader(b)
	n := 0
	for n < len(reply) {
		m, err := r.Read(reply[n:])
		require.NoError(t, err)
		n += m
	}
	require.Equal(t, "b-part\n", string(reply))
}
