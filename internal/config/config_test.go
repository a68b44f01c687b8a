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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, 10, cfg.RingCapacity)
	assert.Equal(t, 1024, cfg.ReadChunkSize)
	assert.Equal(t, 10, cfg.AcceptBacklog)
	assert.Equal(t, time.Duration(0), cfg.PeriodicWriterInterval)
	assert.False(t, cfg.Daemonize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadNoPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9001"
ring_capacity: 20
periodic_writer_interval: 10s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9001", cfg.ListenAddr)
	assert.Equal(t, 20, cfg.RingCapacity)
	assert.Equal(t, 10*time.Second, cfg.PeriodicWriterInterval)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, 1024, cfg.ReadChunkSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}
