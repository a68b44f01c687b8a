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

// Package config holds the server's tunables and how they're assembled:
// built-in defaults, overlaid by an optional YAML file, overlaid by CLI
// flags.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config collects every tunable of the server. Zero value is not meaningful;
// use Default.
type Config struct {
	ListenAddr             string        `yaml:"listen_addr"`
	RingCapacity           int           `yaml:"ring_capacity"`
	ReadChunkSize          int           `yaml:"read_chunk_size"`
	AcceptBacklog          int           `yaml:"accept_backlog"`
	PeriodicWriterInterval time.Duration `yaml:"periodic_writer_interval"`
	Daemonize              bool          `yaml:"daemonize"`
	LogLevel               string        `yaml:"log_level"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		ListenAddr:             ":9000",
		RingCapacity:           10,
		ReadChunkSize:          1024,
		AcceptBacklog:          10,
		PeriodicWriterInterval: 0,
		Daemonize:              false,
		LogLevel:               "info",
	}
}

// Load starts from Default and overlays the YAML file at path, if path is
// not empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
