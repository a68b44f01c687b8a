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

// Package logging builds the zap logger used throughout the server: a
// development-style console core in the foreground, redirected to syslog
// once the process daemonizes.
package logging

import (
	"fmt"
	"log/syslog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger at the given level ("debug", "info", "warn", "error").
// In the foreground it's a development-style console logger; daemonized
// redirects the same structured fields to the local syslog daemon facility,
// matching the distilled spec's "reopen logging to daemon facility" step.
func New(level string, daemonized bool) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	if !daemonized {
		cfg := zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.Level.SetLevel(lvl)
		return cfg.Build()
	}

	writer, err := syslog.New(syslog.LOG_DAEMON|syslog.LOG_INFO, "ringsocketd")
	if err != nil {
		return nil, fmt.Errorf("logging: open syslog: %w", err)
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(writer),
		lvl,
	)
	return zap.New(core), nil
}
