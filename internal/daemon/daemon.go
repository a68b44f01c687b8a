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

// Package daemon detaches the process from its controlling terminal. Go
// cannot fork an already-running multithreaded process in place the way the
// original C server does, so Daemonize instead re-execs itself once with a
// sentinel environment variable, in a new session, with stdio redirected to
// /dev/null, and exits the parent — the same externally-observable effect
// as a double fork for a process that has not yet spawned goroutines.
package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

const sentinelEnv = "RINGSOCKETD_DAEMONIZED"

// Daemonize re-execs the current process detached if it hasn't already.
// Call it before any other goroutine is started. It returns nil when the
// calling process is the (already detached) child and should continue
// running. In the parent it starts the child and calls os.Exit(0), so it
// returns there only with an error, when the child could not be started.
func Daemonize() error {
	if os.Getenv(sentinelEnv) == "1" {
		return nil
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("daemon: open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := exec.Command(os.Args[0], os.Args[1:]...)
	cmd.Env = append(os.Environ(), sentinelEnv+"=1")
	cmd.Dir = "/"
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("daemon: re-exec: %w", err)
	}
	os.Exit(0)
	return nil // unreachable
}
