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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ringsocket/ringsocket/internal/config"
	"github.com/ringsocket/ringsocket/internal/daemon"
	"github.com/ringsocket/ringsocket/internal/logging"
	"github.com/ringsocket/ringsocket/internal/server"
)

type cliFlags struct {
	port       int
	configPath string
	daemonize  bool
}

var flags cliFlags

var rootCmd = &cobra.Command{
	Use:   "ringsocketd",
	Short: "Bounded-history line server: reassembles newline records and echoes the ring's contents",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run(flags)
	},
}

func init() {
	rootCmd.Flags().IntVarP(&flags.port, "port", "p", 0, "TCP port to listen on (default 9000)")
	rootCmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "path to an optional YAML config file")
	rootCmd.Flags().BoolVarP(&flags.daemonize, "daemonize", "d", false, "detach and run in the background")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(flags cliFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.port != 0 {
		cfg.ListenAddr = fmt.Sprintf(":%d", flags.port)
	}
	if flags.daemonize {
		cfg.Daemonize = true
	}

	if cfg.Daemonize {
		if err := daemon.Daemonize(); err != nil {
			return fmt.Errorf("daemonize: %w", err)
		}
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Daemonize)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	srv := server.New(cfg, logger)

	ctx := context.Background()
	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return srv.Run(ctx)
	})
	wg.Go(func() error {
		sig, err := waitForSignal(ctx)
		if err != nil {
			return err
		}
		logger.Info("caught signal", zap.Stringer("signal", sig))
		return errInterrupted
	})

	if err := wg.Wait(); err != nil && !errors.Is(err, errInterrupted) {
		return err
	}
	return nil
}

var errInterrupted = errors.New("interrupted")

// waitForSignal blocks until SIGINT or SIGTERM arrives, or ctx is done.
func waitForSignal(ctx context.Context) (os.Signal, error) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)

	select {
	case sig := <-ch:
		return sig, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
