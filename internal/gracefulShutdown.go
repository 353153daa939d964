// Copyright 2023 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type GracefulShutdownHandler interface {
	Shutdown()          // Triggers a graceful shutdown programmatically.
	ShuttingDown() bool // Quickly checks if a shutdown is in progress.
	Wait()              // Blocks until shutdown tasks are complete.
}

type gracefulShutdown struct {
	quit         chan os.Signal // Blocks until a SIGTERM/SIGINT signal is received.
	shuttingDown chan bool      // Indicates if a shutdown is happening.
	wg           sync.WaitGroup // Waits until all shutdown tasks are complete.
	exit         func(code int)
}

// NewGracefulShutdown initializes a graceful shutdown handler.
// onShutdown (if not nil) runs after a SIGTERM/SIGINT signal or a call to Shutdown. Its context
// expires after timeout, at which point the process exits with code 1 regardless.
func NewGracefulShutdown(onShutdown func(ctx context.Context) error, timeout time.Duration) GracefulShutdownHandler {
	return newGracefulShutdown(onShutdown, timeout, os.Exit)
}

func newGracefulShutdown(onShutdown func(ctx context.Context) error, timeout time.Duration, exit func(code int)) *gracefulShutdown {
	gs := &gracefulShutdown{
		quit:         make(chan os.Signal, 1),
		shuttingDown: make(chan bool, 1),
		wg:           sync.WaitGroup{},
		exit:         exit,
	}
	gs.wg.Add(1)
	signal.Notify(gs.quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer gs.wg.Done()
		// Kubernetes sends SIGTERM 30 seconds before
		// shutting down the pod.
		sig := <-gs.quit
		signal.Stop(gs.quit)
		gs.shuttingDown <- true
		zap.S().Infow("Received signal, shutting down", "signal", sig.String())

		code := 0
		if onShutdown != nil {
			zap.S().Infow("Waiting for shutdown tasks to complete", "timeout", timeout)
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			done := make(chan error, 1)
			go func() {
				done <- onShutdown(ctx)
			}()

			select {
			case err := <-done:
				if err != nil {
					zap.S().Errorw("Error during shutdown", "error", err)
					code = 1
				}
			case <-ctx.Done():
				zap.S().Errorw("Shutdown tasks did not complete in time", "timeout", timeout)
				code = 1
			}
			cancel()
		}
		if code == 0 {
			zap.S().Info("Shutdown tasks completed. Ready to exit.")
		}
		// Flush buffer
		_ = zap.S().Sync()
		gs.exit(code)
	}()

	return gs
}

func (gs *gracefulShutdown) ShuttingDown() bool {
	select {
	case <-gs.shuttingDown:
		// Put the value back, in case it's checked again later during shutdown.
		gs.shuttingDown <- true
		return true
	default:
		return false
	}
}

func (gs *gracefulShutdown) Shutdown() {
	// Only send a SIGTERM signal if we are not already shutting down.
	if !gs.ShuttingDown() {
		select {
		case gs.quit <- syscall.SIGTERM:
		default:
		}
	}
}

func (gs *gracefulShutdown) Wait() {
	gs.wg.Wait()
}
