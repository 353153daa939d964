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
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func httptestBasicServer(gs GracefulShutdownHandler) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if gs.ShuttingDown() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/shutdown", func(w http.ResponseWriter, r *http.Request) {
		// Triggers the execution of the onShutdown passed to newGracefulShutdown.
		gs.Shutdown()
		w.WriteHeader(http.StatusOK)
	})

	return httptest.NewServer(mux)
}

func Test_NewGracefulShutdown(t *testing.T) {
	release := make(chan struct{})
	exitCode := make(chan int, 1)

	gs := newGracefulShutdown(func(ctx context.Context) error {
		<-release
		return nil
	}, 5*time.Second, func(code int) { exitCode <- code })

	testSrv := httptestBasicServer(gs)
	defer testSrv.Close()
	healthRoute := fmt.Sprintf("%s/health", testSrv.URL)
	shutdownRoute := fmt.Sprintf("%s/shutdown", testSrv.URL)

	res, err := http.Get(healthRoute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	_ = res.Body.Close()

	res, err = http.Get(shutdownRoute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	_ = res.Body.Close()

	// onShutdown is blocked, so the handler must report the shutdown in progress
	assert.Eventually(t, gs.ShuttingDown, time.Second, 10*time.Millisecond)
	res, err = http.Get(healthRoute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	_ = res.Body.Close()

	close(release)
	gs.Wait()
	assert.Equal(t, 0, <-exitCode)
}

func Test_GracefulShutdownFailingTask(t *testing.T) {
	exitCode := make(chan int, 1)
	gs := newGracefulShutdown(func(ctx context.Context) error {
		return errors.New("database close failed")
	}, time.Second, func(code int) { exitCode <- code })

	gs.Shutdown()
	gs.Shutdown() // second call must not block
	gs.Wait()
	assert.Equal(t, 1, <-exitCode)
}

func Test_GracefulShutdownTimeout(t *testing.T) {
	exitCode := make(chan int, 1)
	gs := newGracefulShutdown(func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	}, 20*time.Millisecond, func(code int) { exitCode <- code })

	gs.Shutdown()
	gs.Wait()
	assert.Equal(t, 1, <-exitCode)
}
