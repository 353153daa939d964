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
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

const Int64Max = 1<<63 - 1

// GetBackoffTime returns a random duration in [0, (2^retries)*slotTime), capped at maximum
func GetBackoffTime(retries int64, slotTime time.Duration, maximum time.Duration) (backoff time.Duration) {

	defer func() {
		if r := recover(); r != nil {
			backoff = maximum
		}
	}()

	if slotTime <= 0 || retries <= 0 {
		return time.Duration(0)
	}
	//2^retries - 1
	// -1 is ommitted here, because the random function is [min, max)
	umax := uint64(1) << retries
	if umax > Int64Max || umax == 0 {
		return maximum
	}
	max := int64(umax)
	n := rand.Int63n(max)

	//Prevents overflow
	u64Time := uint64(slotTime.Nanoseconds()) * uint64(n)
	if u64Time > Int64Max {
		return maximum
	}

	backoff = time.Duration(n) * slotTime
	if backoff > maximum {
		backoff = maximum
	}
	return backoff
}

// Retry calls fn until it succeeds, attempts are exhausted or ctx is done.
// Between attempts it sleeps for GetBackoffTime(attempt, slotTime, maximum).
func Retry(ctx context.Context, attempts int64, slotTime time.Duration, maximum time.Duration, fn func() error) error {
	var err error
	for attempt := int64(0); attempt < attempts; attempt++ {
		if attempt > 0 {
			if ctx.Err() != nil {
				return fmt.Errorf("giving up after %d attempts: %w", attempt, ctx.Err())
			}
			wait := GetBackoffTime(attempt, slotTime, maximum)
			zap.S().Debugf("Retrying in %s (attempt %d/%d): %s", wait, attempt+1, attempts, err)
			select {
			case <-ctx.Done():
				return fmt.Errorf("giving up after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(wait):
			}
		}
		err = fn()
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}
