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
	"context"
	"fmt"
	"time"

	"github.com/agilira/go-timecache"

	"github.com/ringsocket/ringsocket/internal/store"
)

// runPeriodicAppender appends a timestamp record on the configured interval
// until ctx is cancelled. It shares the store's lock discipline with client
// handlers but never echoes: there is no connection to echo to.
func (s *Server) runPeriodicAppender(ctx context.Context) {
	clock := timecache.NewWithResolution(time.Millisecond)
	defer clock.Stop()

	ticker := time.NewTicker(s.cfg.PeriodicWriterInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rec := store.NewRecord([]byte(fmt.Sprintf("timestamp:%s\n", clock.CachedTime().Format(time.RFC3339))))
			s.store.Lock()
			if evicted, ok := s.store.Append(rec); ok {
				evicted.Release()
			}
			s.store.Unlock()
		}
	}
}
