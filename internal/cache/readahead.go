// Copyright 2026 The blockfs Authors.

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

package cache

import (
	"context"

	"github.com/blockfs/blockfs/internal/device"
)

// ReadAhead schedules sector+1 to be pulled into the cache in the
// background. It enqueues the request and spawns exactly one short-lived
// goroutine to service it, so the number of in-flight workers never
// exceeds the number of outstanding requests: every push is matched by
// exactly one pop, even though a given worker is not guaranteed to pop the
// same request it was spawned for.
//
// The slot is pinned only for the instant it takes to land in the cache,
// then immediately unpinned: read-ahead fills the cache for a future
// caller, it does not hold a reference on their behalf. A request whose
// sector+1 is past the end of the device is dropped silently before it is
// queued; a device error while servicing a request is logged and dropped.
// Nothing downstream is waiting on this call to succeed.
func (c *Cache) ReadAhead(sector device.SectorID) {
	if uint32(sector)+1 >= c.dev.NumSectors() {
		return
	}
	next := sector + 1

	c.raMu.Lock()
	c.raQueue.Push(next)
	c.raMu.Unlock()

	c.metrics.CacheReadAheadCount(context.Background(), 1, nil)
	go c.serviceReadAhead()
}

func (c *Cache) serviceReadAhead() {
	c.raMu.Lock()
	if c.raQueue.IsEmpty() {
		c.raMu.Unlock()
		return
	}
	sector := c.raQueue.Pop()
	c.raMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.log.Printf("read-ahead of sector %d failed: %v", sector, r)
		}
	}()

	idx := c.access(sector, false)
	c.unpin(idx)
}
