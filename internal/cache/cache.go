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

// Package cache implements the buffered block cache: a fixed pool of sector
// frames admitted and evicted by a clock (second-chance) algorithm, with
// reference-counted pinning, write-behind on a periodic timer, and
// fire-and-forget read-ahead. It is the buffer-pool collaborator that
// internal/inode builds its sector-mapped files on top of.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blockfs/blockfs/clock"
	"github.com/blockfs/blockfs/common"
	"github.com/blockfs/blockfs/internal/device"
	"github.com/blockfs/blockfs/internal/invariant"
	"github.com/blockfs/blockfs/internal/logging"
)

// Cache is a fixed-capacity buffer pool over a device.BlockDevice.
type Cache struct {
	dev     device.BlockDevice
	clk     clock.Clock
	metrics common.MetricHandle
	log     *logging.Logger

	writebackEvery time.Duration
	stopWriter     chan struct{}

	mu     *invariant.Mutex // guards slots and cursor
	slots  []slot
	cursor int

	raMu    sync.Mutex
	raQueue common.Queue[device.SectorID] // guarded by raMu, independent of mu
}

// New builds a Cache of the given capacity (number of sector frames) over
// dev, and starts its periodic write-behind goroutine. writebackEvery <= 0
// disables the periodic writer; callers must then Flush explicitly.
func New(dev device.BlockDevice, capacity int, clk clock.Clock, writebackEvery time.Duration, metrics common.MetricHandle, debug bool) *Cache {
	if capacity <= 0 {
		panic("blockfs: cache capacity must be positive")
	}

	c := &Cache{
		dev:            dev,
		clk:            clk,
		metrics:        metrics,
		log:            logging.New("cache: ", debug),
		writebackEvery: writebackEvery,
		stopWriter:     make(chan struct{}),
		slots:          make([]slot, capacity),
		raQueue:        common.NewLinkedListQueue[device.SectorID](),
	}
	c.mu = invariant.NewMutex(c.checkInvariants)

	for i := range c.slots {
		c.slots[i] = slot{free: true, data: make([]byte, dev.SectorSize())}
	}

	if writebackEvery > 0 {
		go c.runPeriodicWriter()
	}
	return c
}

// checkInvariants is run by c.mu on every Unlock. It encodes the universal
// cache properties that must hold between critical sections: a resident
// sector appears in at most one slot, and a free slot carries no pins.
func (c *Cache) checkInvariants() {
	seen := make(map[device.SectorID]bool, len(c.slots))
	for i := range c.slots {
		s := &c.slots[i]
		if s.free {
			if s.pinCount != 0 {
				panic("blockfs: free slot has nonzero pin count")
			}
			continue
		}
		if seen[s.sector] {
			panic(fmt.Sprintf("blockfs: sector %d resident in more than one slot", s.sector))
		}
		seen[s.sector] = true
	}
}

// access finds or admits sector, pinning it, and returns its slot index.
// On a miss it synchronously fills the slot from the device while still
// holding the cache lock, matching the reference admission protocol: the
// whole scan-evict-fill sequence is one atomic step from the point of view
// of other callers of access.
func (c *Cache) access(sector device.SectorID, dirtyHint bool) int {
	start := c.clk.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.slots {
		s := &c.slots[i]
		if !s.free && s.sector == sector {
			s.pinCount++
			s.accessed = true
			if dirtyHint {
				s.dirty = true
			}
			c.recordAccess(start, common.CacheHit)
			return i
		}
	}

	idx := c.admit(sector)
	c.recordAccess(start, common.CacheMiss)
	return idx
}

// admit locates a free slot (evicting if necessary) and fills it with
// sector's contents. Caller must hold c.mu.
func (c *Cache) admit(sector device.SectorID) int {
	idx := c.findFreeLocked()
	if idx < 0 {
		idx = c.evictLocked()
	}

	s := &c.slots[idx]
	if err := c.dev.ReadSector(sector, s.data); err != nil {
		c.fatal(err)
	}
	s.sector = sector
	s.free = false
	s.pinCount = 1
	s.accessed = true
	s.dirty = false
	return idx
}

func (c *Cache) findFreeLocked() int {
	for i := range c.slots {
		if c.slots[i].free {
			return i
		}
	}
	return -1
}

// evictLocked runs the clock algorithm until it finds an unpinned victim,
// writes it back if dirty, and returns its slot index as newly free.
// Caller must hold c.mu. If every slot is pinned it panics once the scan
// has met pinned slots 4*capacity times: that indicates the cache was sized
// smaller than the program's maximum concurrent pin count, a configuration
// error this cache does not attempt to recover from.
func (c *Cache) evictLocked() int {
	scanned := 0
	for {
		i := c.cursor
		c.cursor = (c.cursor + 1) % len(c.slots)
		s := &c.slots[i]

		if s.pinCount > 0 {
			scanned++
			if scanned > 4*len(c.slots) {
				panic("blockfs: all cache slots pinned, cannot evict (increase cache capacity)")
			}
			continue
		}
		if s.accessed {
			s.accessed = false
			continue
		}

		if s.dirty {
			if err := c.dev.WriteSector(s.sector, s.data); err != nil {
				c.fatal(err)
			}
			c.metrics.CacheWritebackCount(context.Background(), 1, nil)
			s.dirty = false
		}
		c.metrics.CacheEvictionCount(context.Background(), 1, nil)
		s.free = true
		return i
	}
}

func (c *Cache) unpin(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slots[idx].pinCount == 0 {
		panic("blockfs: unpin of slot with zero pin count")
	}
	c.slots[idx].pinCount--
}

func (c *Cache) recordAccess(start time.Time, hitOrMiss string) {
	common.CaptureCacheAccessMetrics(context.Background(), c.metrics, hitOrMiss, c.clk.Now().Sub(start))
}

func (c *Cache) fatal(err error) {
	c.log.Printf("fatal device error: %v", err)
	panic(err)
}

// ReadAt copies n bytes starting at offsetInSector from sector into dst
// (which must have length >= n). The slot is pinned for the duration of
// the copy only; access() has already released the cache lock by the time
// the copy happens, relying on the pin (not the lock) to keep the slot's
// backing buffer stable.
func (c *Cache) ReadAt(sector device.SectorID, dst []byte, offsetInSector, n int) error {
	if err := c.checkRange(offsetInSector, n); err != nil {
		return err
	}

	idx := c.access(sector, false)
	copy(dst[:n], c.slots[idx].data[offsetInSector:offsetInSector+n])
	c.unpin(idx)
	return nil
}

// WriteAt copies n bytes from src into sector at offsetInSector and marks
// the slot dirty. The write is only visible to other readers of this
// sector once they too go through the cache; it reaches the device on the
// next eviction, Flush, or periodic write-back.
func (c *Cache) WriteAt(sector device.SectorID, src []byte, offsetInSector, n int) error {
	if err := c.checkRange(offsetInSector, n); err != nil {
		return err
	}

	idx := c.access(sector, true)
	copy(c.slots[idx].data[offsetInSector:offsetInSector+n], src[:n])

	c.mu.Lock()
	c.slots[idx].dirty = true
	c.mu.Unlock()

	c.unpin(idx)
	return nil
}

func (c *Cache) checkRange(offsetInSector, n int) error {
	if offsetInSector < 0 || n < 0 || offsetInSector+n > c.dev.SectorSize() {
		return fmt.Errorf("blockfs: range [%d,%d) outside sector of size %d", offsetInSector, offsetInSector+n, c.dev.SectorSize())
	}
	return nil
}

// Flush writes back every dirty resident slot. If clear is true, every
// slot (dirty or not) is returned to the free list afterward; pinned slots
// are refused with a panic rather than silently left dirty, since a caller
// asking to clear the cache has, by construction, promised no outstanding
// readers or writers remain.
func (c *Cache) Flush(clear bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.slots {
		s := &c.slots[i]
		if s.free || !s.dirty {
			continue
		}
		if err := c.dev.WriteSector(s.sector, s.data); err != nil {
			return err
		}
		c.metrics.CacheWritebackCount(context.Background(), 1, nil)
		s.dirty = false
	}

	if clear {
		for i := range c.slots {
			if c.slots[i].pinCount != 0 {
				panic("blockfs: Flush(clear=true) called with pinned slots outstanding")
			}
			c.slots[i].free = true
			c.slots[i].accessed = false
		}
		c.cursor = 0
	}
	return nil
}

// runPeriodicWriter flushes dirty slots to the device every writebackEvery
// until Shutdown closes stopWriter; there is no other way to stop it.
func (c *Cache) runPeriodicWriter() {
	for {
		select {
		case <-c.clk.After(c.writebackEvery):
			if err := c.Flush(false); err != nil {
				c.log.Printf("periodic write-back failed: %v", err)
			}
		case <-c.stopWriter:
			return
		}
	}
}

// Shutdown flushes all dirty data, frees every slot, and stops the
// periodic writer. Callers must ensure no pins are outstanding before
// calling Shutdown; the cache must not be used afterward.
func (c *Cache) Shutdown(ctx context.Context) error {
	close(c.stopWriter)
	return c.Flush(true)
}
