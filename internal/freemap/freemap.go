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

// Package freemap implements the free-sector allocator collaborator: a
// bitset over a device's sector range, guarded by a single mutex. There are
// no concurrency guarantees beyond "callers serialize their own allocation
// bursts" on the upstream contract; this implementation happens to be safe
// for concurrent use because the whole table is behind one lock, but callers
// (notably inode.Create, which allocates many sectors for one file) are
// still responsible for not interleaving unrelated allocation bursts if they
// care about locality.
package freemap

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blockfs/blockfs/internal/device"
)

// ErrOutOfSpace is returned by Allocate when no free sector remains.
var ErrOutOfSpace = errors.New("blockfs: free map exhausted")

const wordBits = 64

// FreeMap is a bitset-backed free-sector allocator.
type FreeMap struct {
	mu    sync.Mutex
	bits  []uint64
	total uint32
	free  int
	next  uint32 // next word to scan from, for round-robin allocation
}

// New creates a FreeMap over [0, total) sectors. The first reserved sectors
// are marked allocated up front (e.g. for a superblock / freemap-on-disk
// region) and are never handed out by Allocate.
func New(total uint32, reserved uint32) *FreeMap {
	words := int((total + wordBits - 1) / wordBits)
	fm := &FreeMap{
		bits:  make([]uint64, words),
		total: total,
		free:  int(total),
	}
	for id := uint32(0); id < reserved && id < total; id++ {
		fm.markAllocated(device.SectorID(id))
		fm.free--
	}
	return fm
}

func (fm *FreeMap) markAllocated(id device.SectorID) {
	fm.bits[id/wordBits] |= 1 << (uint(id) % wordBits)
}

func (fm *FreeMap) markFree(id device.SectorID) {
	fm.bits[id/wordBits] &^= 1 << (uint(id) % wordBits)
}

func (fm *FreeMap) isAllocated(id device.SectorID) bool {
	return fm.bits[id/wordBits]&(1<<(uint(id)%wordBits)) != 0
}

// Allocate reserves and returns one sector, or ErrOutOfSpace if none remain.
func (fm *FreeMap) Allocate() (device.SectorID, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if fm.free == 0 {
		return device.InvalidSector, ErrOutOfSpace
	}

	for i := uint32(0); i < fm.total; i++ {
		id := device.SectorID((fm.next + i) % fm.total)
		if !fm.isAllocated(id) {
			fm.markAllocated(id)
			fm.free--
			fm.next = uint32(id) + 1
			return id, nil
		}
	}

	// fm.free > 0 but no free bit found: accounting bug.
	panic("blockfs: freemap accounting inconsistent")
}

// Release marks id free again. Callers must release each sector exactly
// once; a double release silently corrupts the free count, matching the
// upstream contract ("idempotent release is not required").
func (fm *FreeMap) Release(id device.SectorID) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if uint32(id) >= fm.total {
		panic(fmt.Sprintf("blockfs: Release(%d) out of range [0,%d)", id, fm.total))
	}
	fm.markFree(id)
	fm.free++
}

// NumFree returns the current number of unallocated sectors.
func (fm *FreeMap) NumFree() int {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.free
}
