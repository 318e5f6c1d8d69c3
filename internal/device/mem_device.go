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

package device

import (
	"fmt"
	"sync"
)

// MemDevice is an in-memory BlockDevice, used by tests. It also records
// read/write counts per sector so
// tests can assert on cache behavior (e.g. "sector 7 was read exactly
// once").
type MemDevice struct {
	mu         sync.Mutex
	sectorSize int
	sectors    [][]byte
	reads      map[SectorID]int
	writes     map[SectorID]int
}

// NewMemDevice allocates a zero-filled in-memory device of numSectors
// sectors, each sectorSize bytes.
func NewMemDevice(sectorSize int, numSectors uint32) *MemDevice {
	sectors := make([][]byte, numSectors)
	for i := range sectors {
		sectors[i] = make([]byte, sectorSize)
	}
	return &MemDevice{
		sectorSize: sectorSize,
		sectors:    sectors,
		reads:      make(map[SectorID]int),
		writes:     make(map[SectorID]int),
	}
}

func (d *MemDevice) SectorSize() int    { return d.sectorSize }
func (d *MemDevice) NumSectors() uint32 { return uint32(len(d.sectors)) }

func (d *MemDevice) ReadSector(id SectorID, out []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkBounds(id, len(out)); err != nil {
		return err
	}
	copy(out, d.sectors[id])
	d.reads[id]++
	return nil
}

func (d *MemDevice) WriteSector(id SectorID, in []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkBounds(id, len(in)); err != nil {
		return err
	}
	copy(d.sectors[id], in)
	d.writes[id]++
	return nil
}

func (d *MemDevice) checkBounds(id SectorID, bufLen int) error {
	if int(id) >= len(d.sectors) {
		return &FatalError{Op: "bounds", Sector: id, Err: fmt.Errorf("sector out of range [0,%d)", len(d.sectors))}
	}
	if bufLen != d.sectorSize {
		return fmt.Errorf("blockfs: buffer is %d bytes, want %d", bufLen, d.sectorSize)
	}
	return nil
}

// ReadCount returns the number of times ReadSector has been called for id.
func (d *MemDevice) ReadCount(id SectorID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads[id]
}

// WriteCount returns the number of times WriteSector has been called for id.
func (d *MemDevice) WriteCount(id SectorID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes[id]
}

// Snapshot returns a copy of sector id's current contents, for assertions.
func (d *MemDevice) Snapshot(id SectorID) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]byte, d.sectorSize)
	copy(out, d.sectors[id])
	return out
}
