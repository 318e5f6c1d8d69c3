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

// Package device defines the block device abstraction the buffered cache
// and inode layer are built against, plus two concrete implementations: a
// file-backed adapter for real images and an in-memory adapter for tests.
package device

import "fmt"

// SectorID addresses a single fixed-width sector on a device.
type SectorID uint32

// InvalidSector is the NONE sentinel returned by offset-to-sector mapping
// once an offset falls outside a file's allocated length.
const InvalidSector SectorID = 1<<32 - 1

// BlockDevice is the contract a physical or virtual block device must
// satisfy. Both operations are synchronous; a device-level failure is fatal
// to the file system and is reported as a FatalError rather than a plain
// error, so callers cannot mistake it for a recoverable condition.
type BlockDevice interface {
	// ReadSector fills out (which must be exactly SectorSize() bytes) with
	// the contents of sector id.
	ReadSector(id SectorID, out []byte) error

	// WriteSector persists in (which must be exactly SectorSize() bytes) to
	// sector id.
	WriteSector(id SectorID, in []byte) error

	// SectorSize returns the fixed width, in bytes, of every sector.
	SectorSize() int

	// NumSectors returns the total number of addressable sectors.
	NumSectors() uint32
}

// FatalError wraps an unrecoverable device I/O failure. The cache panics
// with it (read-ahead workers recover, log and drop it); the inode layer
// returns it as an error from the header reads and writes it issues
// directly against the device.
type FatalError struct {
	Op     string
	Sector SectorID
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("blockfs: fatal device error during %s(sector=%d): %v", e.Op, e.Sector, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Panic raises e as a panic.
func (e *FatalError) Panic() { panic(e) }
