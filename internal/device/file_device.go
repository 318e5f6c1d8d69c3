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
	"os"
)

// FileDevice is a BlockDevice backed by a flat file (or a block special
// file) on the host, addressed by sectorID * sectorSize byte offsets.
type FileDevice struct {
	f          *os.File
	sectorSize int
	numSectors uint32
}

// OpenFileDevice opens path (which must already exist and be at least
// numSectors*sectorSize bytes long; use CreateFileDevice to format one) as a
// BlockDevice.
func OpenFileDevice(path string, sectorSize int, numSectors uint32) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("blockfs: open device %q: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("blockfs: stat device %q: %w", path, err)
	}

	want := int64(sectorSize) * int64(numSectors)
	if fi.Size() < want {
		f.Close()
		return nil, fmt.Errorf("blockfs: device %q is %d bytes, want at least %d", path, fi.Size(), want)
	}

	return &FileDevice{f: f, sectorSize: sectorSize, numSectors: numSectors}, nil
}

// CreateFileDevice creates and zero-fills a new device image of exactly
// numSectors*sectorSize bytes, then opens it.
func CreateFileDevice(path string, sectorSize int, numSectors uint32) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("blockfs: create device %q: %w", path, err)
	}

	size := int64(sectorSize) * int64(numSectors)
	if err := f.Truncate(size); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("blockfs: truncate device %q to %d bytes: %w", path, size, err)
	}

	return &FileDevice{f: f, sectorSize: sectorSize, numSectors: numSectors}, nil
}

func (d *FileDevice) SectorSize() int    { return d.sectorSize }
func (d *FileDevice) NumSectors() uint32 { return d.numSectors }

func (d *FileDevice) offset(id SectorID) int64 {
	return int64(id) * int64(d.sectorSize)
}

func (d *FileDevice) ReadSector(id SectorID, out []byte) error {
	if len(out) != d.sectorSize {
		return fmt.Errorf("blockfs: ReadSector buffer is %d bytes, want %d", len(out), d.sectorSize)
	}
	n, err := d.f.ReadAt(out, d.offset(id))
	if err != nil || n != d.sectorSize {
		return &FatalError{Op: "read", Sector: id, Err: err}
	}
	return nil
}

func (d *FileDevice) WriteSector(id SectorID, in []byte) error {
	if len(in) != d.sectorSize {
		return fmt.Errorf("blockfs: WriteSector buffer is %d bytes, want %d", len(in), d.sectorSize)
	}
	n, err := d.f.WriteAt(in, d.offset(id))
	if err != nil || n != d.sectorSize {
		return &FatalError{Op: "write", Sector: id, Err: err}
	}
	return nil
}

// Close releases the underlying file handle. Any dirty cache state must be
// flushed by the caller before calling Close.
func (d *FileDevice) Close() error {
	return d.f.Close()
}
