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

// Package superblock describes the sector-0 record blockfsd format writes
// to a new device image, and that blockfsd mount reads back to confirm it
// is looking at a volume it understands before wiring up the cache and
// inode layers against it.
package superblock

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/blockfs/blockfs/internal/device"
)

// Magic identifies a sector 0 written by this module's format command.
const Magic uint32 = 0x424c4b46 // "BLKF"

// Superblock is the fixed-layout record stored in sector 0 of a formatted
// device image.
type Superblock struct {
	Magic      uint32
	VolumeID   uuid.UUID
	SectorSize uint32
	NumSectors uint32
	Reserved   uint32 // count of leading sectors reserved for this superblock
}

// Marshal encodes sb into a sectorSize-byte buffer, zero-padded past the
// record's fixed fields.
func (sb *Superblock) Marshal(sectorSize int) ([]byte, error) {
	buf := new(bytes.Buffer)
	fields := []any{sb.Magic, sb.VolumeID, sb.SectorSize, sb.NumSectors, sb.Reserved}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("blockfs: marshal superblock: %w", err)
		}
	}
	if buf.Len() > sectorSize {
		return nil, fmt.Errorf("blockfs: superblock record %d bytes exceeds sector size %d", buf.Len(), sectorSize)
	}
	out := make([]byte, sectorSize)
	copy(out, buf.Bytes())
	return out, nil
}

// Unmarshal decodes a Superblock previously written by Marshal.
func Unmarshal(data []byte) (*Superblock, error) {
	r := bytes.NewReader(data)
	sb := &Superblock{}
	for _, f := range []any{&sb.Magic, &sb.VolumeID, &sb.SectorSize, &sb.NumSectors, &sb.Reserved} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("blockfs: unmarshal superblock: %w", err)
		}
	}
	if sb.Magic != Magic {
		return nil, fmt.Errorf("blockfs: sector 0 magic %#x, want %#x (not a blockfs volume?)", sb.Magic, Magic)
	}
	return sb, nil
}

// New builds a fresh Superblock for a device image of the given geometry,
// stamped with a freshly generated time-ordered volume identifier.
func New(sectorSize int, numSectors, reserved uint32) (*Superblock, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("blockfs: generate volume id: %w", err)
	}
	return &Superblock{
		Magic:      Magic,
		VolumeID:   id,
		SectorSize: uint32(sectorSize),
		NumSectors: numSectors,
		Reserved:   reserved,
	}, nil
}

// Read loads and validates the superblock from sector 0 of dev.
func Read(dev device.BlockDevice) (*Superblock, error) {
	buf := make([]byte, dev.SectorSize())
	if err := dev.ReadSector(0, buf); err != nil {
		return nil, err
	}
	return Unmarshal(buf)
}

// Write persists sb to sector 0 of dev.
func Write(dev device.BlockDevice, sb *Superblock) error {
	buf, err := sb.Marshal(dev.SectorSize())
	if err != nil {
		return err
	}
	return dev.WriteSector(0, buf)
}
