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

package inode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/blockfs/blockfs/internal/device"
)

const (
	// Magic identifies a sector as holding a valid InodeDisk record.
	Magic uint32 = 0x494e4f44

	// DirectN is the number of direct data-sector pointers carried in the
	// inode header. With the default 512-byte sector this, together with
	// IndirectN, keeps binary.Size(header) comfortably under SECTOR_SIZE.
	DirectN = 12

	// IndirectN is the number of SectorIDs held by one indirection sector.
	// 128 * 4 bytes == 512, exactly one default-size sector with no padding.
	IndirectN = 128
)

// InodeDisk is the fixed-layout, sector-sized on-disk inode record.
type InodeDisk struct {
	Length    int64
	Magic     uint32
	Direct    [DirectN]device.SectorID
	Indirect  device.SectorID
	DIndirect device.SectorID
}

// marshal encodes d into a zero-padded buffer of exactly sectorSize bytes.
func (d *InodeDisk) marshal(sectorSize int) ([]byte, error) {
	var buf bytes.Buffer
	for _, v := range []any{d.Length, d.Magic, d.Direct, d.Indirect, d.DIndirect} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("blockfs: encode inode header: %w", err)
		}
	}
	if buf.Len() > sectorSize {
		return nil, fmt.Errorf("blockfs: inode header is %d bytes, exceeds sector size %d", buf.Len(), sectorSize)
	}

	out := make([]byte, sectorSize)
	copy(out, buf.Bytes())
	return out, nil
}

// unmarshalInodeDisk decodes an InodeDisk from a sector-sized buffer.
func unmarshalInodeDisk(data []byte) (*InodeDisk, error) {
	r := bytes.NewReader(data)
	var d InodeDisk
	for _, v := range []any{&d.Length, &d.Magic, &d.Direct, &d.Indirect, &d.DIndirect} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("blockfs: decode inode header: %w", err)
		}
	}
	return &d, nil
}

// marshalIndirect encodes ids into a buffer of exactly sectorSize bytes
// holding sectorSize/4 SectorIDs, padding unused trailing entries with
// device.InvalidSector.
func marshalIndirect(ids []device.SectorID, sectorSize int) ([]byte, error) {
	n := sectorSize / 4
	if len(ids) > n {
		return nil, fmt.Errorf("blockfs: %d indirect entries exceed capacity %d", len(ids), n)
	}

	full := make([]device.SectorID, n)
	for i := range full {
		full[i] = device.InvalidSector
	}
	copy(full, ids)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, full); err != nil {
		return nil, fmt.Errorf("blockfs: encode indirect block: %w", err)
	}
	return buf.Bytes(), nil
}

// unmarshalIndirect decodes sectorSize/4 SectorIDs from data.
func unmarshalIndirect(data []byte, sectorSize int) ([]device.SectorID, error) {
	n := sectorSize / 4
	ids := make([]device.SectorID, n)
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, ids); err != nil {
		return nil, fmt.Errorf("blockfs: decode indirect block: %w", err)
	}
	return ids, nil
}
