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
	"errors"
	"time"

	"github.com/blockfs/blockfs/internal/device"
)

// mapBlock translates byte offset pos within ino into the device sector
// holding it, routing indirect-block reads through the cache (pinning and
// unpinning within cache.ReadAt) rather than bypassing it as the distilled
// design's original source does.
func (t *Table) mapBlock(ino *Inode, pos int64) (device.SectorID, error) {
	if pos >= ino.disk.Length {
		return device.InvalidSector, ErrNotFound
	}

	bi := pos / int64(t.sectorSize)

	if bi < DirectN {
		return ino.disk.Direct[bi], nil
	}
	bi -= DirectN

	if bi < IndirectN {
		ids, err := t.readIndirectBlock(ino.disk.Indirect)
		if err != nil {
			return device.InvalidSector, err
		}
		return ids[bi], nil
	}
	bi -= IndirectN

	l1Idx := bi / IndirectN
	l2Idx := bi % IndirectN

	top, err := t.readIndirectBlock(ino.disk.DIndirect)
	if err != nil {
		return device.InvalidSector, err
	}
	ids, err := t.readIndirectBlock(top[l1Idx])
	if err != nil {
		return device.InvalidSector, err
	}
	return ids[l2Idx], nil
}

func min3(a, b, c int64) int64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// ReadAt copies bytes from ino starting at offset into dst, stopping at
// end-of-file. It returns the number of bytes actually transferred.
func (t *Table) ReadAt(ino *Inode, dst []byte, offset int64) (n int, err error) {
	start := time.Now()
	defer func() { t.recordOp(start, "read_at", err) }()

	total := 0
	for total < len(dst) {
		pos := offset + int64(total)
		if pos >= ino.disk.Length {
			break
		}

		sectorID, merr := t.mapBlock(ino, pos)
		if merr != nil {
			if errors.Is(merr, ErrNotFound) {
				break
			}
			return total, merr
		}

		sofs := int(pos % int64(t.sectorSize))
		inodeLeft := ino.disk.Length - pos
		sectorLeft := int64(t.sectorSize - sofs)
		remaining := int64(len(dst) - total)
		chunk := min3(remaining, inodeLeft, sectorLeft)
		if chunk <= 0 {
			break
		}

		if rerr := t.cache.ReadAt(sectorID, dst[total:], sofs, int(chunk)); rerr != nil {
			return total, rerr
		}
		total += int(chunk)
	}
	return total, nil
}

// TryWriteAt behaves like WriteAt, except that a denied write returns
// (0, ErrDenied) instead of a silent (0, nil), for callers that need to
// tell deny-write apart from a write that happened to land exactly at EOF.
func (t *Table) TryWriteAt(ino *Inode, src []byte, offset int64) (int, error) {
	t.mu.Lock()
	denied := ino.writeDenied()
	t.mu.Unlock()
	if denied {
		return 0, ErrDenied
	}
	return t.WriteAt(ino, src, offset)
}

// WriteAt copies bytes from src into ino starting at offset, stopping at
// end-of-file: this implementation does not grow files on write-past-EOF.
// If a write is currently denied (DenyWrite outstanding), it transfers
// zero bytes and returns a nil error, matching "silently writes zero
// bytes". Use TryWriteAt to distinguish a denied write from an ordinary
// short write at EOF.
func (t *Table) WriteAt(ino *Inode, src []byte, offset int64) (n int, err error) {
	start := time.Now()
	defer func() { t.recordOp(start, "write_at", err) }()

	t.mu.Lock()
	denied := ino.writeDenied()
	t.mu.Unlock()
	if denied {
		return 0, nil
	}

	total := 0
	for total < len(src) {
		pos := offset + int64(total)
		if pos >= ino.disk.Length {
			break
		}

		sectorID, merr := t.mapBlock(ino, pos)
		if merr != nil {
			if errors.Is(merr, ErrNotFound) {
				break
			}
			return total, merr
		}

		sofs := int(pos % int64(t.sectorSize))
		inodeLeft := ino.disk.Length - pos
		sectorLeft := int64(t.sectorSize - sofs)
		remaining := int64(len(src) - total)
		chunk := min3(remaining, inodeLeft, sectorLeft)
		if chunk <= 0 {
			break
		}

		if werr := t.cache.WriteAt(sectorID, src[total:total+int(chunk)], sofs, int(chunk)); werr != nil {
			return total, werr
		}
		total += int(chunk)
	}
	return total, nil
}
