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

// Package inode implements the multi-level sector-mapped file: on-disk
// header format, offset-to-sector translation through direct, single- and
// double-indirect pointers, and the create/open/close/remove lifecycle
// backed by a free-sector allocator and the buffered cache.
package inode

import "github.com/blockfs/blockfs/internal/device"

// Inode is the in-memory, shared representation of an open file. All
// openers of the same on-disk sector share one Inode, reference-counted by
// Table.
type Inode struct {
	sector device.SectorID
	disk   InodeDisk

	refCount
	removed bool
}

// Sector returns the device sector holding this inode's header.
func (i *Inode) Sector() device.SectorID { return i.sector }

// Length returns the file's length in bytes as recorded in its header when
// it was loaded; WriteAt never changes it.
func (i *Inode) Length() int64 { return i.disk.Length }
