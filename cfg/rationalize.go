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

package cfg

// inodeHeaderOverhead is the fixed (non-direct-pointer) part of an
// on-disk inode record: length (8 bytes), magic (4 bytes), indirect and
// dIndirect pointers (4 bytes each).
const inodeHeaderOverhead = 20

// Rationalize derives InodeConfig.DirectN and IndirectN from
// Device.SectorSize, mutating c in place. IndirectN is fixed by how many
// 4-byte SectorIDs fit in one sector; DirectN is whatever is left over in
// the header after the fixed fields. Both are pure functions of
// Device.SectorSize, so Rationalize is trivially idempotent.
func Rationalize(c *Config) {
	c.Inode.IndirectN = c.Device.SectorSize / 4

	directN := (c.Device.SectorSize - inodeHeaderOverhead) / 4
	if directN < 0 {
		directN = 0
	}
	c.Inode.DirectN = directN
}
