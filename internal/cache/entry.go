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

package cache

import "github.com/blockfs/blockfs/internal/device"

// slot is one buffer frame, holding at most one device sector's worth of
// data. free slots carry no meaningful sector/data and are always first in
// line for admission.
type slot struct {
	sector   device.SectorID
	data     []byte
	free     bool
	pinCount uint32
	accessed bool
	dirty    bool
}
