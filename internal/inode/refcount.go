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

import "fmt"

// refCount is a destroy-on-zero reference counter, generalized from the
// teacher's lookupCount helper to additionally pair a second, bounded
// counter (denyWriteCount) that must never exceed it. External
// synchronization is required; callers hold Table's lock around every
// method here.
type refCount struct {
	openCount      uint32
	denyWriteCount uint32
}

// open increments the open count. Every open must be matched by exactly
// one close.
func (r *refCount) open() {
	r.openCount++
}

// close decrements the open count and reports whether it reached zero.
func (r *refCount) close() (destroyed bool) {
	if r.openCount == 0 {
		panic("blockfs: close of inode with zero open count")
	}
	r.openCount--
	return r.openCount == 0
}

// denyWrite increments denyWriteCount, enforcing the invariant
// denyWriteCount <= openCount.
func (r *refCount) denyWrite() {
	if r.denyWriteCount >= r.openCount {
		panic(fmt.Sprintf("blockfs: denyWrite would exceed openCount (%d)", r.openCount))
	}
	r.denyWriteCount++
}

// allowWrite decrements denyWriteCount.
func (r *refCount) allowWrite() {
	if r.denyWriteCount == 0 {
		panic("blockfs: allowWrite of inode with zero denyWriteCount")
	}
	r.denyWriteCount--
}

func (r *refCount) writeDenied() bool {
	return r.denyWriteCount > 0
}
