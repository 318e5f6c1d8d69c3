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

// Package invariant provides a small wrapper around sync.Mutex that checks
// a caller-supplied invariant function every time the lock is released,
// modeled on the GUARDED_BY(Mu) / checkInvariants() convention used
// throughout the teacher's fs/inode package (see fs/inode/file.go there).
// Unlike that upstream helper, this one is invoked unconditionally: there is
// no build tag to disable it, since the cache and inode state machines this
// module implements are small enough that the check is cheap relative to
// the device I/O each critical section already performs.
package invariant

import "sync"

// Mutex is a sync.Mutex paired with an invariant check run on every Unlock.
// A panicking check function surfaces programmer errors (a broken cache or
// inode invariant) immediately at the point they are introduced rather than
// as a much-later, confusing symptom.
type Mutex struct {
	mu    sync.Mutex
	check func()
}

// NewMutex returns a Mutex that calls check after every critical section.
// check must not itself attempt to acquire the mutex.
func NewMutex(check func()) *Mutex {
	return &Mutex{check: check}
}

func (m *Mutex) Lock() {
	m.mu.Lock()
}

// Unlock checks the invariant and then releases the lock. The check runs
// while still holding the lock so that a racing goroutine can never observe
// a state the invariant forbids.
func (m *Mutex) Unlock() {
	if m.check != nil {
		m.check()
	}
	m.mu.Unlock()
}
