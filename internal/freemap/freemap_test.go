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

package freemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockfs/blockfs/internal/device"
)

func TestNewReservesLeadingSectors(t *testing.T) {
	fm := New(10, 2)
	assert.Equal(t, 8, fm.NumFree())
}

func TestAllocateNeverReturnsSameSectorTwice(t *testing.T) {
	fm := New(8, 0)
	seen := make(map[device.SectorID]bool)

	for i := 0; i < 8; i++ {
		id, err := fm.Allocate()
		require.NoError(t, err)
		assert.False(t, seen[id], "sector %d allocated twice", id)
		seen[id] = true
	}
	assert.Equal(t, 0, fm.NumFree())
}

func TestAllocateReturnsErrOutOfSpaceWhenExhausted(t *testing.T) {
	fm := New(2, 0)
	_, err := fm.Allocate()
	require.NoError(t, err)
	_, err = fm.Allocate()
	require.NoError(t, err)

	_, err = fm.Allocate()
	assert.ErrorIs(t, err, ErrOutOfSpace)
}

// Universal property 5: total free count round-trips through an
// allocate/release cycle.
func TestReleaseRestoresFreeCount(t *testing.T) {
	fm := New(16, 1)
	before := fm.NumFree()

	var allocated []device.SectorID
	for i := 0; i < 5; i++ {
		id, err := fm.Allocate()
		require.NoError(t, err)
		allocated = append(allocated, id)
	}
	assert.Equal(t, before-5, fm.NumFree())

	for _, id := range allocated {
		fm.Release(id)
	}
	assert.Equal(t, before, fm.NumFree())
}

func TestReleasedSectorCanBeReallocated(t *testing.T) {
	fm := New(4, 0)
	var allocated []device.SectorID
	for i := 0; i < 4; i++ {
		id, err := fm.Allocate()
		require.NoError(t, err)
		allocated = append(allocated, id)
	}

	// Every sector is now allocated; releasing exactly one must make it, and
	// only it, available again.
	fm.Release(allocated[1])

	again, err := fm.Allocate()
	require.NoError(t, err)
	assert.Equal(t, allocated[1], again)
}

func TestReleaseOutOfRangePanics(t *testing.T) {
	fm := New(4, 0)
	assert.Panics(t, func() { fm.Release(100) })
}
