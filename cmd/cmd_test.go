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

package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockfs/blockfs/cfg"
	"github.com/blockfs/blockfs/internal/device"
)

func TestFormatThenMountRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image")

	c := cfg.Default()
	c.Device.SectorSize = 512
	cfg.Rationalize(c)
	require.NoError(t, cfg.Validate(c))

	numSectors := uint32(1 * 1024 * 1024 / c.Device.SectorSize) // 1 MiB image
	require.NoError(t, formatImage(c, path, numSectors))

	tbl, dev, fm, shutdown, err := mountDevice(c, path)
	require.NoError(t, err)
	defer shutdown(context.Background())

	assert.Equal(t, numSectors, dev.NumSectors())

	inodeSector, err := fm.Allocate()
	require.NoError(t, err)

	ok, err := tbl.Create(inodeSector, 100)
	require.NoError(t, err)
	require.True(t, ok)

	ino, err := tbl.Open(inodeSector)
	require.NoError(t, err)

	want := bytes.Repeat([]byte("x"), 100)
	n, err := tbl.WriteAt(ino, want, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	got := make([]byte, 100)
	n, err = tbl.ReadAt(ino, got, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, want, got)

	require.NoError(t, tbl.Close(ino))
}

func TestMountRejectsMissingImage(t *testing.T) {
	c := cfg.Default()
	cfg.Rationalize(c)

	_, _, _, _, err := mountDevice(c, filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestMountRejectsImageWithoutSuperblock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image")
	c := cfg.Default()
	cfg.Rationalize(c)

	dev, err := device.CreateFileDevice(path, c.Device.SectorSize, 64)
	require.NoError(t, err)
	require.NoError(t, dev.Close())

	_, _, _, _, err = mountDevice(c, path)
	assert.Error(t, err)
}
