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
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blockfs/blockfs/common"
	"github.com/blockfs/blockfs/internal/cache"
	"github.com/blockfs/blockfs/internal/device"
	"github.com/blockfs/blockfs/internal/freemap"
	"github.com/blockfs/blockfs/internal/logging"
)

// Table is the process-wide OpenInodes registry plus the collaborators
// every inode operation needs: the buffered cache for data and indirect
// sectors, the free map for allocation, and the raw device for the one
// read/write pair that is specified to bypass the cache (the inode header
// itself, see Open).
//
// A single mutex guards both map membership and every inode's
// openCount/denyWriteCount/removed fields, matching the spec's "a single
// global inode lock is acceptable".
type Table struct {
	mu    sync.Mutex
	open  map[device.SectorID]*Inode
	dev   device.BlockDevice
	cache *cache.Cache
	fm    *freemap.FreeMap

	sectorSize int
	metrics    common.MetricHandle
	log        *logging.Logger
}

// NewTable constructs an empty OpenInodes table.
func NewTable(dev device.BlockDevice, c *cache.Cache, fm *freemap.FreeMap, metrics common.MetricHandle, debug bool) *Table {
	return &Table{
		open:       make(map[device.SectorID]*Inode),
		dev:        dev,
		cache:      c,
		fm:         fm,
		sectorSize: dev.SectorSize(),
		metrics:    metrics,
		log:        logging.New("inode: ", debug),
	}
}

// Open returns the shared Inode for sector, reading its header from the
// device (not the cache) on first open and incrementing openCount on
// every open thereafter. Two Open calls for the same sector return the
// same *Inode.
func (t *Table) Open(sector device.SectorID) (ino *Inode, err error) {
	start := time.Now()
	defer func() { t.recordOp(start, "open", err) }()

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.open[sector]; ok {
		existing.open()
		return existing, nil
	}

	buf := make([]byte, t.sectorSize)
	if rerr := t.dev.ReadSector(sector, buf); rerr != nil {
		err = rerr
		return nil, err
	}
	disk, derr := unmarshalInodeDisk(buf)
	if derr != nil {
		err = derr
		return nil, err
	}
	if disk.Magic != Magic {
		err = ErrBadMagic
		return nil, err
	}

	ino = &Inode{sector: sector, disk: *disk}
	ino.open()
	t.open[sector] = ino
	return ino, nil
}

// Close decrements ino's open count. If it reaches zero, the inode is
// removed from the table; if it had also been marked Remove'd, every data
// sector, both indirect sectors, and the inode sector itself are returned
// to the free map before the in-memory record is discarded.
func (t *Table) Close(ino *Inode) (err error) {
	start := time.Now()
	defer func() { t.recordOp(start, "close", err) }()

	t.mu.Lock()
	defer t.mu.Unlock()

	if !ino.close() {
		return nil
	}
	delete(t.open, ino.sector)

	if !ino.removed {
		return nil
	}
	return t.reclaim(ino)
}

// Remove schedules ino for deletion once its last handle closes.
func (t *Table) Remove(ino *Inode) {
	start := time.Now()
	t.mu.Lock()
	ino.removed = true
	t.mu.Unlock()
	t.recordOp(start, "remove", nil)
}

// DenyWrite increments ino's write-deny count.
func (t *Table) DenyWrite(ino *Inode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ino.denyWrite()
}

// AllowWrite decrements ino's write-deny count.
func (t *Table) AllowWrite(ino *Inode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ino.allowWrite()
}

func (t *Table) recordOp(start time.Time, op string, err error) {
	ctx := context.Background()
	attrs := []common.MetricAttr{{Key: common.FSOpKey, Value: op}}
	t.log.Printf("%s: err=%v", op, err)
	t.metrics.OpsCount(ctx, 1, attrs)
	t.metrics.OpsLatency(ctx, time.Since(start), attrs)
	if err != nil {
		t.metrics.OpsErrorCount(ctx, 1, []common.MetricAttr{
			{Key: common.FSOpKey, Value: op},
			{Key: common.FSErrCategoryKey, Value: errorCategory(err)},
		})
	}

	_, span := common.StartOpSpan(ctx, op, trace.WithTimestamp(start))
	if err != nil {
		span.SetStatus(codes.Error, errorCategory(err))
	}
	span.End(trace.WithTimestamp(time.Now()))
}

func errorCategory(err error) string {
	switch {
	case errors.Is(err, freemap.ErrOutOfSpace):
		return "out_of_space"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDenied):
		return "denied"
	case errors.Is(err, ErrBadMagic):
		return "bad_magic"
	default:
		return "other"
	}
}
