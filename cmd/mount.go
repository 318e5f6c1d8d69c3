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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blockfs/blockfs/cfg"
	"github.com/blockfs/blockfs/clock"
	"github.com/blockfs/blockfs/common"
	"github.com/blockfs/blockfs/internal/cache"
	"github.com/blockfs/blockfs/internal/device"
	"github.com/blockfs/blockfs/internal/freemap"
	"github.com/blockfs/blockfs/internal/inode"
	"github.com/blockfs/blockfs/internal/superblock"
)

var mountTraceEnabled bool

var mountCmd = &cobra.Command{
	Use:   "mount <image-path>",
	Short: "Wire the cache and inode layer up against an existing device image and serve until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}

		traceShutdown, err := setupTracing(mountTraceEnabled)
		if err != nil {
			return err
		}
		defer traceShutdown(context.Background())

		_, dev, _, shutdown, err := mountDevice(c, args[0])
		if err != nil {
			return err
		}
		defer shutdown(context.Background())

		fmt.Printf("mounted %s: %d sectors of %d bytes, cache capacity %d\n", args[0], dev.NumSectors(), dev.SectorSize(), c.Cache.Capacity)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		fmt.Println("shutting down")
		return nil
	},
}

func init() {
	mountCmd.Flags().BoolVar(&mountTraceEnabled, "trace", false, "Emit per-operation trace spans to stderr as they complete.")
}

// mountDevice opens the device image at path, validates its superblock,
// and wires up the freemap, cache and inode table. The returned shutdown
// function flushes the cache and must be called before the process exits.
func mountDevice(c *cfg.Config, path string) (tbl *inode.Table, dev *device.FileDevice, fm *freemap.FreeMap, shutdown func(context.Context) error, err error) {
	// Open with numSectors=1 first: all we need is sector 0, and the image's
	// true geometry (recorded at format time) may differ from the configured
	// default, particularly its sector count.
	probe, err := device.OpenFileDevice(path, c.Device.SectorSize, 1)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	sb, err := superblock.Read(probe)
	probe.Close()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	dev, err = device.OpenFileDevice(path, int(sb.SectorSize), sb.NumSectors)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	fm = freemap.New(sb.NumSectors, sb.Reserved)
	metrics := common.NewNoopMetrics()
	clk := clock.RealClock{}

	cacheDebug := c.Debug.LogMutex || c.Debug.LogCache
	ch := cache.New(dev, c.Cache.Capacity, clk, c.Cache.WritebackInterval, metrics, cacheDebug)
	tbl = inode.NewTable(dev, ch, fm, metrics, c.Debug.LogInode)

	shutdown = func(ctx context.Context) error {
		err := ch.Shutdown(ctx)
		if cerr := dev.Close(); cerr != nil && err == nil {
			err = cerr
		}
		return err
	}
	return tbl, dev, fm, shutdown, nil
}
