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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockfs/blockfs/cfg"
	"github.com/blockfs/blockfs/internal/device"
	"github.com/blockfs/blockfs/internal/superblock"
)

var formatSizeMB int64

var formatCmd = &cobra.Command{
	Use:   "format <image-path>",
	Short: "Lay down a zeroed device image with a fresh superblock",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}

		numSectors := uint32(formatSizeMB * 1024 * 1024 / int64(c.Device.SectorSize))
		if numSectors == 0 {
			return fmt.Errorf("blockfs: --size-mb %d too small for sector size %d", formatSizeMB, c.Device.SectorSize)
		}

		if err := formatImage(c, args[0], numSectors); err != nil {
			return err
		}
		fmt.Printf("formatted %s: %d sectors of %d bytes\n", args[0], numSectors, c.Device.SectorSize)
		return nil
	},
}

func init() {
	formatCmd.Flags().Int64Var(&formatSizeMB, "size-mb", 32, "Size of the new device image, in megabytes.")
}

// formatImage creates a zero-filled device image of numSectors sectors at
// path and stamps it with a fresh superblock.
func formatImage(c *cfg.Config, path string, numSectors uint32) error {
	dev, err := device.CreateFileDevice(path, c.Device.SectorSize, numSectors)
	if err != nil {
		return err
	}
	defer dev.Close()

	sb, err := superblock.New(c.Device.SectorSize, numSectors, 1)
	if err != nil {
		return err
	}
	return superblock.Write(dev, sb)
}
