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

import "fmt"

const (
	SectorSizeTooSmallError    = "device.sector-size must be at least 64 bytes"
	SectorSizeNotPow2Error     = "device.sector-size must be a power of two"
	NumSectorsZeroError        = "device.num-sectors must be at least 1"
	CacheCapacityInvalidError  = "cache.capacity must be at least 1"
	WritebackNegativeError     = "cache.writeback-interval must not be negative"
	MaxFileSectorsInvalidError = "inode.max-file-sectors must be at least 1"
	DirectNInvalidError        = "device.sector-size leaves no room for direct pointers in the inode header"
)

func isValidDeviceConfig(c *DeviceConfig) error {
	if c.SectorSize < 64 {
		return fmt.Errorf(SectorSizeTooSmallError)
	}
	if c.SectorSize&(c.SectorSize-1) != 0 {
		return fmt.Errorf(SectorSizeNotPow2Error)
	}
	if c.NumSectors < 1 {
		return fmt.Errorf(NumSectorsZeroError)
	}
	return nil
}

func isValidCacheConfig(c *CacheConfig) error {
	if c.Capacity < 1 {
		return fmt.Errorf(CacheCapacityInvalidError)
	}
	if c.WritebackInterval < 0 {
		return fmt.Errorf(WritebackNegativeError)
	}
	return nil
}

func isValidInodeConfig(c *InodeConfig) error {
	if c.MaxFileSectors < 1 {
		return fmt.Errorf(MaxFileSectorsInvalidError)
	}
	if c.DirectN < 1 {
		return fmt.Errorf(DirectNInvalidError)
	}
	return nil
}

// Validate returns a non-nil error if c is invalid. Callers must run
// Rationalize(c) first so the derived Inode fields are populated.
func Validate(c *Config) error {
	if err := isValidDeviceConfig(&c.Device); err != nil {
		return fmt.Errorf("error parsing device config: %w", err)
	}
	if err := isValidCacheConfig(&c.Cache); err != nil {
		return fmt.Errorf("error parsing cache config: %w", err)
	}
	if err := isValidInodeConfig(&c.Inode); err != nil {
		return fmt.Errorf("error parsing inode config: %w", err)
	}
	return nil
}
