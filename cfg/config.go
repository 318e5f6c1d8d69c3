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

// Package cfg is the flag/config-file surface for blockfsd, in the
// teacher's bind-flags-then-rationalize-then-validate style (pflag for
// flag parsing, viper for layering a config file underneath flags).
package cfg

import "time"

// Config is the root configuration object for blockfsd.
type Config struct {
	Device DeviceConfig `yaml:"device"`
	Cache  CacheConfig  `yaml:"cache"`
	Inode  InodeConfig  `yaml:"inode"`
	Debug  DebugConfig  `yaml:"debug"`
}

// DeviceConfig describes the backing image the cache and inode layer run
// against.
type DeviceConfig struct {
	ImagePath  string `yaml:"image-path"`
	SectorSize int    `yaml:"sector-size"`
	NumSectors uint32 `yaml:"num-sectors"`
}

// CacheConfig configures the buffered block cache.
type CacheConfig struct {
	Capacity          int           `yaml:"capacity"`
	WritebackInterval time.Duration `yaml:"writeback-interval"`
}

// InodeConfig configures the inode layer's sector-mapping geometry.
// DirectN and IndirectN are derived by Rationalize from Device.SectorSize
// alone rather than set directly; MaxFileSectors does not enter into them.
type InodeConfig struct {
	MaxFileSectors int64 `yaml:"max-file-sectors"`
	DirectN        int   `yaml:"-"`
	IndirectN      int   `yaml:"-"`
}

// DebugConfig gates the debug logging emitted by the cache and inode
// layers, in the teacher's debug_mutex / debug_fuse naming style.
type DebugConfig struct {
	LogMutex bool `yaml:"log-mutex"`
	LogCache bool `yaml:"log-cache"`
	LogInode bool `yaml:"log-inode"`
}

// Default returns a Config with the reference 512-byte-sector geometry
// from the distilled specification.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			SectorSize: 512,
			NumSectors: 1 << 16,
		},
		Cache: CacheConfig{
			Capacity:          64,
			WritebackInterval: 4 * time.Second,
		},
		Inode: InodeConfig{
			MaxFileSectors: 12 + 128 + 128*128,
		},
	}
}
