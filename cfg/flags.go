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

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindFlags registers blockfsd's flags on flagSet and binds each one
// through viper, so a config file loaded separately by the caller can
// supply defaults that flags override.
func BindFlags(flagSet *pflag.FlagSet) error {
	def := Default()

	flagSet.Int("sector-size", def.Device.SectorSize, "Sector size in bytes for a newly formatted device image.")
	flagSet.Uint32("num-sectors", def.Device.NumSectors, "Number of sectors in a newly formatted device image.")

	flagSet.Int("cache-capacity", def.Cache.Capacity, "Number of sector frames held by the buffered cache.")
	flagSet.Duration("writeback-interval", def.Cache.WritebackInterval, "How often the periodic writer flushes dirty sectors.")

	flagSet.Int64("max-file-sectors", def.Inode.MaxFileSectors, "Largest file size, in sectors, the inode layer must be able to address.")

	flagSet.Bool("debug_mutex", false, "Log cache device failures, failed periodic write-backs and failed read-aheads.")
	flagSet.Bool("debug_cache", false, "Alias for debug_mutex retained for discoverability.")
	flagSet.Bool("debug_inode", false, "Log inode create/open/close/remove activity.")

	for flagName, key := range map[string]string{
		"sector-size":        "device.sector-size",
		"num-sectors":        "device.num-sectors",
		"cache-capacity":     "cache.capacity",
		"writeback-interval": "cache.writeback-interval",
		"max-file-sectors":   "inode.max-file-sectors",
		"debug_mutex":        "debug.log-mutex",
		"debug_cache":        "debug.log-cache",
		"debug_inode":        "debug.log-inode",
	} {
		if err := viper.BindPFlag(key, flagSet.Lookup(flagName)); err != nil {
			return err
		}
	}
	return nil
}

// FromViper decodes the currently bound flags/config file into a Config,
// rationalizes it, and validates the result.
func FromViper() (*Config, error) {
	c := Default()
	c.Device.SectorSize = viper.GetInt("device.sector-size")
	c.Device.NumSectors = uint32(viper.GetInt64("device.num-sectors"))
	c.Cache.Capacity = viper.GetInt("cache.capacity")
	c.Cache.WritebackInterval = viper.GetDuration("cache.writeback-interval")
	if c.Cache.WritebackInterval == 0 {
		c.Cache.WritebackInterval = time.Duration(viper.GetInt64("cache.writeback-interval"))
	}
	c.Inode.MaxFileSectors = viper.GetInt64("inode.max-file-sectors")
	c.Debug.LogMutex = viper.GetBool("debug.log-mutex")
	c.Debug.LogCache = viper.GetBool("debug.log-cache")
	c.Debug.LogInode = viper.GetBool("debug.log-inode")

	Rationalize(c)
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}
