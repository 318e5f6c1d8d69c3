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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaultConfigIsValid(t *testing.T) {
	c := Default()
	Rationalize(c)
	require.NoError(t, Validate(c))
}

func TestValidateRejectsBadDeviceConfig(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"sector size too small", func(c *Config) { c.Device.SectorSize = 32 }, SectorSizeTooSmallError},
		{"sector size not power of two", func(c *Config) { c.Device.SectorSize = 500 }, SectorSizeNotPow2Error},
		{"zero sectors", func(c *Config) { c.Device.NumSectors = 0 }, NumSectorsZeroError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			Rationalize(c)
			err := Validate(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateRejectsBadCacheConfig(t *testing.T) {
	c := Default()
	c.Cache.Capacity = 0
	Rationalize(c)
	err := Validate(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), CacheCapacityInvalidError)

	c = Default()
	c.Cache.WritebackInterval = -time.Second
	Rationalize(c)
	err = Validate(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), WritebackNegativeError)
}

func TestValidateRejectsInodeConfigWithoutRationalize(t *testing.T) {
	// A Config that has never been through Rationalize carries zero-valued
	// DirectN/IndirectN, which Validate must reject rather than silently
	// accept.
	c := Default()
	err := Validate(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), DirectNInvalidError)
}
