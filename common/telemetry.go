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

package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

type ShutdownFn func(ctx context.Context) error

// The default time buckets for latency metrics. The unit can change per
// metric - some record microseconds, some milliseconds.
var defaultLatencyDistribution = metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 5000, 10000, 20000, 50000, 100000)

// JoinShutdownFunc combines the provided shutdown functions into a single function.
func JoinShutdownFunc(shutdownFns ...ShutdownFn) ShutdownFn {
	return func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFns {
			if fn == nil {
				continue
			}
			err = errors.Join(err, fn(ctx))
		}
		return err
	}
}

// MetricAttr represents the attributes associated with a metric.
type MetricAttr struct {
	Key, Value string
}

func (a *MetricAttr) String() string {
	return fmt.Sprintf("Key: %s, Value: %s", a.Key, a.Value)
}

// CacheMetricHandle records buffered-cache admission, eviction, write-back
// and read-ahead activity.
type CacheMetricHandle interface {
	CacheAccessCount(ctx context.Context, inc int64, attrs []MetricAttr)
	CacheEvictionCount(ctx context.Context, inc int64, attrs []MetricAttr)
	CacheAccessLatency(ctx context.Context, latency time.Duration, attrs []MetricAttr)
	CacheWritebackCount(ctx context.Context, inc int64, attrs []MetricAttr)
	CacheReadAheadCount(ctx context.Context, inc int64, attrs []MetricAttr)
}

// OpsMetricHandle records inode-level operation counts, latency and errors.
type OpsMetricHandle interface {
	OpsCount(ctx context.Context, inc int64, attrs []MetricAttr)
	OpsLatency(ctx context.Context, latency time.Duration, attrs []MetricAttr)
	OpsErrorCount(ctx context.Context, inc int64, attrs []MetricAttr)
}

type MetricHandle interface {
	CacheMetricHandle
	OpsMetricHandle
}

// CacheHit/CacheMiss are the canonical values of the CacheHitKey attribute.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// CaptureCacheAccessMetrics records a single cache admission along with
// whether it was served from an existing slot or required a device read.
func CaptureCacheAccessMetrics(ctx context.Context, metricHandle MetricHandle, hitOrMiss string, latency time.Duration) {
	attrs := []MetricAttr{{Key: CacheHitKey, Value: hitOrMiss}}
	metricHandle.CacheAccessCount(ctx, 1, attrs)
	metricHandle.CacheAccessLatency(ctx, latency, attrs)
}
