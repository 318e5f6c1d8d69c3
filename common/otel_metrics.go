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
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// CacheHitKey annotates a cache access with "hit" or "miss".
	CacheHitKey = "cache_hit"

	// FSOpKey annotates the inode operation processed.
	FSOpKey = "fs_op"

	// FSErrCategoryKey reduces the cardinality of errors by grouping them.
	FSErrCategoryKey = "fs_error_category"
)

// FSOpsErrorCategory pairs an inode operation name with a coarse error class,
// used to keep the error-count metric's cardinality bounded.
type FSOpsErrorCategory struct {
	FSOps         string
	ErrorCategory string
}

var (
	cacheMeter = otel.Meter("block_cache")
	fsOpsMeter = otel.Meter("inode_ops")
)

func attributeSetFor(attrs []MetricAttr) metric.MeasurementOption {
	opts := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		opts = append(opts, attribute.String(a.Key, a.Value))
	}
	return metric.WithAttributeSet(attribute.NewSet(opts...))
}

// otelMetrics maintains the list of all metrics computed by this module.
type otelMetrics struct {
	cacheAccessCount    metric.Int64Counter
	cacheAccessLatency  metric.Float64Histogram
	cacheEvictionCount  metric.Int64Counter
	cacheWritebackCount metric.Int64Counter
	cacheReadAheadCount metric.Int64Counter

	fsOpsCount      metric.Int64Counter
	fsOpsErrorCount metric.Int64Counter
	fsOpsLatency    metric.Float64Histogram
}

func (o *otelMetrics) CacheAccessCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	o.cacheAccessCount.Add(ctx, inc, attributeSetFor(attrs))
}

func (o *otelMetrics) CacheAccessLatency(ctx context.Context, latency time.Duration, attrs []MetricAttr) {
	o.cacheAccessLatency.Record(ctx, float64(latency.Microseconds()), attributeSetFor(attrs))
}

func (o *otelMetrics) CacheEvictionCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	o.cacheEvictionCount.Add(ctx, inc, attributeSetFor(attrs))
}

func (o *otelMetrics) CacheWritebackCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	o.cacheWritebackCount.Add(ctx, inc, attributeSetFor(attrs))
}

func (o *otelMetrics) CacheReadAheadCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	o.cacheReadAheadCount.Add(ctx, inc, attributeSetFor(attrs))
}

func (o *otelMetrics) OpsCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	o.fsOpsCount.Add(ctx, inc, attributeSetFor(attrs))
}

func (o *otelMetrics) OpsLatency(ctx context.Context, latency time.Duration, attrs []MetricAttr) {
	o.fsOpsLatency.Record(ctx, float64(latency.Microseconds()), attributeSetFor(attrs))
}

func (o *otelMetrics) OpsErrorCount(ctx context.Context, inc int64, attrs []MetricAttr) {
	o.fsOpsErrorCount.Add(ctx, inc, attributeSetFor(attrs))
}

// NewOTelMetrics registers and returns the block-cache and inode-layer
// metrics on the global OpenTelemetry meter provider.
func NewOTelMetrics() (MetricHandle, error) {
	cacheAccessCount, err1 := cacheMeter.Int64Counter("cache/access_count",
		metric.WithDescription("The cumulative number of sector admissions, by hit or miss."))
	cacheAccessLatency, err2 := cacheMeter.Float64Histogram("cache/access_latency",
		metric.WithDescription("The distribution of sector admission latencies."),
		metric.WithUnit("us"), defaultLatencyDistribution)
	cacheEvictionCount, err3 := cacheMeter.Int64Counter("cache/eviction_count",
		metric.WithDescription("The cumulative number of clock-algorithm evictions."))
	cacheWritebackCount, err4 := cacheMeter.Int64Counter("cache/writeback_count",
		metric.WithDescription("The cumulative number of dirty sectors written back, by the periodic writer or on eviction."))
	cacheReadAheadCount, err5 := cacheMeter.Int64Counter("cache/read_ahead_count",
		metric.WithDescription("The cumulative number of read-ahead requests scheduled."))

	fsOpsCount, err6 := fsOpsMeter.Int64Counter("inode/ops_count",
		metric.WithDescription("The cumulative number of inode operations processed."))
	fsOpsLatency, err7 := fsOpsMeter.Float64Histogram("inode/ops_latency",
		metric.WithDescription("The distribution of inode operation latencies."),
		metric.WithUnit("us"), defaultLatencyDistribution)
	fsOpsErrorCount, err8 := fsOpsMeter.Int64Counter("inode/ops_error_count",
		metric.WithDescription("The cumulative number of errors generated by inode operations."))

	if err := errors.Join(err1, err2, err3, err4, err5, err6, err7, err8); err != nil {
		return nil, err
	}

	return &otelMetrics{
		cacheAccessCount:    cacheAccessCount,
		cacheAccessLatency:  cacheAccessLatency,
		cacheEvictionCount:  cacheEvictionCount,
		cacheWritebackCount: cacheWritebackCount,
		cacheReadAheadCount: cacheReadAheadCount,
		fsOpsCount:          fsOpsCount,
		fsOpsLatency:        fsOpsLatency,
		fsOpsErrorCount:     fsOpsErrorCount,
	}, nil
}
