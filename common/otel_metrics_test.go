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
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupOTel(t *testing.T) (*otelMetrics, *metric.ManualReader) {
	t.Helper()
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)

	handle, err := NewOTelMetrics()
	require.NoError(t, err)
	m, ok := handle.(*otelMetrics)
	require.True(t, ok)
	return m, reader
}

func gatherNonZeroCounterMetrics(ctx context.Context, t *testing.T, rd *metric.ManualReader) map[string]map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, rd.Collect(ctx, &rm))

	results := make(map[string]map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			metricMap := make(map[string]int64)
			for _, dp := range sum.DataPoints {
				if dp.Value == 0 {
					continue
				}
				metricMap[attrKey(dp.Attributes)] = dp.Value
			}
			if len(metricMap) > 0 {
				results[m.Name] = metricMap
			}
		}
	}
	return results
}

func gatherHistogramMetrics(ctx context.Context, t *testing.T, rd *metric.ManualReader) map[string]map[string]metricdata.HistogramDataPoint[float64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, rd.Collect(ctx, &rm))

	results := make(map[string]map[string]metricdata.HistogramDataPoint[float64])
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			hist, ok := m.Data.(metricdata.Histogram[float64])
			if !ok {
				continue
			}
			metricMap := make(map[string]metricdata.HistogramDataPoint[float64])
			for _, dp := range hist.DataPoints {
				if dp.Count == 0 {
					continue
				}
				metricMap[attrKey(dp.Attributes)] = dp
			}
			if len(metricMap) > 0 {
				results[m.Name] = metricMap
			}
		}
	}
	return results
}

func attrKey(set attribute.Set) string {
	var parts []string
	for _, kv := range set.ToSlice() {
		parts = append(parts, fmt.Sprintf("%s=%s", kv.Key, kv.Value.AsString()))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

func waitForMetricsProcessing() {
	time.Sleep(time.Millisecond)
}

func TestOTelCacheAccessCount(t *testing.T) {
	m, rd := setupOTel(t)
	ctx := context.Background()

	m.CacheAccessCount(ctx, 3, []MetricAttr{{Key: CacheHitKey, Value: "true"}})
	m.CacheAccessCount(ctx, 2, []MetricAttr{{Key: CacheHitKey, Value: "false"}})
	m.CacheAccessCount(ctx, 5, []MetricAttr{{Key: CacheHitKey, Value: "true"}})
	waitForMetricsProcessing()

	metrics := gatherNonZeroCounterMetrics(ctx, t, rd)
	counts, ok := metrics["cache/access_count"]
	require.True(t, ok, "cache/access_count metric not found")
	assert.Equal(t, map[string]int64{"cache_hit=true": 8, "cache_hit=false": 2}, counts)
}

func TestOTelCacheEvictionAndWritebackCount(t *testing.T) {
	m, rd := setupOTel(t)
	ctx := context.Background()

	m.CacheEvictionCount(ctx, 1, nil)
	m.CacheWritebackCount(ctx, 4, nil)
	waitForMetricsProcessing()

	metrics := gatherNonZeroCounterMetrics(ctx, t, rd)
	evictions, ok := metrics["cache/eviction_count"]
	require.True(t, ok, "cache/eviction_count metric not found")
	assert.Equal(t, map[string]int64{"": 1}, evictions)

	writebacks, ok := metrics["cache/writeback_count"]
	require.True(t, ok, "cache/writeback_count metric not found")
	assert.Equal(t, map[string]int64{"": 4}, writebacks)
}

func TestOTelCacheReadAheadCount(t *testing.T) {
	m, rd := setupOTel(t)
	ctx := context.Background()

	m.CacheReadAheadCount(ctx, 7, nil)
	waitForMetricsProcessing()

	metrics := gatherNonZeroCounterMetrics(ctx, t, rd)
	readAhead, ok := metrics["cache/read_ahead_count"]
	require.True(t, ok, "cache/read_ahead_count metric not found")
	assert.Equal(t, map[string]int64{"": 7}, readAhead)
}

func TestOTelCacheAccessLatency(t *testing.T) {
	m, rd := setupOTel(t)
	ctx := context.Background()

	m.CacheAccessLatency(ctx, 250*time.Microsecond, []MetricAttr{{Key: CacheHitKey, Value: "true"}})
	waitForMetricsProcessing()

	metrics := gatherHistogramMetrics(ctx, t, rd)
	latency, ok := metrics["cache/access_latency"]
	require.True(t, ok, "cache/access_latency metric not found")
	dp, ok := latency["cache_hit=true"]
	require.True(t, ok, "DataPoint not found for cache_hit=true")
	assert.Equal(t, uint64(1), dp.Count)
	assert.Equal(t, float64(250), dp.Sum)
}

func TestOTelOpsCountAndErrorCount(t *testing.T) {
	m, rd := setupOTel(t)
	ctx := context.Background()

	m.OpsCount(ctx, 3, []MetricAttr{{Key: FSOpKey, Value: "write"}})
	m.OpsCount(ctx, 2, []MetricAttr{{Key: FSOpKey, Value: "write"}})
	m.OpsErrorCount(ctx, 1, []MetricAttr{
		{Key: FSOpKey, Value: "write"},
		{Key: FSErrCategoryKey, Value: "out_of_space"},
	})
	waitForMetricsProcessing()

	metrics := gatherNonZeroCounterMetrics(ctx, t, rd)
	opsCount, ok := metrics["inode/ops_count"]
	require.True(t, ok, "inode/ops_count metric not found")
	assert.Equal(t, map[string]int64{"fs_op=write": 5}, opsCount)

	errCount, ok := metrics["inode/ops_error_count"]
	require.True(t, ok, "inode/ops_error_count metric not found")
	assert.Equal(t, map[string]int64{"fs_error_category=out_of_space;fs_op=write": 1}, errCount)
}

func TestOTelOpsLatency(t *testing.T) {
	m, rd := setupOTel(t)
	ctx := context.Background()
	latency := 42 * time.Microsecond

	m.OpsLatency(ctx, latency, []MetricAttr{{Key: FSOpKey, Value: "read"}})
	waitForMetricsProcessing()

	metrics := gatherHistogramMetrics(ctx, t, rd)
	opsLatency, ok := metrics["inode/ops_latency"]
	require.True(t, ok, "inode/ops_latency metric not found")
	dp, ok := opsLatency["fs_op=read"]
	require.True(t, ok, "DataPoint not found for fs_op=read")
	assert.Equal(t, uint64(1), dp.Count)
	assert.Equal(t, float64(latency.Microseconds()), dp.Sum)
}
