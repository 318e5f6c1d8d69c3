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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var inodeTracer = otel.Tracer("blockfs/inode")

// StartOpSpan starts a span named op against the global tracer provider. A
// no-op tracer provider (the default until cmd wires a real one) returns a
// no-op span, so calling this unconditionally costs callers nothing when
// tracing is disabled.
func StartOpSpan(ctx context.Context, op string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return inodeTracer.Start(ctx, op, opts...)
}
