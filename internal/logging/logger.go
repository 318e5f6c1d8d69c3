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

// Package logging is a thin, flag-gated wrapper around the standard log
// package, in the style of the teacher's gcsproxy logger: silent unless
// debug logging is requested, in which case messages go to stderr.
package logging

import (
	"io"
	"log"
	"os"
)

// Logger is a debug-gated logger for the cache and inode layers.
type Logger struct {
	*log.Logger
}

// New returns a Logger that writes to stderr when debug is true, and
// discards everything otherwise.
func New(prefix string, debug bool) *Logger {
	var w io.Writer = io.Discard
	if debug {
		w = os.Stderr
	}
	return &Logger{Logger: log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)}
}
