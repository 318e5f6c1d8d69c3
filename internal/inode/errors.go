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

package inode

import "errors"

var (
	// ErrNotFound means an offset resolved past the end of the file.
	ErrNotFound = errors.New("blockfs: offset past end of file")

	// ErrDenied means a write was attempted while denyWriteCount > 0.
	// WriteAt does not return this directly (it returns (0, nil) to match
	// "writes zero bytes"); it is available via errors.Is against the
	// error returned by TryWriteAt for callers that care which zero-byte
	// case they hit.
	ErrDenied = errors.New("blockfs: write denied")

	// ErrBadMagic means a sector read as an inode header did not carry
	// the expected magic number.
	ErrBadMagic = errors.New("blockfs: inode sector has bad magic")
)
