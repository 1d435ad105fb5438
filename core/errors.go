// Copyright 2025 Poiesic Systems
//
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

package core

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrConfiguration indicates training input is missing or structurally invalid.
	ErrConfiguration = errors.New("configuration error")

	// ErrData indicates training input parsed but contains unusable values.
	ErrData = errors.New("data error")

	// ErrEmptyQuestion indicates a question has no tokens after tokenization.
	ErrEmptyQuestion = errors.New("question has no words")

	// ErrInvalidWeight indicates a weight below the minimum of 1.
	ErrInvalidWeight = errors.New("weight must be at least 1")

	// ErrInvalidSnapshot indicates a snapshot failed validation.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrMalformedRecord indicates an encoded record could not be decoded.
	ErrMalformedRecord = errors.New("malformed record")
)

func invalidSnapshotf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, fmt.Sprintf(format, args...))
}
