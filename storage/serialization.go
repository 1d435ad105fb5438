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

package storage

import (
	"fmt"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/poiesic/chatter/core"
)

// MarshalToken serializes a vocabulary token to bytes.
func MarshalToken(token string) []byte {
	buf := make([]byte, ord.String.Size(token))
	ord.String.Marshal(token, buf)
	return buf
}

// UnmarshalToken deserializes a vocabulary token from bytes.
func UnmarshalToken(data []byte) (string, error) {
	return unmarshal[string](ord.String, data)
}

// MarshalWeightEntry serializes a WeightEntry to bytes.
func MarshalWeightEntry(entry *core.WeightEntry) []byte {
	buf := make([]byte, core.WeightEntryMUS.Size(*entry))
	core.WeightEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalWeightEntry deserializes a WeightEntry from bytes.
func UnmarshalWeightEntry(data []byte) (*core.WeightEntry, error) {
	entry, err := unmarshal[core.WeightEntry](core.WeightEntryMUS, data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalKnowledgeEntry serializes a KnowledgeEntry to bytes.
func MarshalKnowledgeEntry(entry *core.KnowledgeEntry) []byte {
	buf := make([]byte, core.KnowledgeEntryMUS.Size(*entry))
	core.KnowledgeEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalKnowledgeEntry deserializes a KnowledgeEntry from bytes.
func UnmarshalKnowledgeEntry(data []byte) (*core.KnowledgeEntry, error) {
	entry, err := unmarshal[core.KnowledgeEntry](core.KnowledgeEntryMUS, data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalSnapshotMeta serializes SnapshotMeta to bytes.
func MarshalSnapshotMeta(meta *core.SnapshotMeta) []byte {
	buf := make([]byte, core.SnapshotMetaMUS.Size(*meta))
	core.SnapshotMetaMUS.Marshal(*meta, buf)
	return buf
}

// UnmarshalSnapshotMeta deserializes SnapshotMeta from bytes.
// TrainedAt is returned in UTC.
func UnmarshalSnapshotMeta(data []byte) (*core.SnapshotMeta, error) {
	meta, err := unmarshal[core.SnapshotMeta](core.SnapshotMetaMUS, data)
	if err != nil {
		return nil, err
	}
	meta.TrainedAt = meta.TrainedAt.UTC()
	return &meta, nil
}

// unmarshal walks data with Skip before decoding it. Skip allocates nothing,
// so a corrupt length prefix fails here instead of sizing a huge slice.
// The value must consume data exactly.
func unmarshal[T any](ser mus.Serializer[T], data []byte) (v T, err error) {
	n, err := ser.Skip(data)
	if err != nil {
		return v, fmt.Errorf("%w: %w: %w", ErrSerializationFailed, core.ErrMalformedRecord, err)
	}
	if n != len(data) {
		return v, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	v, _, err = ser.Unmarshal(data)
	if err != nil {
		return v, fmt.Errorf("%w: %w: %w", ErrSerializationFailed, core.ErrMalformedRecord, err)
	}
	return v, nil
}
