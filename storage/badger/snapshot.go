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

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/chatter/core"
	"github.com/poiesic/chatter/storage"
)

// snapshotRepository implements storage.SnapshotRepository using BadgerDB.
type snapshotRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.SnapshotRepository = (*snapshotRepository)(nil)

// NewSnapshotRepository creates a new BadgerDB-backed snapshot repository.
func NewSnapshotRepository(backend *Backend) (storage.SnapshotRepository, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &snapshotRepository{
		backend: backend,
		logger:  backend.logger.With("component", "snapshot-repository"),
	}, nil
}

// SaveSnapshot replaces the stored snapshot.
// The old metadata is removed first and the new metadata written last, so a
// crash mid-save leaves the store reporting ErrNotFound rather than a mix of
// two snapshots.
func (r *snapshotRepository) SaveSnapshot(ctx context.Context, s *core.Snapshot) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := core.ValidateSnapshot(s); err != nil {
		return err
	}

	err := r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		return tx.Delete([]byte(snapshotMetaKey))
	})
	if err != nil {
		return fmt.Errorf("clearing snapshot metadata: %w", err)
	}
	if err := r.backend.DropPrefix(dataPrefixes...); err != nil {
		return fmt.Errorf("clearing snapshot records: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = r.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for i, word := range s.Vocabulary.Words() {
			if err := wb.Set(makeVocabularyKey(core.WordID(i)), storage.MarshalToken(word)); err != nil {
				return err
			}
		}
		for _, id := range s.Weights.IDs() {
			entry := s.Weights.Get(id)
			if err := wb.Set(makeWeightKey(id), storage.MarshalWeightEntry(&entry)); err != nil {
				return err
			}
		}
		for i, entry := range s.Knowledge.Entries() {
			if err := wb.Set(makeKnowledgeKey(i), storage.MarshalKnowledgeEntry(&entry)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing snapshot records: %w", err)
	}

	meta := s.Meta
	err = r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		return tx.Set([]byte(snapshotMetaKey), storage.MarshalSnapshotMeta(&meta))
	})
	if err != nil {
		return fmt.Errorf("writing snapshot metadata: %w", err)
	}

	r.logger.Debug("snapshot saved",
		"vocabulary", meta.Vocabulary,
		"weights", meta.Weights,
		"entries", meta.Entries)
	return nil
}

// LoadMeta reads the stored snapshot metadata.
func (r *snapshotRepository) LoadMeta(ctx context.Context) (*core.SnapshotMeta, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var meta *core.SnapshotMeta
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		meta, err = readMeta(tx)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// LoadSnapshot reads every snapshot record in a single read transaction and
// checks the result against the stored metadata.
func (r *snapshotRepository) LoadSnapshot(ctx context.Context) (*core.Snapshot, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var snapshot *core.Snapshot
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		meta, err := readMeta(tx)
		if err != nil {
			return err
		}

		var words []string
		err = scanPrefix(ctx, tx, vocabularyPrefix, func(index uint32, val []byte) error {
			if int(index) != len(words) {
				return fmt.Errorf("vocabulary gap at word %d", len(words))
			}
			word, err := storage.UnmarshalToken(val)
			if err != nil {
				return err
			}
			words = append(words, word)
			return nil
		})
		if err != nil {
			return err
		}
		vocab, err := core.NewVocabulary(words)
		if err != nil {
			return err
		}

		entries := make(map[core.WordID]core.WeightEntry)
		err = scanPrefix(ctx, tx, weightPrefix, func(index uint32, val []byte) error {
			entry, err := storage.UnmarshalWeightEntry(val)
			if err != nil {
				return err
			}
			entries[core.WordID(index)] = *entry
			return nil
		})
		if err != nil {
			return err
		}
		weights := core.NewWeightTable(entries)

		kb := core.NewKnowledgeBase()
		err = scanPrefix(ctx, tx, knowledgePrefix, func(index uint32, val []byte) error {
			if int(index) != kb.Len() {
				return fmt.Errorf("knowledge base gap at entry %d", kb.Len())
			}
			entry, err := storage.UnmarshalKnowledgeEntry(val)
			if err != nil {
				return err
			}
			if kb.Put(entry.Question, entry.Answer) {
				return fmt.Errorf("duplicate question at entry %d", index)
			}
			return nil
		})
		if err != nil {
			return err
		}

		snapshot = &core.Snapshot{
			Vocabulary: vocab,
			Weights:    weights,
			Knowledge:  kb,
			Meta:       *meta,
		}
		return verify(snapshot)
	}, false)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", storage.ErrCorruptSnapshot, err)
	}

	r.logger.Debug("snapshot loaded",
		"vocabulary", snapshot.Vocabulary.Len(),
		"weights", snapshot.Weights.Len(),
		"entries", snapshot.Knowledge.Len())
	return snapshot, nil
}

// Close is a no-op; the backend is owned and closed by the caller.
func (r *snapshotRepository) Close() error {
	return nil
}

func readMeta(tx *badger.Txn) (*core.SnapshotMeta, error) {
	item, err := tx.Get([]byte(snapshotMetaKey))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var meta *core.SnapshotMeta
	err = item.Value(func(val []byte) error {
		meta, err = storage.UnmarshalSnapshotMeta(val)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: metadata: %w", storage.ErrCorruptSnapshot, err)
	}
	return meta, nil
}

// scanPrefix calls fn for every key under prefix in key order.
func scanPrefix(ctx context.Context, tx *badger.Txn, prefix string, fn func(index uint32, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := iter.Item()
		index, ok := keyIndex(prefix, item.Key())
		if !ok {
			return fmt.Errorf("unexpected key %q", item.Key())
		}
		if err := item.Value(func(val []byte) error {
			return fn(index, val)
		}); err != nil {
			return err
		}
	}
	return nil
}

// verify checks a loaded snapshot against its metadata.
func verify(s *core.Snapshot) error {
	if s.Vocabulary.Len() != s.Meta.Vocabulary ||
		s.Weights.Len() != s.Meta.Weights ||
		s.Knowledge.Len() != s.Meta.Entries {
		return fmt.Errorf("record counts %d/%d/%d do not match metadata %d/%d/%d",
			s.Vocabulary.Len(), s.Weights.Len(), s.Knowledge.Len(),
			s.Meta.Vocabulary, s.Meta.Weights, s.Meta.Entries)
	}
	if fp := core.Fingerprint(s.Vocabulary, s.Weights, s.Knowledge); fp != s.Meta.Fingerprint {
		return fmt.Errorf("fingerprint %016x does not match metadata %016x", uint64(fp), uint64(s.Meta.Fingerprint))
	}
	return core.ValidateSnapshot(s)
}
