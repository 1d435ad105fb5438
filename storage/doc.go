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

// Package storage provides the storage abstraction layer for trained snapshots.
//
// This package defines the repository interface that decouples snapshot
// persistence from training and matching, plus the MUS binary encoding of the
// individual records (vocabulary tokens, weight entries, knowledge entries and
// snapshot metadata).
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return the interface:
//
//	repo, err := badger.NewSnapshotRepository(backend)  // returns storage.SnapshotRepository
//
// # Usage
//
// Persist a freshly trained snapshot:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	repo := badger.NewSnapshotRepository(backend)
//	err = repo.SaveSnapshot(ctx, snapshot)
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemorySnapshotRepository()
//
// # Thread Safety
//
// Repository implementations must be thread-safe. A loaded snapshot is
// immutable and may be shared by any number of goroutines.
package storage
