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

import "fmt"

// ValidateSnapshot validates a Snapshot according to domain rules.
//
// Validation rules:
//   - Vocabulary, Weights and Knowledge must be present
//   - every terminal punctuation token is in the vocabulary
//   - every word ID in the weight table and knowledge base is < vocabulary size
//   - every stored weight is at least 1
//   - no word lists itself as a synonym
//   - no knowledge base question is empty
//
// NOT validated:
//   - Meta (informational only)
func ValidateSnapshot(s *Snapshot) error {
	if s == nil {
		return invalidSnapshotf("snapshot is nil")
	}
	if s.Vocabulary == nil || s.Weights == nil || s.Knowledge == nil {
		return invalidSnapshotf("snapshot is incomplete")
	}

	vocab := s.Vocabulary
	for _, t := range Terminals {
		if _, ok := vocab.Lookup(t); !ok {
			return invalidSnapshotf("vocabulary is missing %q", t)
		}
	}

	for _, id := range s.Weights.IDs() {
		if !vocab.Contains(id) {
			return invalidSnapshotf("weight entry for unknown word %d", id)
		}
		e, _ := s.Weights.Lookup(id)
		if e.Weight < 1 {
			return invalidSnapshotf("word %q: %v", vocab.Word(id), ErrInvalidWeight)
		}
		for _, syn := range e.Synonyms {
			if !vocab.Contains(syn) {
				return invalidSnapshotf("word %q lists unknown synonym %d", vocab.Word(id), syn)
			}
			if syn == id {
				return invalidSnapshotf("word %q lists itself as a synonym", vocab.Word(id))
			}
		}
	}

	for i, e := range s.Knowledge.Entries() {
		if len(e.Question) == 0 {
			return invalidSnapshotf("knowledge entry %d has an empty question", i)
		}
		if err := checkIDs(vocab, e.Question); err != nil {
			return invalidSnapshotf("knowledge entry %d question: %v", i, err)
		}
		if err := checkIDs(vocab, e.Answer); err != nil {
			return invalidSnapshotf("knowledge entry %d answer: %v", i, err)
		}
	}
	return nil
}

func checkIDs(vocab *Vocabulary, ids []WordID) error {
	for _, id := range ids {
		if !vocab.Contains(id) {
			return fmt.Errorf("word id %d out of range for vocabulary of %d", id, vocab.Len())
		}
	}
	return nil
}
