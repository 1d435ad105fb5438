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

// Package search finds the stored question that best matches free-text input.
//
// Matching is expand-then-score:
//
//   - The query is lower-cased and split on whitespace. Each token found in
//     the vocabulary contributes its word ID and every ID in its synonym list.
//     Unknown tokens contribute nothing. Expansion is one-directional: a word
//     only pulls in the synonyms it lists itself.
//   - Every stored question Q scores sum(weight of ids in Q that are in the
//     expanded set) / sum(weight of ids in Q). Repeated words in Q count once
//     per occurrence.
//   - The highest score wins. Ties keep the earlier question in knowledge base
//     order. A score of exactly 0 never matches.
package search
