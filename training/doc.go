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

// Package training turns question/answer text into a trained snapshot.
//
// Training is a one-shot batch job:
//
//  1. Tokenize every question (punctuation stripped) and answer (sentence
//     terminals kept).
//  2. Count every occurrence of every question token. Answers never
//     influence weights.
//  3. Derive weight = max(1, roundHalfEven(scale / count)). Rare words
//     weigh more than common ones. The default scale is 1000.
//  4. Merge optional weight overrides (explicit weights and synonym lists).
//  5. Build the vocabulary as the sorted union of question tokens, answer
//     tokens, override words, synonym words and the three sentence terminals.
//  6. Translate questions, answers and weights into word IDs.
//
// The result is validated before it is returned; a failed run produces no
// snapshot at all.
package training
