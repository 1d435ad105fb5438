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

package training

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/poiesic/chatter/core"
	"github.com/poiesic/chatter/text"
)

// DefaultScale is the numerator of the rarity weight.
const DefaultScale uint32 = 1000

// Trainer builds snapshots from a corpus.
type Trainer struct {
	scale     uint32
	overrides ScoreTable
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Trainer.
type Option func(*Trainer) error

// WithScale sets the weight scale factor.
// Default is 1000.
func WithScale(scale uint32) Option {
	return func(t *Trainer) error {
		if scale == 0 {
			return ErrInvalidScale
		}
		t.scale = scale
		return nil
	}
}

// WithOverrides sets explicit weights and synonym lists merged into the
// derived weight table.
func WithOverrides(overrides ScoreTable) Option {
	return func(t *Trainer) error {
		t.overrides = overrides
		return nil
	}
}

// WithClock sets the time source used for snapshot metadata.
// Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) error {
		if now != nil {
			t.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trainer) error {
		if logger == nil {
			logger = slog.Default()
		}
		t.logger = logger
		return nil
	}
}

// NewTrainer creates a trainer.
func NewTrainer(opts ...Option) (*Trainer, error) {
	t := &Trainer{
		scale:  DefaultScale,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// tokenizedPair is a corpus pair after tokenization.
type tokenizedPair struct {
	raw      Pair
	question []string
	answer   []string
}

// Weight derives a word weight from its occurrence count:
// max(1, roundHalfEven(scale / count)).
func Weight(scale uint32, count int) uint32 {
	if count <= 0 {
		return core.DefaultWeight
	}
	w := math.RoundToEven(float64(scale) / float64(count))
	if w < 1 {
		return 1
	}
	return uint32(w)
}

// Scores computes the word-level weight table: derived weights for every
// question word merged with the configured overrides.
func (t *Trainer) Scores(corpus *Corpus) (ScoreTable, error) {
	pairs, err := t.tokenize(corpus)
	if err != nil {
		return nil, err
	}
	return t.scores(pairs), nil
}

// Train builds a validated snapshot from corpus.
// Returns an error wrapping core.ErrData if a question has no words.
func (t *Trainer) Train(ctx context.Context, corpus *Corpus) (*core.Snapshot, error) {
	pairs, err := t.tokenize(corpus)
	if err != nil {
		return nil, err
	}
	scores := t.scores(pairs)

	vocab, err := buildVocabulary(pairs, scores)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kb := core.NewKnowledgeBase()
	for _, p := range pairs {
		if replaced := kb.Put(toIDs(vocab, p.question), toIDs(vocab, p.answer)); replaced {
			t.logger.Warn("question collides with an earlier one after tokenization, later answer wins",
				"question", p.raw.Question)
		}
	}

	entries := make(map[core.WordID]core.WeightEntry, len(scores))
	for word, score := range scores {
		id, ok := vocab.Lookup(word)
		if !ok {
			continue
		}
		entry := core.WeightEntry{Weight: score.Weight}
		for _, syn := range score.Synonyms {
			if synID, ok := vocab.Lookup(syn); ok && synID != id {
				entry.Synonyms = append(entry.Synonyms, synID)
			}
		}
		entries[id] = entry
	}
	weights := core.NewWeightTable(entries)

	snapshot := &core.Snapshot{
		Vocabulary: vocab,
		Weights:    weights,
		Knowledge:  kb,
		Meta: core.SnapshotMeta{
			Fingerprint: core.Fingerprint(vocab, weights, kb),
			Scale:       t.scale,
			TrainedAt:   t.now().UTC().Truncate(time.Microsecond),
			Vocabulary:  vocab.Len(),
			Weights:     weights.Len(),
			Entries:     kb.Len(),
		},
	}
	if err := core.ValidateSnapshot(snapshot); err != nil {
		return nil, err
	}

	t.logger.Info("training complete",
		"pairs", corpus.Len(),
		"vocabulary", vocab.Len(),
		"weights", weights.Len(),
		"entries", kb.Len(),
		"fingerprint", fmt.Sprintf("%016x", uint64(snapshot.Meta.Fingerprint)))
	return snapshot, nil
}

func (t *Trainer) tokenize(corpus *Corpus) ([]tokenizedPair, error) {
	if corpus == nil {
		return nil, ErrCorpusRequired
	}
	pairs := make([]tokenizedPair, 0, corpus.Len())
	for _, p := range corpus.Pairs() {
		q := text.Question(p.Question)
		if len(q) == 0 {
			return nil, fmt.Errorf("%w: %q: %w", core.ErrData, p.Question, core.ErrEmptyQuestion)
		}
		a := text.Answer(p.Answer)
		if len(a) == 0 {
			t.logger.Warn("answer has no words", "question", p.Question)
		}
		pairs = append(pairs, tokenizedPair{raw: p, question: q, answer: a})
	}
	return pairs, nil
}

func (t *Trainer) scores(pairs []tokenizedPair) ScoreTable {
	counts := make(map[string]int)
	for _, p := range pairs {
		for _, word := range p.question {
			counts[word]++
		}
	}

	scores := make(ScoreTable, len(counts)+len(t.overrides))
	for word, count := range counts {
		scores[word] = Score{Weight: Weight(t.scale, count)}
	}

	for _, word := range t.overrides.Words() {
		override := t.overrides[word]
		score, ok := scores[word]
		if !ok {
			score = Score{Weight: core.DefaultWeight}
		}
		score = mergeScores(score, override)
		t.logger.Debug("applied weight override", "word", word, "weight", score.Weight, "synonyms", score.Synonyms)
		scores[word] = score
	}
	return scores
}

func buildVocabulary(pairs []tokenizedPair, scores ScoreTable) (*core.Vocabulary, error) {
	seen := make(map[string]struct{})
	add := func(words ...string) {
		for _, w := range words {
			seen[w] = struct{}{}
		}
	}
	for _, p := range pairs {
		add(p.question...)
		add(p.answer...)
	}
	for word, score := range scores {
		add(word)
		add(score.Synonyms...)
	}
	add(core.Terminals...)

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	slices.Sort(words)
	return core.NewVocabulary(words)
}

// toIDs translates tokens known to be in vocab.
func toIDs(vocab *core.Vocabulary, tokens []string) []core.WordID {
	ids := make([]core.WordID, len(tokens))
	for i, tok := range tokens {
		ids[i], _ = vocab.Lookup(tok)
	}
	return ids
}
