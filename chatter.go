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


// Package chatter answers questions from a closed domain by matching them
// against a trained question/answer knowledge base.
//
// A Bot owns the snapshot store. Training replaces the stored snapshot;
// asking matches a query against the current one and renders the answer.
package chatter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/chatter/config"
	"github.com/poiesic/chatter/core"
	"github.com/poiesic/chatter/metrics"
	"github.com/poiesic/chatter/render"
	"github.com/poiesic/chatter/search"
	"github.com/poiesic/chatter/storage"
	"github.com/poiesic/chatter/storage/badger"
	"github.com/poiesic/chatter/training"
)

// ErrNotTrained indicates a query was made before any snapshot was stored.
var ErrNotTrained = errors.New("bot has not been trained")

// Reply is the answer to one query.
type Reply struct {
	Query string
	// Text is the rendered answer, or the fallback message when nothing matched.
	Text    string
	Matched bool
	Score   float64
	// Result is the winning entry, nil when nothing matched.
	Result *search.Result
}

// Bot ties the snapshot store, matcher and renderer together.
// It is safe for concurrent use; Train swaps the snapshot atomically with
// respect to Ask.
type Bot struct {
	cfg     *config.Config
	backend *badger.Backend
	repo    storage.SnapshotRepository
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu      sync.RWMutex
	matcher *search.Matcher
}

// Option configures a Bot.
type Option func(*Bot) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// WithMetrics records query and training metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bot) error {
		b.metrics = m
		return nil
	}
}

// Open opens the snapshot store described by cfg and loads the stored
// snapshot, if any. A store with no snapshot opens untrained.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Bot, error) {
	if cfg == nil {
		var err error
		if cfg, err = config.NewConfig(); err != nil {
			return nil, err
		}
	}
	b := &Bot{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	backend, err := badger.OpenBackendWithRetry(ctx, cfg.Storage.Path, cfg.Storage.InMemory, b.logger,
		cfg.Storage.OpenRetries, cfg.Storage.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	repo, err := badger.NewSnapshotRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	b.backend = backend
	b.repo = repo

	snapshot, err := repo.LoadSnapshot(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b.logger.Info("no trained snapshot in store", "path", cfg.Storage.Path)
	case err != nil:
		b.Close()
		return nil, err
	default:
		if err := b.install(snapshot); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

// Close closes the snapshot store.
func (b *Bot) Close() error {
	if err := b.repo.Close(); err != nil {
		b.logger.Error("error closing snapshot repository", "err", err)
		return err
	}
	if err := b.backend.Close(); err != nil {
		b.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Config returns the configuration the bot was opened with.
func (b *Bot) Config() *config.Config {
	return b.cfg
}

// Trained reports whether a snapshot is loaded.
func (b *Bot) Trained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.matcher != nil
}

// Snapshot returns the loaded snapshot, or nil when untrained.
func (b *Bot) Snapshot() *core.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.matcher == nil {
		return nil
	}
	return b.matcher.Snapshot()
}

// Train builds a snapshot from corpus and overrides, stores it and starts
// answering from it. On error the previous snapshot stays in place.
func (b *Bot) Train(ctx context.Context, corpus *training.Corpus, overrides training.ScoreTable) (*core.Snapshot, error) {
	trainer, err := training.NewTrainer(
		training.WithScale(b.cfg.Training.Scale),
		training.WithOverrides(overrides),
		training.WithLogger(b.logger),
	)
	if err != nil {
		return nil, err
	}

	snapshot, err := trainer.Train(ctx, corpus)
	if err != nil {
		return nil, err
	}
	if err := b.repo.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("storing snapshot: %w", err)
	}
	if err := b.install(snapshot); err != nil {
		return nil, err
	}
	if b.metrics != nil {
		b.metrics.TrainingsTotal.Inc()
	}
	return snapshot, nil
}

// TrainFromConfig trains from the corpus and override files named in the
// configuration.
func (b *Bot) TrainFromConfig(ctx context.Context) (*core.Snapshot, error) {
	if b.cfg.Training.CorpusPath == "" {
		return nil, fmt.Errorf("%w: no corpus path configured", core.ErrConfiguration)
	}
	corpus, err := training.LoadCorpus(b.cfg.Training.CorpusPath)
	if err != nil {
		return nil, err
	}
	var overrides training.ScoreTable
	if b.cfg.Training.OverridesPath != "" {
		if overrides, err = training.LoadOverrides(b.cfg.Training.OverridesPath); err != nil {
			return nil, err
		}
	}
	return b.Train(ctx, corpus, overrides)
}

// Ask answers query from the loaded snapshot.
// A query that matches nothing is not an error: the reply carries the
// fallback message and Matched is false.
func (b *Bot) Ask(ctx context.Context, query string) (*Reply, error) {
	return b.AskWithMonitor(ctx, query, nil)
}

// AskWithMonitor is Ask with a monitor receiving every candidate's score.
func (b *Bot) AskWithMonitor(ctx context.Context, query string, monitor search.ScoreMonitor) (*Reply, error) {
	b.mu.RLock()
	matcher := b.matcher
	b.mu.RUnlock()
	if matcher == nil {
		return nil, ErrNotTrained
	}

	start := time.Now()
	result, err := matcher.MatchWithMonitor(ctx, query, monitor)
	elapsed := time.Since(start)
	if err != nil {
		b.observe(metrics.OutcomeError, 0, elapsed)
		return nil, err
	}

	reply := &Reply{
		Query:  query,
		Result: result,
	}
	if result == nil {
		reply.Text = b.cfg.Matcher.FallbackMessage
		b.observe(metrics.OutcomeNoMatch, 0, elapsed)
		return reply, nil
	}
	reply.Matched = true
	reply.Score = result.Score
	reply.Text = render.Answer(result.Answer, matcher.Snapshot().Vocabulary)
	b.observe(metrics.OutcomeMatch, result.Score, elapsed)
	return reply, nil
}

func (b *Bot) install(snapshot *core.Snapshot) error {
	matcher, err := search.NewMatcher(snapshot,
		search.WithTimeBudget(b.cfg.Matcher.TimeBudget),
		search.WithLogger(b.logger),
	)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.matcher = matcher
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.SetSnapshot(snapshot.Vocabulary.Len(), snapshot.Knowledge.Len())
	}
	b.logger.Debug("snapshot installed",
		"entries", snapshot.Knowledge.Len(),
		"trainedAt", snapshot.Meta.TrainedAt)
	return nil
}

func (b *Bot) observe(outcome string, score float64, elapsed time.Duration) {
	if b.metrics != nil {
		b.metrics.ObserveQuery(outcome, score, elapsed)
	}
}
