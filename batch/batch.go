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


// Package batch answers many queries concurrently against one snapshot.
package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/chatter"
	"github.com/poiesic/chatter/config"
)

// ErrAskerRequired indicates a nil Asker was passed to NewAnswerer.
var ErrAskerRequired = errors.New("asker is required")

// Asker answers a single query. *chatter.Bot implements it.
type Asker interface {
	Ask(ctx context.Context, query string) (*chatter.Reply, error)
}

// Result is the outcome of one query.
type Result struct {
	Query string
	Reply *chatter.Reply
	Err   error
}

// Text returns the reply text, or fallback when the query failed.
func (r Result) Text(fallback string) string {
	if r.Err != nil || r.Reply == nil {
		return fallback
	}
	return r.Reply.Text
}

// Answerer fans queries out over a worker pool.
// Matching reads an immutable snapshot, so workers share it without locking.
type Answerer struct {
	asker          Asker
	pool           *ants.Pool
	progress       io.Writer
	reportInterval int
	fallback       string
	logger         *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer) error

// WithPoolSize sets the number of workers.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(a *Answerer) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if a.pool != nil {
			a.pool.Release()
		}
		a.pool = pool
		return nil
	}
}

// WithProgress reports progress to w every interval queries.
func WithProgress(w io.Writer, interval int) Option {
	return func(a *Answerer) error {
		a.progress = w
		a.reportInterval = interval
		return nil
	}
}

// WithFallbackMessage sets the text written for failed queries.
func WithFallbackMessage(msg string) Option {
	return func(a *Answerer) error {
		a.fallback = msg
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnswerer creates an answerer. Call Release when done.
func NewAnswerer(asker Asker, opts ...Option) (*Answerer, error) {
	if asker == nil {
		return nil, ErrAskerRequired
	}

	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}
	a := &Answerer{
		asker:          asker,
		pool:           pool,
		reportInterval: config.DefaultReportInterval,
		fallback:       config.DefaultFallbackMessage,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			a.Release()
			return nil, err
		}
	}
	return a, nil
}

// Release stops the worker pool.
func (a *Answerer) Release() {
	a.pool.Release()
}

// Answer answers every query and returns results in input order.
// Per-query failures are recorded in the result; Answer itself fails only
// when ctx is cancelled or the pool rejects work.
func (a *Answerer) Answer(ctx context.Context, queries []string) ([]Result, error) {
	results := make([]Result, len(queries))

	var tracker *ProgressTracker
	if a.progress != nil {
		tracker = NewProgressTracker(a.progress, len(queries), a.reportInterval)
		tracker.Start()
	}

	var wg sync.WaitGroup
	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		err := a.pool.Submit(func() {
			defer wg.Done()
			reply, err := a.asker.Ask(ctx, query)
			results[i] = Result{Query: query, Reply: reply, Err: err}
			if err != nil {
				a.logger.Warn("query failed", "index", i, "query", query, "err", err)
			}
			if tracker != nil {
				tracker.Increment(1)
			}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submitting query %d: %w", i, err)
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Process reads one query per line from r and writes one answer per line
// to w in the same order. Blank lines are skipped.
func (a *Answerer) Process(ctx context.Context, r io.Reader, w io.Writer) error {
	var queries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			queries = append(queries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading queries: %w", err)
	}

	results, err := a.Answer(ctx, queries)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for _, res := range results {
		if _, err := fmt.Fprintln(bw, res.Text(a.fallback)); err != nil {
			return err
		}
	}
	return bw.Flush()
}
