package search

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/chatter/core"
	"github.com/poiesic/chatter/text"
)

// checkInterval is how many candidates are scored between deadline checks.
const checkInterval = 256

// IDSet is a set of word IDs.
type IDSet map[core.WordID]struct{}

// Contains reports whether id is in the set.
func (s IDSet) Contains(id core.WordID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []core.WordID {
	ids := make([]core.WordID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Result is the best-matching knowledge base entry.
type Result struct {
	// Index is the entry's position in knowledge base order.
	Index    int
	Question []core.WordID
	Answer   []core.WordID
	Score    float64
}

// Matcher scores user input against a trained snapshot.
// It never mutates the snapshot and is safe for concurrent use.
type Matcher struct {
	snapshot   *core.Snapshot
	timeBudget time.Duration
	logger     *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// WithTimeBudget bounds the time spent scoring a single query.
// Zero (the default) means no limit.
func WithTimeBudget(budget time.Duration) Option {
	return func(m *Matcher) error {
		if budget < 0 {
			budget = 0
		}
		m.timeBudget = budget
		return nil
	}
}

// NewMatcher creates a matcher over snapshot.
func NewMatcher(snapshot *core.Snapshot, opts ...Option) (*Matcher, error) {
	if snapshot == nil || snapshot.Vocabulary == nil || snapshot.Weights == nil || snapshot.Knowledge == nil {
		return nil, ErrSnapshotRequired
	}

	m := &Matcher{
		snapshot: snapshot,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Snapshot returns the snapshot the matcher reads from.
func (m *Matcher) Snapshot() *core.Snapshot {
	return m.snapshot
}

// Expand converts query text into the expanded query ID set: the IDs of all
// known query tokens plus the synonyms each of those tokens lists.
func (m *Matcher) Expand(query string) IDSet {
	vocab := m.snapshot.Vocabulary
	ids := make(IDSet)
	for _, token := range text.Query(query) {
		id, ok := vocab.Lookup(token)
		if !ok {
			continue
		}
		ids[id] = struct{}{}
		for _, syn := range m.snapshot.Weights.Get(id).Synonyms {
			ids[syn] = struct{}{}
		}
	}
	return ids
}

// Score computes the weighted overlap of question with expanded:
// matched weight / total weight, or 0 for a question with no weight.
func (m *Matcher) Score(question []core.WordID, expanded IDSet) float64 {
	var total, overlap uint64
	for _, id := range question {
		w := uint64(m.snapshot.Weights.Weight(id))
		total += w
		if expanded.Contains(id) {
			overlap += w
		}
	}
	if total == 0 {
		return 0
	}
	return float64(overlap) / float64(total)
}

// Match returns the best-matching entry for query, or nil if no stored
// question scores above zero.
func (m *Matcher) Match(ctx context.Context, query string) (*Result, error) {
	return m.MatchWithMonitor(ctx, query, nil)
}

// MatchWithMonitor is Match with a monitor receiving every candidate's score.
func (m *Matcher) MatchWithMonitor(ctx context.Context, query string, monitor ScoreMonitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	scoreCtx := ctx
	if m.timeBudget > 0 {
		var cancel context.CancelFunc
		scoreCtx, cancel = context.WithTimeout(ctx, m.timeBudget)
		defer cancel()
	}

	expanded := m.Expand(query)
	monitor.AfterExpansion(expanded.Sorted())

	var (
		best      *Result
		bestScore float64
	)
	for i, entry := range m.snapshot.Knowledge.Entries() {
		if i%checkInterval == 0 {
			if err := scoreCtx.Err(); err != nil {
				return nil, m.deadlineError(ctx, err)
			}
		}

		score := m.Score(entry.Question, expanded)
		monitor.Candidate(i, entry.Question, score)

		// strict comparison keeps the earliest of equal scores and rejects 0
		if score > bestScore {
			bestScore = score
			best = &Result{
				Index:    i,
				Question: entry.Question,
				Answer:   entry.Answer,
				Score:    score,
			}
		}
	}

	if best == nil {
		m.logger.Debug("no match", "query", query, "expanded", len(expanded))
	} else {
		m.logger.Debug("matched", "query", query, "index", best.Index, "score", best.Score)
	}
	monitor.Finish(best)
	return best, nil
}

func (m *Matcher) deadlineError(parent context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeBudgetExceeded
	}
	return err
}
