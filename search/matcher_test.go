package search

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/chatter/core"
	"github.com/poiesic/chatter/training"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func train(t *testing.T, overrides training.ScoreTable, pairs ...training.Pair) *core.Snapshot {
	t.Helper()
	trainer, err := training.NewTrainer(training.WithOverrides(overrides))
	require.NoError(t, err)
	snapshot, err := trainer.Train(context.Background(), training.NewCorpus(pairs...))
	require.NoError(t, err)
	return snapshot
}

func newMatcher(t *testing.T, snapshot *core.Snapshot, opts ...Option) *Matcher {
	t.Helper()
	m, err := NewMatcher(snapshot, opts...)
	require.NoError(t, err)
	return m
}

func words(snapshot *core.Snapshot, ids []core.WordID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = snapshot.Vocabulary.Word(id)
	}
	return out
}

func TestNewMatcher(t *testing.T) {
	snapshot := train(t, nil, training.Pair{Question: "hello", Answer: "Hi!"})

	t.Run("valid configuration", func(t *testing.T) {
		m, err := NewMatcher(snapshot)
		require.NoError(t, err)
		assert.Same(t, snapshot, m.Snapshot())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		m, err := NewMatcher(snapshot, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, m.logger)
	})

	t.Run("with custom logger", func(t *testing.T) {
		_, err := NewMatcher(snapshot, WithLogger(slog.Default()))
		require.NoError(t, err)
	})

	t.Run("nil snapshot", func(t *testing.T) {
		_, err := NewMatcher(nil)
		assert.Equal(t, ErrSnapshotRequired, err)
	})

	t.Run("incomplete snapshot", func(t *testing.T) {
		_, err := NewMatcher(&core.Snapshot{Vocabulary: snapshot.Vocabulary})
		assert.Equal(t, ErrSnapshotRequired, err)
	})
}

func TestMatch_Greetings(t *testing.T) {
	snapshot := train(t, nil,
		training.Pair{Question: "hello", Answer: "Hi there!"},
		training.Pair{Question: "how are you", Answer: "I am fine."},
	)
	m := newMatcher(t, snapshot)
	ctx := context.Background()

	t.Run("exact question", func(t *testing.T) {
		result, err := m.Match(ctx, "hello")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 0, result.Index)
		assert.Equal(t, []string{"hi", "there", "!"}, words(snapshot, result.Answer))
		assert.Equal(t, 1.0, result.Score)
	})

	t.Run("mixed case", func(t *testing.T) {
		lower, err := m.Match(ctx, "hello")
		require.NoError(t, err)
		upper, err := m.Match(ctx, "HELLO")
		require.NoError(t, err)
		assert.Equal(t, lower, upper)
	})

	t.Run("partial overlap", func(t *testing.T) {
		result, err := m.Match(ctx, "how is it going")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 1, result.Index)
		assert.InDelta(t, 1.0/3.0, result.Score, 1e-12)
	})

	t.Run("unknown words do not match", func(t *testing.T) {
		result, err := m.Match(ctx, "banana")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("empty query", func(t *testing.T) {
		result, err := m.Match(ctx, "   ")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("punctuation stays attached to query words", func(t *testing.T) {
		result, err := m.Match(ctx, "hello?")
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestMatch_Deterministic(t *testing.T) {
	snapshot := train(t, nil,
		training.Pair{Question: "what is your name", Answer: "Chatter."},
		training.Pair{Question: "what time is it", Answer: "Late."},
		training.Pair{Question: "where are you", Answer: "Here."},
	)
	m := newMatcher(t, snapshot)

	for _, q := range []string{"what is it", "name", "where is the time", "nothing known"} {
		first, err := m.Match(context.Background(), q)
		require.NoError(t, err)
		second, err := m.Match(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, first, second, "query %q", q)
	}
}

func TestMatch_FirstSeenWinsTies(t *testing.T) {
	snapshot := train(t, nil,
		training.Pair{Question: "red apple", Answer: "First."},
		training.Pair{Question: "green apple", Answer: "Second."},
	)
	m := newMatcher(t, snapshot)

	// "red" and "green" weigh the same, so "apple" scores both questions equally
	result, err := m.Match(context.Background(), "apple")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Index)
	assert.InDelta(t, 1.0/3.0, result.Score, 1e-12)
}

func TestMatch_RareWordsWeighMore(t *testing.T) {
	snapshot := train(t, nil,
		training.Pair{Question: "tell me about cats", Answer: "Meow."},
		training.Pair{Question: "tell me about dogs", Answer: "Woof."},
		training.Pair{Question: "tell me a joke", Answer: "No."},
	)
	m := newMatcher(t, snapshot)

	// "cats" alone outweighs the three common words of the other questions
	result, err := m.Match(context.Background(), "tell me cats")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, []string{"meow", "."}, words(snapshot, result.Answer))
}

func TestMatch_RepeatedWordsCountPerOccurrence(t *testing.T) {
	snapshot := train(t, nil,
		training.Pair{Question: "go go go now", Answer: "Running."},
	)
	m := newMatcher(t, snapshot)
	vocab := snapshot.Vocabulary
	goID, _ := vocab.Lookup("go")
	nowID, _ := vocab.Lookup("now")

	wGo := float64(snapshot.Weights.Weight(goID))
	wNow := float64(snapshot.Weights.Weight(nowID))

	result, err := m.Match(context.Background(), "go")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.InDelta(t, 3*wGo/(3*wGo+wNow), result.Score, 1e-12)
}

func TestMatch_SynonymExpansionIsOneDirectional(t *testing.T) {
	overrides := training.ScoreTable{
		"auto": {Synonyms: []string{"car"}},
	}
	snapshot := train(t, overrides,
		training.Pair{Question: "car", Answer: "Vroom."},
		training.Pair{Question: "auto", Answer: "Beep."},
	)
	m := newMatcher(t, snapshot)
	ctx := context.Background()

	t.Run("listing word pulls in its synonym", func(t *testing.T) {
		expanded := m.Expand("auto")
		car, _ := snapshot.Vocabulary.Lookup("car")
		auto, _ := snapshot.Vocabulary.Lookup("auto")
		assert.ElementsMatch(t, []core.WordID{car, auto}, expanded.Sorted())

		result, err := m.Match(ctx, "auto")
		require.NoError(t, err)
		require.NotNil(t, result)
		// both questions score 1, the earlier one wins
		assert.Equal(t, 0, result.Index)
	})

	t.Run("listed word does not pull in the listing word", func(t *testing.T) {
		expanded := m.Expand("car")
		assert.Len(t, expanded, 1)

		var scores []float64
		monitor := &recordingMonitor{onCandidate: func(i int, score float64) { scores = append(scores, score) }}
		result, err := m.MatchWithMonitor(ctx, "car", monitor)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 0, result.Index)
		assert.Equal(t, []float64{1, 0}, scores, "question \"auto\" must not match query \"car\"")
	})

	t.Run("non-reciprocal synonym alone fails to match", func(t *testing.T) {
		only := train(t, overrides, training.Pair{Question: "auto", Answer: "Beep."})
		result, err := newMatcher(t, only).Match(ctx, "car")
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestScore(t *testing.T) {
	vocab, err := core.NewVocabulary([]string{"!", ".", "?", "a", "b", "c"})
	require.NoError(t, err)
	snapshot := &core.Snapshot{
		Vocabulary: vocab,
		Weights: core.NewWeightTable(map[core.WordID]core.WeightEntry{
			3: {Weight: 10},
			4: {Weight: 30},
		}),
		Knowledge: core.NewKnowledgeBase(),
	}
	m := newMatcher(t, snapshot)

	tests := []struct {
		name     string
		question []core.WordID
		expanded IDSet
		want     float64
	}{
		{"full overlap", []core.WordID{3, 4}, IDSet{3: {}, 4: {}}, 1},
		{"weighted overlap", []core.WordID{3, 4}, IDSet{4: {}}, 0.75},
		{"default weight for unweighted word", []core.WordID{3, 5}, IDSet{5: {}}, 1.0 / 11.0},
		{"no overlap", []core.WordID{3}, IDSet{4: {}}, 0},
		{"empty question", nil, IDSet{3: {}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.Score(tt.question, tt.expanded), 1e-12)
		})
	}
}

func TestMatch_EmptyKnowledgeBase(t *testing.T) {
	vocab, err := core.NewVocabulary([]string{"!", ".", "?"})
	require.NoError(t, err)
	m := newMatcher(t, &core.Snapshot{
		Vocabulary: vocab,
		Weights:    core.NewWeightTable(nil),
		Knowledge:  core.NewKnowledgeBase(),
	})

	result, err := m.Match(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMatchWithMonitor(t *testing.T) {
	snapshot := train(t, nil,
		training.Pair{Question: "hello", Answer: "Hi there!"},
		training.Pair{Question: "how are you", Answer: "I am fine."},
	)
	m := newMatcher(t, snapshot)

	monitor := &recordingMonitor{}
	result, err := m.MatchWithMonitor(context.Background(), "how are things", monitor)
	require.NoError(t, err)

	assert.Equal(t, "how are things", monitor.query)
	assert.Len(t, monitor.expanded, 2)
	assert.Equal(t, 2, monitor.candidates)
	assert.Same(t, result, monitor.result)
}

func TestMatch_ContextCanceled(t *testing.T) {
	snapshot := train(t, nil, training.Pair{Question: "hello", Answer: "Hi!"})
	m := newMatcher(t, snapshot)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Match(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatch_TimeBudget(t *testing.T) {
	pairs := make([]training.Pair, checkInterval+1)
	for i := range pairs {
		pairs[i] = training.Pair{Question: fmt.Sprintf("question number %d", i), Answer: "Yes."}
	}
	snapshot := train(t, nil, pairs...)
	m := newMatcher(t, snapshot, WithTimeBudget(time.Millisecond))

	slow := &recordingMonitor{onCandidate: func(i int, _ float64) {
		if i == 0 {
			time.Sleep(20 * time.Millisecond)
		}
	}}
	_, err := m.MatchWithMonitor(context.Background(), "question", slow)
	assert.ErrorIs(t, err, ErrTimeBudgetExceeded)

	unbounded := newMatcher(t, snapshot)
	result, err := unbounded.Match(context.Background(), "question")
	require.NoError(t, err)
	assert.NotNil(t, result)
}

type recordingMonitor struct {
	query       string
	expanded    []core.WordID
	candidates  int
	result      *Result
	onCandidate func(index int, score float64)
}

func (r *recordingMonitor) Start(query string)               { r.query = query }
func (r *recordingMonitor) AfterExpansion(ids []core.WordID) { r.expanded = ids }
func (r *recordingMonitor) Candidate(index int, _ []core.WordID, score float64) {
	r.candidates++
	if r.onCandidate != nil {
		r.onCandidate(index, score)
	}
}
func (r *recordingMonitor) Finish(result *Result) { r.result = result }
