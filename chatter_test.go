package chatter

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/poiesic/chatter/config"
	"github.com/poiesic/chatter/core"
	"github.com/poiesic/chatter/metrics"
	"github.com/poiesic/chatter/training"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func greetings() *training.Corpus {
	return training.NewCorpus(
		training.Pair{Question: "hello", Answer: "Hi there!"},
		training.Pair{Question: "how are you", Answer: "I am fine."},
	)
}

func openMemoryBot(t *testing.T, opts ...Option) *Bot {
	t.Helper()
	cfg, err := config.NewConfig(config.WithInMemoryStorage())
	require.NoError(t, err)
	bot, err := Open(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { bot.Close() })
	return bot
}

func TestOpen_Untrained(t *testing.T) {
	bot := openMemoryBot(t)

	assert.False(t, bot.Trained())
	assert.Nil(t, bot.Snapshot())

	_, err := bot.Ask(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestOpen_InvalidPath(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
	require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

	cfg, err := config.NewConfig(config.WithStoragePath(tmpFile))
	require.NoError(t, err)
	cfg.Storage.OpenRetries = 1

	bot, err := Open(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, bot)
}

func TestBot_TrainAndAsk(t *testing.T) {
	bot := openMemoryBot(t)
	ctx := context.Background()

	snapshot, err := bot.Train(ctx, greetings(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.Knowledge.Len())
	assert.True(t, bot.Trained())

	tests := []struct {
		query   string
		text    string
		matched bool
	}{
		{"hello", "Hi there!", true},
		{"HELLO", "Hi there!", true},
		{"how are you", "I am fine.", true},
		{"are", "I am fine.", true},
		{"goodbye", config.DefaultFallbackMessage, false},
		{"", config.DefaultFallbackMessage, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			reply, err := bot.Ask(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.text, reply.Text)
			assert.Equal(t, tt.matched, reply.Matched)
			if tt.matched {
				require.NotNil(t, reply.Result)
				assert.Greater(t, reply.Score, 0.0)
			} else {
				assert.Nil(t, reply.Result)
			}
		})
	}
}

func TestBot_TrainFailureKeepsSnapshot(t *testing.T) {
	bot := openMemoryBot(t)
	ctx := context.Background()

	_, err := bot.Train(ctx, greetings(), nil)
	require.NoError(t, err)

	_, err = bot.Train(ctx, training.NewCorpus(training.Pair{Question: "?!", Answer: "x"}), nil)
	require.ErrorIs(t, err, core.ErrData)

	reply, err := bot.Ask(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply.Text)
}

func TestBot_ReopenLoadsSnapshot(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.NewConfig(config.WithStoragePath(filepath.Join(t.TempDir(), "db")))
	require.NoError(t, err)

	bot, err := Open(ctx, cfg)
	require.NoError(t, err)
	trained, err := bot.Train(ctx, greetings(), training.ScoreTable{"hi": {Synonyms: []string{"hello"}}})
	require.NoError(t, err)

	ask := func(t *testing.T, bot *Bot, query string) string {
		t.Helper()
		reply, err := bot.Ask(ctx, query)
		require.NoError(t, err)
		return reply.Text
	}
	assert.Equal(t, "Hi there!", ask(t, bot, "hello"))
	assert.Equal(t, "Hi there!", ask(t, bot, "hi"))
	require.NoError(t, bot.Close())

	bot, err = Open(ctx, cfg)
	require.NoError(t, err)
	defer bot.Close()

	require.True(t, bot.Trained())
	assert.Equal(t, trained.Meta.Fingerprint, bot.Snapshot().Meta.Fingerprint)
	assert.Equal(t, "Hi there!", ask(t, bot, "hello"))
	assert.Equal(t, "Hi there!", ask(t, bot, "hi"), "synonym survives reopen")
}

func TestBot_SynonymsAreOneWay(t *testing.T) {
	bot := openMemoryBot(t)
	ctx := context.Background()

	_, err := bot.Train(ctx, greetings(), training.ScoreTable{"hello": {Synonyms: []string{"hi"}}})
	require.NoError(t, err)

	reply, err := bot.Ask(ctx, "hi")
	require.NoError(t, err)
	assert.False(t, reply.Matched)
	assert.Equal(t, config.DefaultFallbackMessage, reply.Text)
}

func TestBot_TrainFromConfig(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(corpusPath, []byte(`{"what is your name": "My name is Bot."}`), 0644))

	cfg, err := config.NewConfig(config.WithInMemoryStorage())
	require.NoError(t, err)
	bot, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer bot.Close()

	_, err = bot.TrainFromConfig(context.Background())
	require.ErrorIs(t, err, core.ErrConfiguration)

	cfg.Training.CorpusPath = corpusPath
	_, err = bot.TrainFromConfig(context.Background())
	require.NoError(t, err)

	reply, err := bot.Ask(context.Background(), "your name")
	require.NoError(t, err)
	assert.Equal(t, "My name is bot.", reply.Text)
}

func TestBot_CustomFallback(t *testing.T) {
	cfg, err := config.NewConfig(config.WithInMemoryStorage(), config.WithFallbackMessage("No idea."))
	require.NoError(t, err)
	bot, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer bot.Close()

	_, err = bot.Train(context.Background(), greetings(), nil)
	require.NoError(t, err)

	reply, err := bot.Ask(context.Background(), "weather")
	require.NoError(t, err)
	assert.Equal(t, "No idea.", reply.Text)
}

func TestBot_Metrics(t *testing.T) {
	m := metrics.New(nil)
	bot := openMemoryBot(t, WithMetrics(m))
	ctx := context.Background()

	_, err := bot.Train(ctx, greetings(), nil)
	require.NoError(t, err)
	_, err = bot.Ask(ctx, "hello")
	require.NoError(t, err)
	_, err = bot.Ask(ctx, "weather")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TrainingsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SnapshotEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(metrics.OutcomeMatch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(metrics.OutcomeNoMatch)))
}

func TestBot_ConcurrentAsk(t *testing.T) {
	bot := openMemoryBot(t)
	ctx := context.Background()
	_, err := bot.Train(ctx, greetings(), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reply, err := bot.Ask(ctx, "how are you")
			assert.NoError(t, err)
			assert.Equal(t, "I am fine.", reply.Text)
		}()
	}
	wg.Wait()
}
