package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Independent(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}

func TestObserveQuery(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveQuery(OutcomeMatch, 0.75, time.Millisecond)
	m.ObserveQuery(OutcomeMatch, 1, time.Millisecond)
	m.ObserveQuery(OutcomeNoMatch, 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(OutcomeMatch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(OutcomeNoMatch)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues(OutcomeError)))
}

func TestSetSnapshot(t *testing.T) {
	m := New(nil)
	m.SetSnapshot(14, 2)
	assert.Equal(t, 14.0, testutil.ToFloat64(m.SnapshotVocabulary))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SnapshotEntries))
}

func TestHandler(t *testing.T) {
	m := New(nil)
	m.TrainingsTotal.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "chatter_trainings_total 1")
}
