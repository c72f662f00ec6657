// internal/workers/renewal/record-renewal-decision/handler_test.go
package recordrenewaldecision

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"renewal-workers/internal/common/errors"
	"renewal-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newESClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{server.URL},
	})
	require.NoError(t, err)
	return client
}

func sampleInput() *Input {
	return &Input{
		AssetID:               "A-10001",
		Product:               "Edge Gateway",
		Priority:              "High",
		Status:                "Act Now",
		Expansion:             "Upsell",
		ExpectedRevenueImpact: 25500,
		ProbabilityToClose:    85,
		ProbabilityBand:       "High",
		Explanation:           "- Contract expires in 14 days",
		ExplanationSource:     "rules_engine",
	}
}

func TestExecute_RecordsAndIndexes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var indexedPath string
	es := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		indexedPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"result":"created"}`)
	})

	mock.ExpectExec("INSERT INTO renewal_decisions").
		WithArgs("A-10001", "Edge Gateway", "High", "Act Now", "Upsell",
			25500.0, 85, "High", "- Contract expires in 14 days", "rules_engine",
			sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	h := NewHandler(LoadConfig(), db, es, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }

	output, err := h.Execute(context.Background(), sampleInput())
	require.NoError(t, err)

	assert.True(t, output.DecisionRecorded)
	assert.True(t, output.Indexed)
	assert.Equal(t, "2025-06-01T10:00:00Z", output.DecidedAt)
	assert.Contains(t, indexedPath, "/renewal-decisions/")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_DatabaseFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	es := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mock.ExpectExec("INSERT INTO renewal_decisions").
		WillReturnError(fmt.Errorf("connection reset"))

	h := NewHandler(LoadConfig(), db, es, logger.NewTestLogger(t))

	_, err = h.Execute(context.Background(), sampleInput())
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeDecisionRecordFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecute_IndexFailureDegrades(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	es := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	mock.ExpectExec("INSERT INTO renewal_decisions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	h := NewHandler(LoadConfig(), db, es, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), sampleInput())
	require.NoError(t, err)

	assert.True(t, output.DecisionRecorded)
	assert.False(t, output.Indexed)
}

func TestExecute_MissingAssetID(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	es := newESClient(t, func(w http.ResponseWriter, r *http.Request) {})

	h := NewHandler(LoadConfig(), db, es, logger.NewTestLogger(t))

	_, err = h.Execute(context.Background(), &Input{})
	require.Error(t, err)
}
