// internal/workers/quote/record-quote-decision/handler_test.go
package recordquotedecision

import (
	"context"
	"testing"
	"time"

	"renewal-workers/internal/common/errors"
	"renewal-workers/internal/common/logger"
	"renewal-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *miniredis.Miniredis) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	h := NewHandler(LoadConfig(), db, redisClient, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) }
	return h, mock, mr
}

func TestExecute_AcceptQuote(t *testing.T) {
	h, mock, mr := newTestHandler(t)
	mr.Set("renewal:quote:latest:A-10001", "{}")

	mock.ExpectQuery("SELECT asset_id, status FROM quotes").
		WithArgs("A-10001-v1").
		WillReturnRows(sqlmock.NewRows([]string{"asset_id", "status"}).
			AddRow("A-10001", models.QuoteStatusPending))
	mock.ExpectExec("UPDATE quotes").
		WithArgs(models.QuoteStatusAccepted, "", "2025-06-02T09:00:00Z", "A-10001-v1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := h.Execute(context.Background(), &Input{
		QuoteID:  "A-10001-v1",
		Decision: models.QuoteStatusAccepted,
	})
	require.NoError(t, err)

	assert.Equal(t, models.QuoteStatusAccepted, output.Status)
	assert.Equal(t, "A-10001", output.AssetID)
	assert.False(t, output.NegotiationRequired)
	assert.False(t, mr.Exists("renewal:quote:latest:A-10001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RejectTriggersNegotiation(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery("SELECT asset_id, status FROM quotes").
		WithArgs("A-10002-v1").
		WillReturnRows(sqlmock.NewRows([]string{"asset_id", "status"}).
			AddRow("A-10002", models.QuoteStatusPending))
	mock.ExpectExec("UPDATE quotes").
		WithArgs(models.QuoteStatusRejected, "too expensive", sqlmock.AnyArg(), "A-10002-v1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := h.Execute(context.Background(), &Input{
		QuoteID:  "A-10002-v1",
		Decision: models.QuoteStatusRejected,
		Reason:   "too expensive",
	})
	require.NoError(t, err)

	assert.True(t, output.NegotiationRequired)
}

func TestExecute_AlreadyDecided(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery("SELECT asset_id, status FROM quotes").
		WithArgs("A-10001-v1").
		WillReturnRows(sqlmock.NewRows([]string{"asset_id", "status"}).
			AddRow("A-10001", models.QuoteStatusAccepted))

	_, err := h.Execute(context.Background(), &Input{
		QuoteID:  "A-10001-v1",
		Decision: models.QuoteStatusRejected,
	})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeQuoteAlreadyDecided, stdErr.Code)
}

func TestExecute_QuoteNotFound(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery("SELECT asset_id, status FROM quotes").
		WithArgs("A-99999-v1").
		WillReturnRows(sqlmock.NewRows([]string{"asset_id", "status"}))

	_, err := h.Execute(context.Background(), &Input{
		QuoteID:  "A-99999-v1",
		Decision: models.QuoteStatusAccepted,
	})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeQuoteNotFound, stdErr.Code)
}

func TestExecute_InvalidatesLatestQuoteCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	redisMock.ExpectDel("renewal:quote:latest:A-10003").SetVal(1)

	mock.ExpectQuery("SELECT asset_id, status FROM quotes").
		WithArgs("A-10003-v2").
		WillReturnRows(sqlmock.NewRows([]string{"asset_id", "status"}).
			AddRow("A-10003", models.QuoteStatusPending))
	mock.ExpectExec("UPDATE quotes").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewHandler(LoadConfig(), db, redisClient, logger.NewTestLogger(t))

	_, err = h.Execute(context.Background(), &Input{
		QuoteID:  "A-10003-v2",
		Decision: models.QuoteStatusAccepted,
	})
	require.NoError(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_InvalidDecision(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{
		QuoteID:  "A-10001-v1",
		Decision: "MAYBE",
	})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidation, stdErr.Code)
}
