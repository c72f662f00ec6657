// internal/workers/quote/generate-quote/handler_test.go
package generatequote

import (
	"context"
	"testing"
	"time"

	"renewal-workers/internal/common/logger"
	"renewal-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
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
	h.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return h, mock, mr
}

func testAsset() models.Asset {
	return models.Asset{
		AssetID:         "A-10001",
		Customer:        "ABC Corp",
		ContractValue:   30000,
		LastDiscountPct: 5,
	}
}

func TestExecute_FirstQuoteWithAddOn(t *testing.T) {
	h, mock, mr := newTestHandler(t)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("A-10001").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(0))
	mock.ExpectExec("INSERT INTO quotes").
		WillReturnResult(sqlmock.NewResult(1, 1))

	output, err := h.Execute(context.Background(), &Input{
		Asset:     testAsset(),
		Priority:  models.PriorityHigh,
		Expansion: models.ExpansionUpsell,
	})
	require.NoError(t, err)

	quote := output.Quote
	assert.Equal(t, "A-10001-v1", quote.QuoteID)
	assert.Equal(t, 1, quote.Version)
	assert.Empty(t, quote.ParentQuoteID)
	require.Len(t, quote.Lines, 2)
	assert.Equal(t, "SUP-PREM-01", quote.Lines[0].SKU)
	assert.Equal(t, "ANL-ADV-02", quote.Lines[1].SKU)
	assert.Equal(t, 35000.0, quote.Subtotal)
	assert.Equal(t, 5.0, quote.DiscountPct)
	assert.Equal(t, 1750.0, quote.DiscountAmt)
	assert.Equal(t, 33250.0, quote.Total)
	assert.Equal(t, models.DiscountSourceRules, quote.DiscountSource)
	assert.Equal(t, "2025-06-01", quote.TermStart)
	assert.Equal(t, "2026-06-01", quote.TermEnd)
	assert.Equal(t, models.QuoteStatusPending, quote.Status)

	assert.True(t, mr.Exists(LatestQuoteCacheKeyPrefix+"A-10001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RenewalOnlyHasNoAddOn(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(0))
	mock.ExpectExec("INSERT INTO quotes").
		WillReturnResult(sqlmock.NewResult(1, 1))

	output, err := h.Execute(context.Background(), &Input{
		Asset:     testAsset(),
		Priority:  models.PriorityLow,
		Expansion: models.ExpansionRenewalOnly,
	})
	require.NoError(t, err)

	require.Len(t, output.Quote.Lines, 1)
	assert.Equal(t, 30000.0, output.Quote.Subtotal)
}

func TestExecute_RevisedQuoteLinksParent(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(1))
	mock.ExpectExec("INSERT INTO quotes").
		WillReturnResult(sqlmock.NewResult(1, 1))

	revised := 10.0
	output, err := h.Execute(context.Background(), &Input{
		Asset:              testAsset(),
		Priority:           models.PriorityHigh,
		Expansion:          models.ExpansionRenewalOnly,
		RevisedDiscountPct: &revised,
		DiscountReason:     "price objection concession",
	})
	require.NoError(t, err)

	quote := output.Quote
	assert.Equal(t, "A-10001-v2", quote.QuoteID)
	assert.Equal(t, "A-10001-v1", quote.ParentQuoteID)
	assert.Equal(t, 10.0, quote.DiscountPct)
	assert.Equal(t, models.DiscountSourceNegotiation, quote.DiscountSource)
	assert.Equal(t, 27000.0, quote.Total)
}

func TestExecute_InsertFailure(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(0))
	mock.ExpectExec("INSERT INTO quotes").
		WillReturnError(assert.AnError)

	_, err := h.Execute(context.Background(), &Input{
		Asset:     testAsset(),
		Expansion: models.ExpansionRenewalOnly,
	})
	require.Error(t, err)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1750.13, round2(1750.125))
	assert.Equal(t, 0.0, round2(0))
}
