// internal/workers/intake/load-renewal-portfolio/handler_test.go
package loadrenewalportfolio

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"renewal-workers/internal/common/errors"
	"renewal-workers/internal/common/logger"
	"renewal-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *miniredis.Miniredis) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	h := NewHandler(LoadConfig(), db, redisClient, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h, mock, mr
}

func assetColumns() []string {
	return []string{
		"asset_id", "customer", "customer_type", "product", "contract_value",
		"contract_start", "contract_end", "usage_pct", "usage_decline_pct",
		"asset_age_years", "last_discount_pct", "licensing",
	}
}

func TestExecute_LoadPortfolio(t *testing.T) {
	h, mock, mr := newTestHandler(t)

	rows := sqlmock.NewRows(assetColumns()).
		AddRow("A-10001", "ABC Corp", "Enterprise", "Edge Gateway", 30000.0,
			time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			85.0, 5.0, 2.0, 5.0, "Per Device").
		AddRow("A-10002", "Delta Inc", "SMB", "Smart Sensor Kit", 12000.0,
			time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			45.0, 42.0, 4.0, 10.0, "Subscription")

	mock.ExpectQuery("SELECT asset_id, customer").WillReturnRows(rows)

	output, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	assert.Equal(t, 2, output.PortfolioSize)
	assert.False(t, output.CacheHit)
	assert.Equal(t, "A-10001", output.Assets[0].AssetID)
	assert.Equal(t, 14, output.Assets[0].DaysToExpiry)
	assert.Equal(t, 92, output.Assets[1].DaysToExpiry)

	// Portfolio lands in the cache
	assert.True(t, mr.Exists(PortfolioCacheKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_PortfolioCacheHit(t *testing.T) {
	h, mock, mr := newTestHandler(t)

	cached := []models.Asset{{
		AssetID:       "A-10003",
		Customer:      "Zento Pvt Ltd",
		ContractValue: 8000,
		ContractEnd:   "2025-06-08",
	}}
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	mr.Set(PortfolioCacheKey, string(data))

	output, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	assert.True(t, output.CacheHit)
	assert.Equal(t, 1, output.PortfolioSize)
	// Expiry recomputed relative to now even on a cache hit
	assert.Equal(t, 7, output.Assets[0].DaysToExpiry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_LoadSingleAsset(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	rows := sqlmock.NewRows(assetColumns()).
		AddRow("A-10001", "ABC Corp", "Enterprise", "Edge Gateway", 30000.0,
			time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			85.0, 5.0, 2.0, 5.0, "Per Device")

	mock.ExpectQuery("SELECT asset_id, customer").
		WithArgs("A-10001").
		WillReturnRows(rows)

	output, err := h.Execute(context.Background(), &Input{AssetID: "A-10001"})
	require.NoError(t, err)

	require.NotNil(t, output.Asset)
	assert.Equal(t, "ABC Corp", output.Asset.Customer)
	assert.Equal(t, 14, output.Asset.DaysToExpiry)
	assert.Equal(t, 1, output.PortfolioSize)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_AssetNotFound(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery("SELECT asset_id, customer").
		WithArgs("A-99999").
		WillReturnRows(sqlmock.NewRows(assetColumns()))

	_, err := h.Execute(context.Background(), &Input{AssetID: "A-99999"})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAssetNotFound, stdErr.Code)
}

func TestDaysToExpiry_Expired(t *testing.T) {
	h, _, _ := newTestHandler(t)

	assert.Equal(t, -1, h.daysToExpiry("2025-05-31"))
	assert.Equal(t, 0, h.daysToExpiry("2025-06-01"))
	assert.Equal(t, 0, h.daysToExpiry("not-a-date"))
}
