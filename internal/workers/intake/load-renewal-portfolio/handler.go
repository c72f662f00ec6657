// internal/workers/intake/load-renewal-portfolio/handler.go
package loadrenewalportfolio

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"renewal-workers/internal/common/errors"
	"renewal-workers/internal/common/logger"
	"renewal-workers/internal/common/metrics"
	"renewal-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "load-renewal-portfolio"
)

const selectAssets = `
	SELECT asset_id, customer, customer_type, product, contract_value,
	       contract_start, contract_end, usage_pct, usage_decline_pct,
	       asset_age_years, last_discount_pct, licensing
	FROM assets`

type Handler struct {
	config       *Config
	db           *sql.DB
	redis        *redis.Client
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		redis:        redisClient,
		logger:       l,
		errorHandler: errors.NewErrorHandler(l),
		now:          time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.RenewalJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.RenewalJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.handleError(client, job, errors.NewValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.handleError(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.RenewalJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.RenewalJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute is the direct entry point used by tests and the e2e harness.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	loadedAt := h.now().UTC().Format(time.RFC3339)

	if input.AssetID != "" {
		asset, cacheHit, err := h.loadAsset(ctx, input.AssetID)
		if err != nil {
			return nil, err
		}
		return &Output{
			Asset:         asset,
			PortfolioSize: 1,
			LoadedAt:      loadedAt,
			CacheHit:      cacheHit,
		}, nil
	}

	assets, cacheHit, err := h.loadPortfolio(ctx)
	if err != nil {
		return nil, err
	}

	h.logger.Info("portfolio loaded", map[string]interface{}{
		"portfolioSize": len(assets),
		"cacheHit":      cacheHit,
	})

	return &Output{
		Assets:        assets,
		PortfolioSize: len(assets),
		LoadedAt:      loadedAt,
		CacheHit:      cacheHit,
	}, nil
}

func (h *Handler) loadAsset(ctx context.Context, assetID string) (*models.Asset, bool, error) {
	cacheKey := AssetCacheKeyPrefix + assetID
	if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var asset models.Asset
		if err := json.Unmarshal([]byte(cached), &asset); err == nil {
			// Expiry is relative to now, never served stale from cache
			asset.DaysToExpiry = h.daysToExpiry(asset.ContractEnd)
			return &asset, true, nil
		}
	}

	row := h.db.QueryRowContext(ctx, selectAssets+` WHERE asset_id = $1`, assetID)
	asset, err := h.scanAsset(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, errors.NewAssetNotFoundError(assetID)
		}
		return nil, false, errors.NewPortfolioLoadFailedError(err)
	}

	if data, err := json.Marshal(asset); err == nil {
		h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)
	}

	return asset, false, nil
}

func (h *Handler) loadPortfolio(ctx context.Context) ([]models.Asset, bool, error) {
	if cached, err := h.redis.Get(ctx, PortfolioCacheKey).Result(); err == nil {
		var assets []models.Asset
		if err := json.Unmarshal([]byte(cached), &assets); err == nil {
			for i := range assets {
				assets[i].DaysToExpiry = h.daysToExpiry(assets[i].ContractEnd)
			}
			return assets, true, nil
		}
	}

	rows, err := h.db.QueryContext(ctx, selectAssets+` ORDER BY asset_id`)
	if err != nil {
		return nil, false, errors.NewPortfolioLoadFailedError(err)
	}
	defer rows.Close()

	assets := []models.Asset{}
	for rows.Next() {
		asset, err := h.scanAsset(rows)
		if err != nil {
			return nil, false, errors.NewPortfolioLoadFailedError(err)
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, false, errors.NewPortfolioLoadFailedError(err)
	}

	if data, err := json.Marshal(assets); err == nil {
		h.redis.Set(ctx, PortfolioCacheKey, data, h.config.CacheTTL)
	}

	return assets, false, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (h *Handler) scanAsset(row rowScanner) (*models.Asset, error) {
	var asset models.Asset
	var contractStart, contractEnd time.Time

	err := row.Scan(
		&asset.AssetID,
		&asset.Customer,
		&asset.CustomerType,
		&asset.Product,
		&asset.ContractValue,
		&contractStart,
		&contractEnd,
		&asset.UsagePct,
		&asset.UsageDeclinePct,
		&asset.AssetAgeYears,
		&asset.LastDiscountPct,
		&asset.Licensing,
	)
	if err != nil {
		return nil, err
	}

	asset.ContractStart = contractStart.Format("2006-01-02")
	asset.ContractEnd = contractEnd.Format("2006-01-02")
	asset.DaysToExpiry = h.daysToExpiry(asset.ContractEnd)
	return &asset, nil
}

// daysToExpiry is a calendar-day difference between contract end and today.
// An unparseable date counts as already expired.
func (h *Handler) daysToExpiry(contractEnd string) int {
	end, err := time.Parse("2006-01-02", contractEnd)
	if err != nil {
		return 0
	}
	now := h.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(today).Hours() / 24)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) handleError(client worker.JobClient, job entities.Job, err error) {
	metrics.RenewalJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}
