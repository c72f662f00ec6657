// internal/workers/quote/generate-quote/handler.go
package generatequote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
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
	TaskType = "generate-quote"
)

const insertQuote = `
	INSERT INTO quotes (
		quote_id, version, parent_quote_id, asset_id, customer,
		lines, subtotal, discount_pct, discount_amt, discount_reason,
		discount_source, total, term_start, term_end, service_level,
		status, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	asset := input.Asset
	if asset.AssetID == "" {
		return nil, errors.NewValidationError("missing asset in input")
	}

	version, err := h.nextVersion(ctx, asset.AssetID)
	if err != nil {
		return nil, errors.NewQuoteGenerationFailedError(err)
	}

	quote := h.buildQuote(asset, input, version)

	linesJSON, err := json.Marshal(quote.Lines)
	if err != nil {
		return nil, errors.NewQuoteGenerationFailedError(err)
	}

	_, err = h.db.ExecContext(ctx, insertQuote,
		quote.QuoteID, quote.Version, nullable(quote.ParentQuoteID),
		quote.AssetID, quote.Customer, linesJSON,
		quote.Subtotal, quote.DiscountPct, quote.DiscountAmt,
		nullable(quote.DiscountReason), quote.DiscountSource, quote.Total,
		quote.TermStart, quote.TermEnd, quote.ServiceLevel,
		quote.Status, quote.CreatedAt,
	)
	if err != nil {
		return nil, errors.NewQuoteGenerationFailedError(err)
	}

	if data, err := json.Marshal(quote); err == nil {
		h.redis.Set(ctx, LatestQuoteCacheKeyPrefix+asset.AssetID, data, h.config.CacheTTL)
	}

	metrics.QuotesGenerated.WithLabelValues(input.Priority).Inc()
	h.logger.Info("quote generated", map[string]interface{}{
		"quoteId":     quote.QuoteID,
		"version":     quote.Version,
		"total":       quote.Total,
		"discountPct": quote.DiscountPct,
	})

	return &Output{
		Quote:   *quote,
		QuoteID: quote.QuoteID,
		Version: quote.Version,
	}, nil
}

func (h *Handler) nextVersion(ctx context.Context, assetID string) (int, error) {
	var maxVersion int
	row := h.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM quotes WHERE asset_id = $1`, assetID)
	if err := row.Scan(&maxVersion); err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}

func (h *Handler) buildQuote(asset models.Asset, input *Input, version int) *models.Quote {
	lines := []models.QuoteLine{
		{SKU: h.config.BaseSKU, Item: h.config.BaseItem, Price: asset.ContractValue},
	}
	if input.Expansion == models.ExpansionUpsell || input.Expansion == models.ExpansionCrossSell {
		lines = append(lines, models.QuoteLine{
			SKU:   h.config.AddOnSKU,
			Item:  h.config.AddOnItem,
			Price: h.config.AddOnPrice,
		})
	}

	subtotal := 0.0
	for _, line := range lines {
		subtotal += line.Price
	}
	subtotal = round2(subtotal)

	discountPct := asset.LastDiscountPct
	discountSource := models.DiscountSourceRules
	if input.RevisedDiscountPct != nil {
		discountPct = *input.RevisedDiscountPct
		discountSource = models.DiscountSourceNegotiation
	}

	discountAmt := round2(subtotal * discountPct / 100)
	total := round2(subtotal - discountAmt)

	parentQuoteID := input.ParentQuoteID
	if parentQuoteID == "" && version > 1 {
		parentQuoteID = fmt.Sprintf("%s-v%d", asset.AssetID, version-1)
	}

	termStart := h.now().UTC()
	termEnd := termStart.AddDate(0, 0, h.config.RenewalTermDays)

	return &models.Quote{
		QuoteID:        fmt.Sprintf("%s-v%d", asset.AssetID, version),
		Version:        version,
		ParentQuoteID:  parentQuoteID,
		AssetID:        asset.AssetID,
		Customer:       asset.Customer,
		Lines:          lines,
		Subtotal:       subtotal,
		DiscountPct:    discountPct,
		DiscountAmt:    discountAmt,
		DiscountReason: input.DiscountReason,
		DiscountSource: discountSource,
		Total:          total,
		TermStart:      termStart.Format("2006-01-02"),
		TermEnd:        termEnd.Format("2006-01-02"),
		ServiceLevel:   h.config.ServiceLevel,
		Status:         models.QuoteStatusPending,
		CreatedAt:      termStart.Format(time.RFC3339),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
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
