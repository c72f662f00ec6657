// internal/workers/quote/record-quote-decision/handler.go
package recordquotedecision

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
	TaskType = "record-quote-decision"
)

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
	if input.QuoteID == "" {
		return nil, errors.NewValidationError("quoteId is required")
	}
	if input.Decision != models.QuoteStatusAccepted && input.Decision != models.QuoteStatusRejected {
		return nil, errors.NewValidationError(
			fmt.Sprintf("decision must be %s or %s", models.QuoteStatusAccepted, models.QuoteStatusRejected))
	}

	var assetID, status string
	row := h.db.QueryRowContext(ctx,
		`SELECT asset_id, status FROM quotes WHERE quote_id = $1`, input.QuoteID)
	if err := row.Scan(&assetID, &status); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewQuoteNotFoundError(input.QuoteID)
		}
		return nil, errors.NewQueryExecutionFailedError("quote-lookup", err)
	}

	// Decisions are terminal per quote version
	if status != models.QuoteStatusPending {
		return nil, errors.NewQuoteAlreadyDecidedError(input.QuoteID, status)
	}

	decidedAt := h.now().UTC().Format(time.RFC3339)

	_, err := h.db.ExecContext(ctx,
		`UPDATE quotes
		 SET status = $1, decision = $1, decision_reason = $2, decided_at = $3
		 WHERE quote_id = $4`,
		input.Decision, input.Reason, decidedAt, input.QuoteID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("quote-decision", err)
	}

	// Cached latest quote is stale once decided
	h.redis.Del(ctx, "renewal:quote:latest:"+assetID)

	negotiationRequired := input.Decision == models.QuoteStatusRejected
	h.logger.Info("quote decision recorded", map[string]interface{}{
		"quoteId":             input.QuoteID,
		"decision":            input.Decision,
		"negotiationRequired": negotiationRequired,
	})

	return &Output{
		QuoteID:             input.QuoteID,
		AssetID:             assetID,
		Status:              input.Decision,
		DecidedAt:           decidedAt,
		NegotiationRequired: negotiationRequired,
	}, nil
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
