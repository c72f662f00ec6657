// internal/workers/renewal/record-renewal-decision/handler.go
package recordrenewaldecision

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"renewal-workers/internal/common/errors"
	"renewal-workers/internal/common/logger"
	"renewal-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	TaskType = "record-renewal-decision"
)

const insertDecision = `
	INSERT INTO renewal_decisions (
		asset_id, product, priority, status, expansion,
		expected_revenue_impact, probability_to_close, probability_band,
		explanation, explanation_source, decided_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

type Handler struct {
	config       *Config
	db           *sql.DB
	es           *elasticsearch.Client
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

func NewHandler(config *Config, db *sql.DB, es *elasticsearch.Client, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		es:           es,
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
	if input.AssetID == "" {
		return nil, errors.NewValidationError("assetId is required")
	}

	decidedAt := h.now().UTC().Format(time.RFC3339)

	_, err := h.db.ExecContext(ctx, insertDecision,
		input.AssetID,
		input.Product,
		input.Priority,
		input.Status,
		input.Expansion,
		input.ExpectedRevenueImpact,
		input.ProbabilityToClose,
		input.ProbabilityBand,
		input.Explanation,
		input.ExplanationSource,
		decidedAt,
	)
	if err != nil {
		return nil, errors.NewDecisionRecordFailedError(err)
	}

	// The index feeds portfolio insights; losing a document degrades the
	// snapshot, not the pipeline.
	indexed := true
	if err := h.indexDecision(ctx, input, decidedAt); err != nil {
		indexed = false
		h.logger.Warn("decision indexing failed", map[string]interface{}{
			"assetId": input.AssetID,
			"error":   err,
		})
	}

	h.logger.Info("renewal decision recorded", map[string]interface{}{
		"assetId":  input.AssetID,
		"priority": input.Priority,
		"indexed":  indexed,
	})

	return &Output{
		AssetID:          input.AssetID,
		DecisionRecorded: true,
		Indexed:          indexed,
		DecidedAt:        decidedAt,
	}, nil
}

func (h *Handler) indexDecision(ctx context.Context, input *Input, decidedAt string) error {
	doc := map[string]interface{}{
		"assetId":               input.AssetID,
		"product":               input.Product,
		"priority":              input.Priority,
		"status":                input.Status,
		"expansion":             input.Expansion,
		"expectedRevenueImpact": input.ExpectedRevenueImpact,
		"probabilityToClose":    input.ProbabilityToClose,
		"probabilityBand":       input.ProbabilityBand,
		"explanationSource":     input.ExplanationSource,
		"decidedAt":             decidedAt,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      h.config.DecisionIndex,
		DocumentID: fmt.Sprintf("%s-%s", input.AssetID, decidedAt),
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, h.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index error: %s", res.Status())
	}
	return nil
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
