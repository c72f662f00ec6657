// internal/workers/insights/build-portfolio-snapshot/handler.go
package buildportfoliosnapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
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
	TaskType = "build-portfolio-snapshot"
)

const snapshotQuery = `{
	"size": 0,
	"aggs": {
		"by_priority": { "terms": { "field": "priority.keyword" } },
		"total_impact": { "sum": { "field": "expectedRevenueImpact" } },
		"avg_p2c": { "avg": { "field": "probabilityToClose" } },
		"by_product": {
			"terms": { "field": "product.keyword" },
			"aggs": {
				"impact": { "sum": { "field": "expectedRevenueImpact" } },
				"avg_p2c": { "avg": { "field": "probabilityToClose" } }
			}
		}
	}
}`

const selectPriorityAggregates = `
	SELECT priority, COUNT(*), COALESCE(SUM(expected_revenue_impact), 0),
		COALESCE(AVG(probability_to_close), 0)
	FROM renewal_decisions
	GROUP BY priority`

const selectProductAggregates = `
	SELECT product, COUNT(*), COALESCE(SUM(expected_revenue_impact), 0),
		COALESCE(AVG(probability_to_close), 0)
	FROM renewal_decisions
	GROUP BY product
	ORDER BY product`

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
	index := input.Index
	if index == "" {
		index = h.config.DecisionIndex
	}

	output, err := h.searchSnapshot(ctx, index)
	if err == nil {
		h.logSnapshot(output)
		return output, nil
	}

	// The decision store is the source of truth; aggregate there when the
	// search cluster is unavailable.
	h.logger.Warn("search aggregation failed, falling back to the decision store", map[string]interface{}{
		"index": index,
		"error": err,
	})

	output, err = h.querySnapshot(ctx)
	if err != nil {
		return nil, errors.NewSnapshotFailedError(err)
	}

	h.logSnapshot(output)
	return output, nil
}

type valueAgg struct {
	Value float64 `json:"value"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
	} `json:"hits"`
	Aggregations struct {
		ByPriority struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int    `json:"doc_count"`
			} `json:"buckets"`
		} `json:"by_priority"`
		TotalImpact valueAgg `json:"total_impact"`
		AvgP2C      valueAgg `json:"avg_p2c"`
		ByProduct   struct {
			Buckets []struct {
				Key      string   `json:"key"`
				DocCount int      `json:"doc_count"`
				Impact   valueAgg `json:"impact"`
				AvgP2C   valueAgg `json:"avg_p2c"`
			} `json:"buckets"`
		} `json:"by_product"`
	} `json:"aggregations"`
}

func (h *Handler) searchSnapshot(ctx context.Context, index string) (*Output, error) {
	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(snapshotQuery),
	}

	res, err := req.Do(ctx, h.es)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	output := &Output{
		TotalDecisions:        parsed.Hits.Total.Value,
		CountsByPriority:      make(map[string]int),
		TotalExpectedImpact:   parsed.Aggregations.TotalImpact.Value,
		AvgProbabilityToClose: parsed.Aggregations.AvgP2C.Value,
		Source:                SourceElasticsearch,
		GeneratedAt:           h.now().UTC().Format(time.RFC3339),
	}
	for _, bucket := range parsed.Aggregations.ByPriority.Buckets {
		output.CountsByPriority[bucket.Key] = bucket.DocCount
	}
	for _, bucket := range parsed.Aggregations.ByProduct.Buckets {
		output.Products = append(output.Products, ProductBreakdown{
			Product:               bucket.Key,
			AssetCount:            bucket.DocCount,
			ExpectedImpact:        bucket.Impact.Value,
			AvgProbabilityToClose: bucket.AvgP2C.Value,
		})
	}

	return output, nil
}

func (h *Handler) querySnapshot(ctx context.Context) (*Output, error) {
	output := &Output{
		CountsByPriority: make(map[string]int),
		Source:           SourcePostgres,
		GeneratedAt:      h.now().UTC().Format(time.RFC3339),
	}

	rows, err := h.db.QueryContext(ctx, selectPriorityAggregates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	weightedP2C := 0.0
	for rows.Next() {
		var priority string
		var count int
		var impact, avgP2C float64
		if err := rows.Scan(&priority, &count, &impact, &avgP2C); err != nil {
			return nil, err
		}
		output.CountsByPriority[priority] = count
		output.TotalDecisions += count
		output.TotalExpectedImpact += impact
		weightedP2C += float64(count) * avgP2C
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if output.TotalDecisions > 0 {
		output.AvgProbabilityToClose = weightedP2C / float64(output.TotalDecisions)
	}

	productRows, err := h.db.QueryContext(ctx, selectProductAggregates)
	if err != nil {
		return nil, err
	}
	defer productRows.Close()

	for productRows.Next() {
		var breakdown ProductBreakdown
		if err := productRows.Scan(&breakdown.Product, &breakdown.AssetCount,
			&breakdown.ExpectedImpact, &breakdown.AvgProbabilityToClose); err != nil {
			return nil, err
		}
		output.Products = append(output.Products, breakdown)
	}
	return output, productRows.Err()
}

func (h *Handler) logSnapshot(output *Output) {
	h.logger.Info("portfolio snapshot built", map[string]interface{}{
		"totalDecisions": output.TotalDecisions,
		"totalImpact":    output.TotalExpectedImpact,
		"source":         output.Source,
	})
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
