// internal/workers/renewal/classify-renewal-priority/handler.go
package classifyrenewalpriority

import (
	"context"
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
)

const (
	TaskType = "classify-renewal-priority"
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       l,
		errorHandler: errors.NewErrorHandler(l),
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	asset := input.Asset
	if asset.AssetID == "" {
		return nil, errors.NewPriorityRulesFailedError("missing asset in input")
	}

	priority, status, factors := h.classify(asset)
	expansion := h.expansion(asset)
	impact := h.expectedRevenueImpact(asset.ContractValue, priority)

	h.logger.Info("priority classified", map[string]interface{}{
		"assetId":   asset.AssetID,
		"priority":  priority,
		"status":    status,
		"expansion": expansion,
		"impact":    impact,
	})

	return &Output{
		AssetID:               asset.AssetID,
		Priority:              priority,
		Status:                status,
		Expansion:             expansion,
		ExpectedRevenueImpact: impact,
		FactorsFired:          factors,
	}, nil
}

// classify applies the priority rules in order: expiry/decline first,
// then contract value.
func (h *Handler) classify(asset models.Asset) (string, string, []string) {
	factors := []string{}

	if asset.DaysToExpiry <= ExpiryWindowDays {
		factors = append(factors, fmt.Sprintf("expires in %d days", asset.DaysToExpiry))
	}
	if asset.UsageDeclinePct >= DeclineThresholdPct {
		factors = append(factors, fmt.Sprintf("usage declined %.0f%%", asset.UsageDeclinePct))
	}
	if len(factors) > 0 {
		return models.PriorityHigh, models.StatusActNow, factors
	}

	if asset.ContractValue > HighValueThreshold {
		factors = append(factors, fmt.Sprintf("contract value %.0f above threshold", asset.ContractValue))
		return models.PriorityMedium, models.StatusGoodToAct, factors
	}

	factors = append(factors, "no urgency signals")
	return models.PriorityLow, models.StatusOnHold, factors
}

func (h *Handler) expansion(asset models.Asset) string {
	switch {
	case asset.UsagePct >= UpsellUsageThreshold:
		return models.ExpansionUpsell
	case asset.AssetAgeYears >= CrossSellAgeYears:
		return models.ExpansionCrossSell
	default:
		return models.ExpansionRenewalOnly
	}
}

// expectedRevenueImpact is the contract value net of the system discount
// for the band, rounded to whole currency.
func (h *Handler) expectedRevenueImpact(contractValue float64, priority string) float64 {
	discount := h.config.DiscountByPriority[priority]
	return math.Round(contractValue * (1 - discount))
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
