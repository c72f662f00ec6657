// internal/workers/negotiation/propose-next-action/handler.go
package proposenextaction

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"renewal-workers/internal/common/crm"
	"renewal-workers/internal/common/errors"
	"renewal-workers/internal/common/logger"
	"renewal-workers/internal/common/metrics"
	"renewal-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "propose-next-action"
)

// LeadCreator is satisfied by the CRM client and mocked in tests.
type LeadCreator interface {
	CreateLead(ctx context.Context, lead *crm.Lead) (string, error)
}

type Handler struct {
	config       *Config
	crm          LeadCreator
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, crmClient LeadCreator, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		crm:          crmClient,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.QuoteID == "" || input.AssetID == "" {
		return nil, errors.NewValidationError("quoteId and assetId are required")
	}

	var output *Output
	var err error

	switch input.Intent {
	case models.IntentPrice:
		output = h.priceConcession(input)
	case models.IntentHardwareChange:
		output, err = h.hardwareLead(ctx, input)
	case models.IntentTiming:
		output = &Output{
			QuoteID:   input.QuoteID,
			AssetID:   input.AssetID,
			Action:    models.ActionOnHold,
			Rationale: "Customer signalled a timing constraint; parking the renewal",
		}
	case models.IntentUnclear:
		output = &Output{
			QuoteID:   input.QuoteID,
			AssetID:   input.AssetID,
			Action:    models.ActionSalesIntervention,
			Rationale: "Rejection reason is unclear; routing to a sales representative",
		}
	default:
		return nil, errors.NewNegotiationFailedError(fmt.Sprintf("unknown intent %q", input.Intent))
	}

	if err != nil {
		return nil, err
	}

	metrics.NegotiationActions.WithLabelValues(output.Action).Inc()
	h.logger.Info("next action proposed", map[string]interface{}{
		"quoteId":   input.QuoteID,
		"intent":    input.Intent,
		"action":    output.Action,
		"rationale": output.Rationale,
	})

	return output, nil
}

// priceConcession grants one discount step within the guardrail for the
// priority band. A maxed-out discount escalates instead.
func (h *Handler) priceConcession(input *Input) *Output {
	maxDiscount, ok := h.config.MaxDiscountByPriority[input.Priority]
	if !ok {
		maxDiscount = h.config.MaxDiscountByPriority[models.PriorityLow]
	}

	revised := math.Min(input.CurrentDiscountPct+h.config.DiscountStep, maxDiscount)
	if revised <= input.CurrentDiscountPct {
		return &Output{
			QuoteID: input.QuoteID,
			AssetID: input.AssetID,
			Action:  models.ActionSalesIntervention,
			Rationale: fmt.Sprintf("Discount guardrail reached (%.0f%% for %s priority)",
				maxDiscount, input.Priority),
		}
	}

	return &Output{
		QuoteID:            input.QuoteID,
		AssetID:            input.AssetID,
		Action:             models.ActionNewQuote,
		RevisedDiscountPct: revised,
		Rationale: fmt.Sprintf("Price objection: raising discount from %.0f%% to %.0f%% within guardrails",
			input.CurrentDiscountPct, revised),
	}
}

func (h *Handler) hardwareLead(ctx context.Context, input *Input) (*Output, error) {
	lead := &crm.Lead{
		AccountName: input.Customer,
		AssetID:     input.AssetID,
		Topic:       "Hardware refresh opportunity",
		Description: fmt.Sprintf("Renewal quote %s rejected due to a planned hardware change", input.QuoteID),
		Value:       input.ContractValue,
		Source:      "renewal-negotiation",
	}

	leadID, err := h.crm.CreateLead(ctx, lead)
	if err != nil {
		return nil, errors.NewLeadCreationFailedError(err)
	}

	return &Output{
		QuoteID:   input.QuoteID,
		AssetID:   input.AssetID,
		Action:    models.ActionCreateLead,
		LeadID:    leadID,
		Rationale: "Hardware change planned; handing off as a refresh sales lead",
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
