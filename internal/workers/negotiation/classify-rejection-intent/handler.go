// internal/workers/negotiation/classify-rejection-intent/handler.go
package classifyrejectionintent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"renewal-workers/internal/common/errors"
	"renewal-workers/internal/common/logger"
	"renewal-workers/internal/common/metrics"
	"renewal-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "classify-rejection-intent"
)

type Handler struct {
	config       *Config
	client       *http.Client
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		client:       &http.Client{},
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
	if input.QuoteID == "" {
		return nil, errors.NewValidationError("quoteId is required")
	}

	if h.config.GenAIEnabled {
		intent, err := h.genAIIntent(ctx, input.RejectionReason)
		if err == nil {
			return &Output{QuoteID: input.QuoteID, Intent: intent, Source: SourceGenAI}, nil
		}
		metrics.LLMFallbacks.WithLabelValues(TaskType).Inc()
		h.logger.Warn("genai intent unavailable, using keyword rules", map[string]interface{}{
			"quoteId": input.QuoteID,
			"error":   err,
		})
	}

	intent := keywordIntent(input.RejectionReason)
	h.logger.Info("rejection intent classified", map[string]interface{}{
		"quoteId": input.QuoteID,
		"intent":  intent,
	})

	return &Output{QuoteID: input.QuoteID, Intent: intent, Source: SourceKeywordRules}, nil
}

// keywordIntent is the deterministic fallback classifier.
func keywordIntent(reason string) string {
	normalized := strings.ToLower(reason)
	switch {
	case strings.Contains(normalized, "price") ||
		strings.Contains(normalized, "expensive") ||
		strings.Contains(normalized, "cost") ||
		strings.Contains(normalized, "discount"):
		return models.IntentPrice
	case strings.Contains(normalized, "hardware") ||
		strings.Contains(normalized, "replace") ||
		strings.Contains(normalized, "refresh") ||
		strings.Contains(normalized, "upgrade"):
		return models.IntentHardwareChange
	case strings.Contains(normalized, "later") ||
		strings.Contains(normalized, "budget") ||
		strings.Contains(normalized, "next quarter") ||
		strings.Contains(normalized, "timing"):
		return models.IntentTiming
	default:
		return models.IntentUnclear
	}
}

func (h *Handler) genAIIntent(ctx context.Context, reason string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.GenAITimeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Classify this renewal quote rejection into exactly one of: price, "+
			"hardware_change, timing, unclear. Rejection: %q. Answer with the label only.",
		reason,
	)

	requestBody := map[string]interface{}{
		"prompt":      prompt,
		"max_tokens":  10,
		"temperature": 0.0,
	}
	body, _ := json.Marshal(requestBody)

	var lastErr error
	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", errors.NewLLMTimeoutError("rejection-intent")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			h.config.GenAIBaseURL+"/api/ai/generate", bytes.NewReader(body))
		if err != nil {
			return "", errors.NewLLMFailedError("rejection-intent", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := h.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", errors.NewLLMTimeoutError("rejection-intent")
			}
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}

		var apiResponse struct {
			Text string `json:"text"`
		}
		err = json.NewDecoder(resp.Body).Decode(&apiResponse)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		return parseIntent(apiResponse.Text), nil
	}

	return "", errors.NewLLMFailedError("rejection-intent", lastErr)
}

// parseIntent maps a model response onto a known label, unclear otherwise.
func parseIntent(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, intent := range []string{
		models.IntentPrice,
		models.IntentHardwareChange,
		models.IntentTiming,
	} {
		if strings.Contains(normalized, intent) {
			return intent
		}
	}
	return models.IntentUnclear
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
