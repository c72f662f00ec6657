// internal/workers/renewal/explain-priority/handler.go
package explainpriority

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
	TaskType = "explain-priority"
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
	asset := input.Asset
	if asset.AssetID == "" {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeExplainFailed,
			Message:   "Priority explanation failed",
			Details:   "missing asset in input",
			Timestamp: time.Now().UTC(),
		}
	}

	if h.config.GenAIEnabled {
		explanation, err := h.genAIExplanation(ctx, asset, input.Priority)
		if err == nil && strings.TrimSpace(explanation) != "" {
			return &Output{
				AssetID:           asset.AssetID,
				Explanation:       explanation,
				ExplanationSource: models.ExplanationSourceGenAI,
			}, nil
		}
		metrics.LLMFallbacks.WithLabelValues(TaskType).Inc()
		h.logger.Warn("genai explanation unavailable, using rules summary", map[string]interface{}{
			"assetId": asset.AssetID,
			"error":   err,
		})
	}

	return &Output{
		AssetID:           asset.AssetID,
		Explanation:       rulesExplanation(asset, input.Priority),
		ExplanationSource: models.ExplanationSourceRules,
	}, nil
}

// rulesExplanation emits the factors that drove the classification, most
// urgent first, capped at MaxBullets.
func rulesExplanation(asset models.Asset, priority string) string {
	bullets := []string{}

	if asset.DaysToExpiry <= 30 {
		bullets = append(bullets, fmt.Sprintf("Contract expires in %d days", asset.DaysToExpiry))
	}
	if asset.UsageDeclinePct >= 40 {
		bullets = append(bullets, fmt.Sprintf("Usage declined %.0f%% over the period", asset.UsageDeclinePct))
	}
	if asset.ContractValue > 25000 {
		bullets = append(bullets, fmt.Sprintf("High contract value (%.0f)", asset.ContractValue))
	}
	if asset.UsagePct >= 80 {
		bullets = append(bullets, fmt.Sprintf("Strong usage at %.0f%% signals expansion potential", asset.UsagePct))
	}
	if asset.AssetAgeYears >= 3 {
		bullets = append(bullets, fmt.Sprintf("Asset is %.0f years old", asset.AssetAgeYears))
	}
	if len(bullets) == 0 {
		bullets = append(bullets, fmt.Sprintf("%s priority: no urgency signals on this contract", priority))
	}

	if len(bullets) > MaxBullets {
		bullets = bullets[:MaxBullets]
	}
	for i := range bullets {
		bullets[i] = "- " + bullets[i]
	}
	return strings.Join(bullets, "\n")
}

func (h *Handler) genAIExplanation(ctx context.Context, asset models.Asset, priority string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.GenAITimeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Explain in at most two short bullets why the renewal for %q (%s) is %s priority. "+
			"Facts: %d days to expiry, usage %.0f%%, usage decline %.0f%%, "+
			"contract value %.0f, asset age %.1f years.",
		asset.Customer, asset.Product, priority,
		asset.DaysToExpiry, asset.UsagePct, asset.UsageDeclinePct,
		asset.ContractValue, asset.AssetAgeYears,
	)

	requestBody := map[string]interface{}{
		"prompt":      prompt,
		"max_tokens":  h.config.MaxTokens,
		"temperature": h.config.Temperature,
	}
	body, _ := json.Marshal(requestBody)

	var lastErr error
	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", errors.NewLLMTimeoutError("explain-priority")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			h.config.GenAIBaseURL+"/api/ai/generate", bytes.NewReader(body))
		if err != nil {
			return "", errors.NewLLMFailedError("explain-priority", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := h.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", errors.NewLLMTimeoutError("explain-priority")
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

		return truncateBullets(apiResponse.Text), nil
	}

	return "", errors.NewLLMFailedError("explain-priority", lastErr)
}

// truncateBullets keeps at most MaxBullets non-empty lines.
func truncateBullets(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	kept := []string{}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
		if len(kept) == MaxBullets {
			break
		}
	}
	return strings.Join(kept, "\n")
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
