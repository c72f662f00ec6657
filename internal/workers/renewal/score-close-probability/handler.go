// internal/workers/renewal/score-close-probability/handler.go
package scorecloseprobability

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
	TaskType = "score-close-probability"
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
			Code:      errors.ErrCodeP2CScoreFailed,
			Message:   "Close probability scoring failed",
			Details:   "missing asset in input",
			Timestamp: time.Now().UTC(),
		}
	}

	base := baseScore(asset, input.Priority, input.Expansion)
	score := base
	adjustment := AdjustUnchanged

	if h.config.GenAIEnabled {
		direction, err := h.genAIAdjustment(ctx, asset, input.Priority, base)
		if err != nil {
			// Score still stands; the model only nudges it
			metrics.LLMFallbacks.WithLabelValues(TaskType).Inc()
			h.logger.Warn("genai adjustment unavailable, keeping base score", map[string]interface{}{
				"assetId": asset.AssetID,
				"error":   err,
			})
		} else {
			adjustment = direction
			switch direction {
			case AdjustHigher:
				score = clamp(score + 5)
			case AdjustLower:
				score = clamp(score - 5)
			}
		}
	}

	output := &Output{
		AssetID:            asset.AssetID,
		ProbabilityToClose: score,
		ProbabilityBand:    band(score),
		BaseScore:          base,
		Adjustment:         adjustment,
	}

	h.logger.Info("close probability scored", map[string]interface{}{
		"assetId":    asset.AssetID,
		"score":      score,
		"band":       output.ProbabilityBand,
		"adjustment": adjustment,
	})

	return output, nil
}

// baseScore implements the deterministic probability-to-close formula.
func baseScore(asset models.Asset, priority, expansion string) int {
	score := 50

	switch {
	case asset.DaysToExpiry <= 30:
		score += 20
	case asset.DaysToExpiry <= 60:
		score += 10
	}

	if asset.UsagePct >= 80 {
		score += 20
	}
	if asset.UsageDeclinePct >= 40 {
		score -= 15
	}
	if asset.AssetAgeYears >= 4 {
		score -= 10
	}

	switch priority {
	case models.PriorityHigh:
		score += 15
	case models.PriorityMedium:
		score += 5
	}

	if expansion == models.ExpansionUpsell || expansion == models.ExpansionCrossSell {
		score += 10
	}
	if asset.LastDiscountPct >= 15 {
		score -= 10
	}

	return clamp(score)
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func band(score int) string {
	switch {
	case score >= 70:
		return BandHigh
	case score >= 40:
		return BandMedium
	default:
		return BandLow
	}
}

// genAIAdjustment asks the model whether the base score should shift.
// Any response other than higher/lower reads as unchanged.
func (h *Handler) genAIAdjustment(ctx context.Context, asset models.Asset, priority string, base int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.GenAITimeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"A %s-priority renewal for %q has a base close probability of %d. "+
			"Usage %.0f%%, decline %.0f%%, %d days to expiry, asset age %.1f years. "+
			"Answer with exactly one word: higher, lower or unchanged.",
		priority, asset.Customer, base,
		asset.UsagePct, asset.UsageDeclinePct, asset.DaysToExpiry, asset.AssetAgeYears,
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
				return "", errors.NewLLMTimeoutError("p2c-adjustment")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			h.config.GenAIBaseURL+"/api/ai/generate", bytes.NewReader(body))
		if err != nil {
			return "", errors.NewLLMFailedError("p2c-adjustment", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := h.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", errors.NewLLMTimeoutError("p2c-adjustment")
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

		return parseDirection(apiResponse.Text), nil
	}

	return "", errors.NewLLMFailedError("p2c-adjustment", lastErr)
}

func parseDirection(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(normalized, AdjustHigher):
		return AdjustHigher
	case strings.Contains(normalized, AdjustLower):
		return AdjustLower
	default:
		return AdjustUnchanged
	}
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
