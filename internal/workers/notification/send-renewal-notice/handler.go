// internal/workers/notification/send-renewal-notice/handler.go
package sendrenewalnotice

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
	"renewal-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-renewal-notice"
)

const selectContact = `
	SELECT contact_email, contact_phone
	FROM customer_contacts
	WHERE customer = $1`

// EmailSender and SMSSender are satisfied by the common AWS wrappers and
// mocked in tests.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config       *Config
	db           *sql.DB
	email        EmailSender
	sms          SMSSender
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	templateMap  map[string]map[string]string
	now          func() time.Time
}

func NewHandler(config *Config, db *sql.DB, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		email:        email,
		sms:          sms,
		logger:       l,
		errorHandler: errors.NewErrorHandler(l),
		templateMap:  noticeTemplates(),
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
	if input.AssetID == "" || input.Customer == "" {
		return nil, errors.NewValidationError("assetId and customer are required")
	}

	template, exists := h.templateMap[input.NoticeType]
	if !exists {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown notice type %q", input.NoticeType))
	}

	notificationID := uuid.New().String()
	sentAt := h.now().UTC().Format(time.RFC3339)

	email, phone, err := h.contactFor(ctx, input.Customer)
	if err == sql.ErrNoRows {
		// A missing contact must not block the renewal process.
		h.logger.Warn("no contact on file, skipping notice", map[string]interface{}{
			"customer": input.Customer,
			"assetId":  input.AssetID,
		})
		return &Output{
			NotificationID: notificationID,
			Status:         StatusSkipped,
			SentAt:         sentAt,
		}, nil
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("contact lookup", err)
	}

	data := map[string]interface{}{
		"customer": input.Customer,
		"assetId":  input.AssetID,
		"quoteId":  input.QuoteID,
		"priority": input.Priority,
	}
	for k, v := range input.Metadata {
		data[k] = v
	}

	subject := renderTemplate(template["subject"], data)
	body := renderTemplate(template["body"], data)

	emailSent := false
	if h.config.EmailEnabled && email != "" {
		if err := h.sendEmail(ctx, email, subject, body); err != nil {
			return nil, errors.NewNotificationSendFailedError("email", err)
		}
		emailSent = true
	}

	// SMS is reserved for accounts that need immediate attention.
	smsSent := false
	if h.config.SMSEnabled && phone != "" && input.Priority == models.PriorityHigh {
		if err := h.sendSMS(ctx, phone, body); err != nil {
			return nil, errors.NewNotificationSendFailedError("sms", err)
		}
		smsSent = true
	}

	status := StatusSkipped
	if emailSent || smsSent {
		status = StatusSent
	}

	h.logger.Info("renewal notice processed", map[string]interface{}{
		"assetId":    input.AssetID,
		"noticeType": input.NoticeType,
		"status":     status,
		"emailSent":  emailSent,
		"smsSent":    smsSent,
	})

	return &Output{
		NotificationID: notificationID,
		Status:         status,
		EmailSent:      emailSent,
		SMSSent:        smsSent,
		SentAt:         sentAt,
	}, nil
}

func (h *Handler) contactFor(ctx context.Context, customer string) (string, string, error) {
	var email, phone string
	err := h.db.QueryRowContext(ctx, selectContact, customer).Scan(&email, &phone)
	return email, phone, err
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.email.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.sms.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
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

// renderTemplate fills {{placeholder}} tokens and strips any left unresolved.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		switch typed := v.(type) {
		case string:
			value = typed
		case nil:
		default:
			value = fmt.Sprintf("%v", typed)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

func noticeTemplates() map[string]map[string]string {
	return map[string]map[string]string{
		TypeQuoteIssued: {
			"subject": "Your service renewal quote is ready",
			"body":    "Hello {{customer}}, your renewal quote {{quoteId}} for asset {{assetId}} is ready for review.",
		},
		TypeQuoteRevised: {
			"subject": "Your renewal quote has been revised",
			"body":    "Hello {{customer}}, we have revised your renewal quote. The updated quote {{quoteId}} is ready for review.",
		},
		TypeRenewalOnHold: {
			"subject": "Your service renewal is on hold",
			"body":    "Hello {{customer}}, we have paused the renewal for asset {{assetId}} as requested. We will follow up closer to the date.",
		},
		TypeRenewalExpiring: {
			"subject": "Your service contract is expiring soon",
			"body":    "Hello {{customer}}, the service contract for asset {{assetId}} is expiring soon. Priority: {{priority}}.",
		},
	}
}
