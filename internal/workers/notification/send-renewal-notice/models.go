// internal/workers/notification/send-renewal-notice/models.go
package sendrenewalnotice

type Input struct {
	AssetID    string                 `json:"assetId"`
	Customer   string                 `json:"customer"`
	QuoteID    string                 `json:"quoteId,omitempty"`
	NoticeType string                 `json:"noticeType"`
	Priority   string                 `json:"priority,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"notificationStatus"`
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"`
}

// Notice types
const (
	TypeQuoteIssued     = "quote_issued"
	TypeQuoteRevised    = "quote_revised"
	TypeRenewalOnHold   = "renewal_on_hold"
	TypeRenewalExpiring = "renewal_expiring"
)

// Notification statuses
const (
	StatusSent    = "SENT"
	StatusSkipped = "SKIPPED"
	StatusFailed  = "FAILED"
)
