package billing

import "time"

const (
	EventProcessed = "processed"
	EventFailed    = "failed"
)

// StripeEvent records webhook deliveries that reached a handler.
type StripeEvent struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	Type        string     `gorm:"not null;index" json:"type"`
	Status      string     `gorm:"not null;index" json:"status"`
	Error       *string    `json:"error,omitempty"`
	ReceivedAt  time.Time  `gorm:"not null" json:"received_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}
