package domain

import "time"

const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// Analysis/processing status of one stored message.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// EmailHistory mirrors one provider message, keyed by the provider message id.
type EmailHistory struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	UserID           string    `json:"user_id" gorm:"index"`
	ExternalID       string    `json:"external_id" gorm:"uniqueIndex;not null"`
	ThreadID         string    `json:"thread_id" gorm:"index"`
	Direction        string    `json:"direction"`
	Brand            string    `json:"brand" gorm:"index"`
	Subject          string    `json:"subject"`
	FromAddr         string    `json:"from_addr" gorm:"index"`
	ToAddr           string    `json:"to_addr"`
	Snippet          string    `json:"snippet"`
	Body             string    `json:"body" gorm:"type:text"`
	SentAt           time.Time `json:"sent_at" gorm:"index"`
	ProcessingStatus string    `json:"processing_status" gorm:"index;default:pending"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
