package domain

import "time"

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Import types as recorded in progress rows. TeamLeader entity imports use
// "teamleader_<entity>", Gmail history uses ImportTypeGmail.
const ImportTypeGmail = "gmail_history"

func ImportTypeTeamleader(entity string) string {
	return "teamleader_" + entity
}

// ImportProgress is a checkpoint row: one per (user, import type, range).
// A range marked completed is never re-fetched by later invocations; rows are
// finalized, never deleted.
type ImportProgress struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	UserID          string     `json:"user_id" gorm:"uniqueIndex:idx_user_import_range;not null"`
	ImportType      string     `json:"import_type" gorm:"uniqueIndex:idx_user_import_range;not null"`
	RangeKey        string     `json:"range_key" gorm:"uniqueIndex:idx_user_import_range;not null"`
	Cursor          string     `json:"cursor"`
	Status          string     `json:"status" gorm:"index"`
	RecordsImported int        `json:"records_imported"`
	QuotaUsed       int        `json:"quota_used"`
	LastError       string     `json:"last_error"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
