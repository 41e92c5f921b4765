package domain

import "time"

const (
	ProviderGmail      = "gmail"
	ProviderTeamleader = "teamleader"
)

// Connection is one stored OAuth credential set for a (user, provider) pair.
// At most one active connection per pair is consulted by the sync layer.
type Connection struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	UserID         string     `json:"user_id" gorm:"uniqueIndex:idx_user_provider;not null"`
	Provider       string     `json:"provider" gorm:"uniqueIndex:idx_user_provider;not null"`
	AccountEmail   string     `json:"account_email"`
	AccessToken    string     `json:"-" gorm:"type:text"`
	RefreshToken   string     `json:"-" gorm:"type:text"`
	ExpiresAt      time.Time  `json:"expires_at"`
	IsActive       bool       `json:"is_active" gorm:"index"`
	SyncErrorCount int        `json:"sync_error_count"`
	LastSyncAt     *time.Time `json:"last_sync_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ExpiresWithin reports whether the access token expires inside the lookahead
// window (or already has).
func (c *Connection) ExpiresWithin(lookahead time.Duration) bool {
	return !c.ExpiresAt.After(time.Now().Add(lookahead))
}
