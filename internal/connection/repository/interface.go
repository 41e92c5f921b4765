package repository

import (
	"time"

	conndomain "github.com/containersuper/bct-crm/internal/connection/domain"
)

type ConnectionRepository interface {
	// Upsert stores a connection keyed on (user_id, provider), replacing any
	// previous credential set for that pair.
	Upsert(conn *conndomain.Connection) error
	FindActive(userID, provider string) (*conndomain.Connection, error)
	// FindDue returns every active connection whose error count is below the
	// threshold, for the incremental sync pass.
	FindDue(errorThreshold int) ([]*conndomain.Connection, error)
	ListByUser(userID string) ([]*conndomain.Connection, error)
	// UpdateTokens rewrites the token set after a successful refresh. An empty
	// refreshToken keeps the stored one.
	UpdateTokens(id, accessToken, refreshToken string, expiresAt time.Time) error
	RecordSyncSuccess(id string, at time.Time) error
	// RecordSyncFailure increments the error count and deactivates the
	// connection once it reaches deactivateAfter.
	RecordSyncFailure(id string, deactivateAfter int) error
	Deactivate(id string) error
}
