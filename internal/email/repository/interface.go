package repository

import emaildomain "github.com/containersuper/bct-crm/internal/email/domain"

type EmailRepository interface {
	// UpsertBatch writes messages keyed on external_id; re-syncing the same
	// messages is idempotent.
	UpsertBatch(rows []emaildomain.EmailHistory) error
	FindByID(id string) (*emaildomain.EmailHistory, error)
	// ListRecentByAddress returns the newest messages exchanged with an
	// address, for analysis context windows.
	ListRecentByAddress(addr string, limit int) ([]emaildomain.EmailHistory, error)
	ListPending(limit int) ([]emaildomain.EmailHistory, error)
	UpdateStatus(id, status string) error
	CountByUser(userID string) (int64, error)
}
