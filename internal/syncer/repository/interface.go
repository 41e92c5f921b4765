package repository

import syncerdomain "github.com/containersuper/bct-crm/internal/syncer/domain"

// ProgressRepository is the checkpoint store behind the Progress Tracker.
type ProgressRepository interface {
	// GetOrCreate returns the progress row for (user, importType, rangeKey),
	// creating it in_progress at cursor zero when absent. The bool reports
	// whether the row was just created.
	GetOrCreate(userID, importType, rangeKey string) (*syncerdomain.ImportProgress, bool, error)
	Advance(id, cursor string, recordsDelta, quotaDelta int) error
	Complete(id string) error
	Fail(id, errMsg string) error
	ListByUser(userID, importType string) ([]syncerdomain.ImportProgress, error)
}
