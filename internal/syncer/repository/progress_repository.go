package repository

import (
	"time"

	syncerdomain "github.com/containersuper/bct-crm/internal/syncer/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// progressRepository implements ProgressRepository interface
type progressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) GetOrCreate(userID, importType, rangeKey string) (*syncerdomain.ImportProgress, bool, error) {
	now := time.Now()
	progress := syncerdomain.ImportProgress{}

	result := r.db.Where("user_id = ? AND import_type = ? AND range_key = ?", userID, importType, rangeKey).
		Attrs(syncerdomain.ImportProgress{
			ID:         uuid.New().String(),
			UserID:     userID,
			ImportType: importType,
			RangeKey:   rangeKey,
			Status:     syncerdomain.StatusInProgress,
			StartedAt:  now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}).
		FirstOrCreate(&progress)
	if result.Error != nil {
		return nil, false, result.Error
	}

	created := result.RowsAffected > 0
	return &progress, created, nil
}

func (r *progressRepository) Advance(id, cursor string, recordsDelta, quotaDelta int) error {
	return r.db.Model(&syncerdomain.ImportProgress{}).Where("id = ?", id).Updates(map[string]interface{}{
		"cursor":           cursor,
		"records_imported": gorm.Expr("records_imported + ?", recordsDelta),
		"quota_used":       gorm.Expr("quota_used + ?", quotaDelta),
		"status":           syncerdomain.StatusInProgress,
		"updated_at":       time.Now(),
	}).Error
}

func (r *progressRepository) Complete(id string) error {
	now := time.Now()
	return r.db.Model(&syncerdomain.ImportProgress{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       syncerdomain.StatusCompleted,
		"completed_at": now,
		"updated_at":   now,
	}).Error
}

func (r *progressRepository) Fail(id, errMsg string) error {
	now := time.Now()
	return r.db.Model(&syncerdomain.ImportProgress{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       syncerdomain.StatusFailed,
		"last_error":   errMsg,
		"completed_at": now,
		"updated_at":   now,
	}).Error
}

func (r *progressRepository) ListByUser(userID, importType string) ([]syncerdomain.ImportProgress, error) {
	var rows []syncerdomain.ImportProgress
	q := r.db.Where("user_id = ?", userID)
	if importType != "" {
		q = q.Where("import_type = ?", importType)
	}
	err := q.Order("range_key ASC").Find(&rows).Error
	return rows, err
}
