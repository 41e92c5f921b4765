package repository

import (
	"errors"
	"time"

	emaildomain "github.com/containersuper/bct-crm/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// emailRepository implements EmailRepository interface
type emailRepository struct {
	db *gorm.DB
}

func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{db: db}
}

func (r *emailRepository) UpsertBatch(rows []emaildomain.EmailHistory) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now()
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.New().String()
			rows[i].CreatedAt = now
		}
		rows[i].UpdatedAt = now
		if rows[i].ProcessingStatus == "" {
			rows[i].ProcessingStatus = emaildomain.StatusPending
		}
	}

	// Keep the analysis status on re-sync; otherwise last write wins.
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"thread_id", "direction", "brand", "subject", "from_addr",
			"to_addr", "snippet", "body", "sent_at", "updated_at",
		}),
	}).Create(&rows).Error
}

func (r *emailRepository) FindByID(id string) (*emaildomain.EmailHistory, error) {
	var row emaildomain.EmailHistory
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *emailRepository) ListRecentByAddress(addr string, limit int) ([]emaildomain.EmailHistory, error) {
	var rows []emaildomain.EmailHistory
	err := r.db.Where("from_addr LIKE ? OR to_addr LIKE ?", "%"+addr+"%", "%"+addr+"%").
		Order("sent_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *emailRepository) ListPending(limit int) ([]emaildomain.EmailHistory, error) {
	var rows []emaildomain.EmailHistory
	err := r.db.Where("processing_status = ?", emaildomain.StatusPending).
		Order("sent_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *emailRepository) UpdateStatus(id, status string) error {
	return r.db.Model(&emaildomain.EmailHistory{}).Where("id = ?", id).Updates(map[string]interface{}{
		"processing_status": status,
		"updated_at":        time.Now(),
	}).Error
}

func (r *emailRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&emaildomain.EmailHistory{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
