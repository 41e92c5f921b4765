package repository

import (
	"errors"
	"time"

	conndomain "github.com/containersuper/bct-crm/internal/connection/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// connectionRepository implements ConnectionRepository interface
type connectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) Upsert(conn *conndomain.Connection) error {
	now := time.Now()
	if conn.ID == "" {
		conn.ID = uuid.New().String()
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now
	conn.IsActive = true
	conn.SyncErrorCount = 0

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_email", "access_token", "refresh_token", "expires_at",
			"is_active", "sync_error_count", "updated_at",
		}),
	}).Create(conn).Error
}

func (r *connectionRepository) FindActive(userID, provider string) (*conndomain.Connection, error) {
	var conn conndomain.Connection
	err := r.db.Where("user_id = ? AND provider = ? AND is_active = ?", userID, provider, true).First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) FindDue(errorThreshold int) ([]*conndomain.Connection, error) {
	var conns []*conndomain.Connection
	err := r.db.Where("is_active = ? AND sync_error_count < ?", true, errorThreshold).Find(&conns).Error
	return conns, err
}

func (r *connectionRepository) ListByUser(userID string) ([]*conndomain.Connection, error) {
	var conns []*conndomain.Connection
	err := r.db.Where("user_id = ?", userID).Find(&conns).Error
	return conns, err
}

func (r *connectionRepository) UpdateTokens(id, accessToken, refreshToken string, expiresAt time.Time) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"expires_at":   expiresAt,
		"updated_at":   time.Now(),
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return r.db.Model(&conndomain.Connection{}).Where("id = ?", id).Updates(updates).Error
}

func (r *connectionRepository) RecordSyncSuccess(id string, at time.Time) error {
	return r.db.Model(&conndomain.Connection{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_sync_at":     at,
		"sync_error_count": 0,
		"updated_at":       time.Now(),
	}).Error
}

func (r *connectionRepository) RecordSyncFailure(id string, deactivateAfter int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var conn conndomain.Connection
		if err := tx.Where("id = ?", id).First(&conn).Error; err != nil {
			return err
		}

		conn.SyncErrorCount++
		conn.UpdatedAt = time.Now()
		if deactivateAfter > 0 && conn.SyncErrorCount >= deactivateAfter {
			conn.IsActive = false
		}
		return tx.Save(&conn).Error
	})
}

func (r *connectionRepository) Deactivate(id string) error {
	return r.db.Model(&conndomain.Connection{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now(),
	}).Error
}
