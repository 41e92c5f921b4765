package repository

import (
	"errors"

	analysisdomain "github.com/containersuper/bct-crm/internal/analysis/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// analyticsRepository implements AnalyticsRepository interface
type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func upsertOn(db *gorm.DB, column string) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: column}},
		UpdateAll: true,
	})
}

func (r *analyticsRepository) SaveEmailAnalytics(row *analysisdomain.EmailAnalytics) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	return upsertOn(r.db, "email_id").Create(row).Error
}

func (r *analyticsRepository) GetEmailAnalytics(emailID string) (*analysisdomain.EmailAnalytics, error) {
	var row analysisdomain.EmailAnalytics
	err := r.db.Where("email_id = ?", emailID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *analyticsRepository) SaveCustomerIntelligence(row *analysisdomain.CustomerIntelligence) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	return upsertOn(r.db, "customer_id").Create(row).Error
}

func (r *analyticsRepository) GetCustomerIntelligence(customerID string) (*analysisdomain.CustomerIntelligence, error) {
	var row analysisdomain.CustomerIntelligence
	err := r.db.Where("customer_id = ?", customerID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *analyticsRepository) SavePriceEstimate(row *analysisdomain.PriceEstimate) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	return upsertOn(r.db, "deal_id").Create(row).Error
}

func (r *analyticsRepository) GetPriceEstimate(dealID string) (*analysisdomain.PriceEstimate, error) {
	var row analysisdomain.PriceEstimate
	err := r.db.Where("deal_id = ?", dealID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *analyticsRepository) SaveSalesPrediction(row *analysisdomain.SalesPrediction) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	return upsertOn(r.db, "customer_id").Create(row).Error
}

func (r *analyticsRepository) GetSalesPrediction(customerID string) (*analysisdomain.SalesPrediction, error) {
	var row analysisdomain.SalesPrediction
	err := r.db.Where("customer_id = ?", customerID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
