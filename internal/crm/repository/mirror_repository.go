package repository

import (
	"errors"

	crmdomain "github.com/containersuper/bct-crm/internal/crm/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mirrorRepository implements MirrorRepository interface
type mirrorRepository struct {
	db *gorm.DB
}

func NewMirrorRepository(db *gorm.DB) MirrorRepository {
	return &mirrorRepository{db: db}
}

// upsertOnTeamleaderID is the single conflict clause for all mirror tables.
func upsertOnTeamleaderID(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "teamleader_id"}},
		UpdateAll: true,
	})
}

func (r *mirrorRepository) UpsertCustomers(rows []crmdomain.Customer) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.New().String()
		}
	}
	return upsertOnTeamleaderID(r.db).Create(&rows).Error
}

func (r *mirrorRepository) UpsertCompanies(rows []crmdomain.Company) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.New().String()
		}
	}
	return upsertOnTeamleaderID(r.db).Create(&rows).Error
}

func (r *mirrorRepository) UpsertDeals(rows []crmdomain.Deal) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.New().String()
		}
	}
	return upsertOnTeamleaderID(r.db).Create(&rows).Error
}

func (r *mirrorRepository) UpsertInvoices(rows []crmdomain.Invoice) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.New().String()
		}
	}
	return upsertOnTeamleaderID(r.db).Create(&rows).Error
}

func (r *mirrorRepository) UpsertQuotes(rows []crmdomain.Quote) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.New().String()
		}
	}
	return upsertOnTeamleaderID(r.db).Create(&rows).Error
}

func (r *mirrorRepository) UpsertProjects(rows []crmdomain.Project) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.New().String()
		}
	}
	return upsertOnTeamleaderID(r.db).Create(&rows).Error
}

func (r *mirrorRepository) FindCustomerByID(id string) (*crmdomain.Customer, error) {
	var row crmdomain.Customer
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *mirrorRepository) FindCustomerByTeamleaderID(tlID string) (*crmdomain.Customer, error) {
	var row crmdomain.Customer
	err := r.db.Where("teamleader_id = ?", tlID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *mirrorRepository) FindDealByID(id string) (*crmdomain.Deal, error) {
	var row crmdomain.Deal
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *mirrorRepository) FindDealByTeamleaderID(tlID string) (*crmdomain.Deal, error) {
	var row crmdomain.Deal
	err := r.db.Where("teamleader_id = ?", tlID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *mirrorRepository) FindQuoteByID(id string) (*crmdomain.Quote, error) {
	var row crmdomain.Quote
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *mirrorRepository) ListInvoicesByCustomer(customerTLID string, limit int) ([]crmdomain.Invoice, error) {
	var rows []crmdomain.Invoice
	err := r.db.Where("customer_tl_id = ?", customerTLID).Order("due_on DESC NULLS LAST").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *mirrorRepository) ListDealsByCustomer(customerTLID string, limit int) ([]crmdomain.Deal, error) {
	var rows []crmdomain.Deal
	err := r.db.Where("customer_tl_id = ?", customerTLID).Order("synced_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
