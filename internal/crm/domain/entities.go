package domain

import "time"

// Entity type names as used in import types, endpoints and progress rows.
const (
	EntityContacts   = "contacts"
	EntityCompanies  = "companies"
	EntityDeals      = "deals"
	EntityInvoices   = "invoices"
	EntityQuotations = "quotations"
	EntityProjects   = "projects"
)

// AllEntities lists every TeamLeader entity type the sync layer mirrors.
func AllEntities() []string {
	return []string{
		EntityContacts, EntityCompanies, EntityDeals,
		EntityInvoices, EntityQuotations, EntityProjects,
	}
}

// Mirror rows: each one is an upserted copy of a remote entity, keyed by
// teamleader_id. Upsert-on-conflict is the only write path; last write wins.

type Customer struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	TeamleaderID string    `json:"teamleader_id" gorm:"uniqueIndex;not null"`
	UserID       string    `json:"user_id" gorm:"index"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email" gorm:"index"`
	Phone        string    `json:"phone"`
	CompanyName  string    `json:"company_name"`
	Language     string    `json:"language"`
	SyncedAt     time.Time `json:"synced_at"`
}

type Company struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	TeamleaderID string    `json:"teamleader_id" gorm:"uniqueIndex;not null"`
	UserID       string    `json:"user_id" gorm:"index"`
	Name         string    `json:"name"`
	VATNumber    string    `json:"vat_number"`
	Email        string    `json:"email"`
	Website      string    `json:"website"`
	SyncedAt     time.Time `json:"synced_at"`
}

type Deal struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	TeamleaderID    string     `json:"teamleader_id" gorm:"uniqueIndex;not null"`
	UserID          string     `json:"user_id" gorm:"index"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	Phase           string     `json:"phase"`
	Value           float64    `json:"value"`
	Currency        string     `json:"currency"`
	CustomerTLID    string     `json:"customer_teamleader_id" gorm:"index"`
	ExpectedCloseAt *time.Time `json:"expected_close_at"`
	SyncedAt        time.Time  `json:"synced_at"`
}

type Invoice struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	TeamleaderID string     `json:"teamleader_id" gorm:"uniqueIndex;not null"`
	UserID       string     `json:"user_id" gorm:"index"`
	Number       string     `json:"number"`
	Status       string     `json:"status"`
	Total        float64    `json:"total"`
	Currency     string     `json:"currency"`
	CustomerTLID string     `json:"customer_teamleader_id" gorm:"index"`
	DueOn        *time.Time `json:"due_on"`
	SyncedAt     time.Time  `json:"synced_at"`
}

type Quote struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	TeamleaderID string     `json:"teamleader_id" gorm:"uniqueIndex;not null"`
	UserID       string     `json:"user_id" gorm:"index"`
	Number       string     `json:"number"`
	Status       string     `json:"status"`
	Total        float64    `json:"total"`
	Currency     string     `json:"currency"`
	DealTLID     string     `json:"deal_teamleader_id" gorm:"index"`
	ValidUntil   *time.Time `json:"valid_until"`
	SyncedAt     time.Time  `json:"synced_at"`
}

type Project struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	TeamleaderID string     `json:"teamleader_id" gorm:"uniqueIndex;not null"`
	UserID       string     `json:"user_id" gorm:"index"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	StartsOn     *time.Time `json:"starts_on"`
	DueOn        *time.Time `json:"due_on"`
	SyncedAt     time.Time  `json:"synced_at"`
}
