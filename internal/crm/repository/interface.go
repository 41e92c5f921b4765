package repository

import crmdomain "github.com/containersuper/bct-crm/internal/crm/domain"

// MirrorRepository persists upserted copies of remote CRM entities. Every
// write goes through an upsert keyed on teamleader_id, so re-fetching the
// same records is idempotent.
type MirrorRepository interface {
	UpsertCustomers(rows []crmdomain.Customer) error
	UpsertCompanies(rows []crmdomain.Company) error
	UpsertDeals(rows []crmdomain.Deal) error
	UpsertInvoices(rows []crmdomain.Invoice) error
	UpsertQuotes(rows []crmdomain.Quote) error
	UpsertProjects(rows []crmdomain.Project) error

	FindCustomerByID(id string) (*crmdomain.Customer, error)
	FindCustomerByTeamleaderID(tlID string) (*crmdomain.Customer, error)
	FindDealByID(id string) (*crmdomain.Deal, error)
	FindDealByTeamleaderID(tlID string) (*crmdomain.Deal, error)
	FindQuoteByID(id string) (*crmdomain.Quote, error)
	ListInvoicesByCustomer(customerTLID string, limit int) ([]crmdomain.Invoice, error)
	ListDealsByCustomer(customerTLID string, limit int) ([]crmdomain.Deal, error)
}
