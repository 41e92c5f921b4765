package repository

import analysisdomain "github.com/containersuper/bct-crm/internal/analysis/domain"

// AnalyticsRepository persists parsed model output, upserted per source row.
type AnalyticsRepository interface {
	SaveEmailAnalytics(row *analysisdomain.EmailAnalytics) error
	GetEmailAnalytics(emailID string) (*analysisdomain.EmailAnalytics, error)
	SaveCustomerIntelligence(row *analysisdomain.CustomerIntelligence) error
	GetCustomerIntelligence(customerID string) (*analysisdomain.CustomerIntelligence, error)
	SavePriceEstimate(row *analysisdomain.PriceEstimate) error
	GetPriceEstimate(dealID string) (*analysisdomain.PriceEstimate, error)
	SaveSalesPrediction(row *analysisdomain.SalesPrediction) error
	GetSalesPrediction(customerID string) (*analysisdomain.SalesPrediction, error)
}
