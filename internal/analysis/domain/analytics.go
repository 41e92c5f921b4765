package domain

import "time"

// Analysis kinds dispatched to the model.
const (
	KindEmailClassification  = "email_classification"
	KindCustomerIntelligence = "customer_intelligence"
	KindPriceEstimation      = "price_estimation"
	KindSalesPrediction      = "sales_prediction"
)

// Derived rows below cache parsed model output, one per source record. They
// are caches of a non-deterministic external call; re-running an analysis
// overwrites the previous row.

type EmailAnalytics struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	EmailID     string    `json:"email_id" gorm:"uniqueIndex;not null"`
	Category    string    `json:"category"`
	Sentiment   string    `json:"sentiment"`
	Urgency     string    `json:"urgency"`
	Language    string    `json:"language"`
	RawResponse string    `json:"raw_response" gorm:"type:jsonb"`
	AnalyzedAt  time.Time `json:"analyzed_at"`
}

type CustomerIntelligence struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	CustomerID  string    `json:"customer_id" gorm:"uniqueIndex;not null"`
	Segment     string    `json:"segment"`
	ChurnRisk   float64   `json:"churn_risk"`
	Summary     string    `json:"summary" gorm:"type:text"`
	RawResponse string    `json:"raw_response" gorm:"type:jsonb"`
	AnalyzedAt  time.Time `json:"analyzed_at"`
}

type PriceEstimate struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	DealID          string    `json:"deal_id" gorm:"uniqueIndex;not null"`
	SuggestedAmount float64   `json:"suggested_amount"`
	Currency        string    `json:"currency"`
	Confidence      float64   `json:"confidence"`
	Reasoning       string    `json:"reasoning" gorm:"type:text"`
	RawResponse     string    `json:"raw_response" gorm:"type:jsonb"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

type SalesPrediction struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	CustomerID      string    `json:"customer_id" gorm:"uniqueIndex;not null"`
	ExpectedRevenue float64   `json:"expected_revenue"`
	Likelihood      float64   `json:"likelihood"`
	Horizon         string    `json:"horizon"`
	RawResponse     string    `json:"raw_response" gorm:"type:jsonb"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}
