package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysisdomain "github.com/containersuper/bct-crm/internal/analysis/domain"
	crmdomain "github.com/containersuper/bct-crm/internal/crm/domain"
	emaildomain "github.com/containersuper/bct-crm/internal/email/domain"
	"github.com/containersuper/bct-crm/pkg/apperr"
)

// stubModel returns a fixed reply and records the prompt it saw.
type stubModel struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (s *stubModel) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.reply, s.err
}

type memoryAnalytics struct {
	emailRows    map[string]*analysisdomain.EmailAnalytics
	customerRows map[string]*analysisdomain.CustomerIntelligence
	priceRows    map[string]*analysisdomain.PriceEstimate
	salesRows    map[string]*analysisdomain.SalesPrediction
}

func newMemoryAnalytics() *memoryAnalytics {
	return &memoryAnalytics{
		emailRows:    map[string]*analysisdomain.EmailAnalytics{},
		customerRows: map[string]*analysisdomain.CustomerIntelligence{},
		priceRows:    map[string]*analysisdomain.PriceEstimate{},
		salesRows:    map[string]*analysisdomain.SalesPrediction{},
	}
}

func (m *memoryAnalytics) SaveEmailAnalytics(row *analysisdomain.EmailAnalytics) error {
	m.emailRows[row.EmailID] = row
	return nil
}

func (m *memoryAnalytics) GetEmailAnalytics(emailID string) (*analysisdomain.EmailAnalytics, error) {
	return m.emailRows[emailID], nil
}

func (m *memoryAnalytics) SaveCustomerIntelligence(row *analysisdomain.CustomerIntelligence) error {
	m.customerRows[row.CustomerID] = row
	return nil
}

func (m *memoryAnalytics) GetCustomerIntelligence(customerID string) (*analysisdomain.CustomerIntelligence, error) {
	return m.customerRows[customerID], nil
}

func (m *memoryAnalytics) SavePriceEstimate(row *analysisdomain.PriceEstimate) error {
	m.priceRows[row.DealID] = row
	return nil
}

func (m *memoryAnalytics) GetPriceEstimate(dealID string) (*analysisdomain.PriceEstimate, error) {
	return m.priceRows[dealID], nil
}

func (m *memoryAnalytics) SaveSalesPrediction(row *analysisdomain.SalesPrediction) error {
	m.salesRows[row.CustomerID] = row
	return nil
}

func (m *memoryAnalytics) GetSalesPrediction(customerID string) (*analysisdomain.SalesPrediction, error) {
	return m.salesRows[customerID], nil
}

type memoryEmails struct {
	byID     map[string]*emaildomain.EmailHistory
	statuses map[string]string
	recent   []emaildomain.EmailHistory
}

func newMemoryEmails(rows ...*emaildomain.EmailHistory) *memoryEmails {
	m := &memoryEmails{byID: map[string]*emaildomain.EmailHistory{}, statuses: map[string]string{}}
	for _, r := range rows {
		m.byID[r.ID] = r
	}
	return m
}

func (m *memoryEmails) UpsertBatch(rows []emaildomain.EmailHistory) error { return nil }
func (m *memoryEmails) FindByID(id string) (*emaildomain.EmailHistory, error) {
	return m.byID[id], nil
}
func (m *memoryEmails) ListRecentByAddress(addr string, limit int) ([]emaildomain.EmailHistory, error) {
	return m.recent, nil
}
func (m *memoryEmails) ListPending(limit int) ([]emaildomain.EmailHistory, error) {
	var out []emaildomain.EmailHistory
	for _, r := range m.byID {
		if r.ProcessingStatus == emaildomain.StatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}
func (m *memoryEmails) UpdateStatus(id, status string) error {
	m.statuses[id] = status
	return nil
}
func (m *memoryEmails) CountByUser(userID string) (int64, error) { return 0, nil }

type stubMirror struct {
	customer *crmdomain.Customer
	deal     *crmdomain.Deal
	deals    []crmdomain.Deal
	invoices []crmdomain.Invoice
}

func (s *stubMirror) UpsertCustomers(rows []crmdomain.Customer) error { return nil }
func (s *stubMirror) UpsertCompanies(rows []crmdomain.Company) error  { return nil }
func (s *stubMirror) UpsertDeals(rows []crmdomain.Deal) error         { return nil }
func (s *stubMirror) UpsertInvoices(rows []crmdomain.Invoice) error   { return nil }
func (s *stubMirror) UpsertQuotes(rows []crmdomain.Quote) error       { return nil }
func (s *stubMirror) UpsertProjects(rows []crmdomain.Project) error   { return nil }

func (s *stubMirror) FindCustomerByID(id string) (*crmdomain.Customer, error) {
	return s.customer, nil
}
func (s *stubMirror) FindCustomerByTeamleaderID(tlID string) (*crmdomain.Customer, error) {
	return s.customer, nil
}
func (s *stubMirror) FindDealByID(id string) (*crmdomain.Deal, error)             { return s.deal, nil }
func (s *stubMirror) FindDealByTeamleaderID(tlID string) (*crmdomain.Deal, error) { return s.deal, nil }
func (s *stubMirror) FindQuoteByID(id string) (*crmdomain.Quote, error)           { return nil, nil }
func (s *stubMirror) ListInvoicesByCustomer(customerTLID string, limit int) ([]crmdomain.Invoice, error) {
	return s.invoices, nil
}
func (s *stubMirror) ListDealsByCustomer(customerTLID string, limit int) ([]crmdomain.Deal, error) {
	return s.deals, nil
}

func testEmail() *emaildomain.EmailHistory {
	return &emaildomain.EmailHistory{
		ID:               "email-1",
		UserID:           "user-1",
		ExternalID:       "ext-1",
		Subject:          "Need 3x 40ft HC to Hamburg",
		FromAddr:         "buyer@firma.de",
		ToAddr:           "sales@containersuper.de",
		Body:             "Hello, please quote three 40ft high cube containers.",
		SentAt:           time.Now(),
		ProcessingStatus: emaildomain.StatusPending,
	}
}

func testCustomer() *crmdomain.Customer {
	return &crmdomain.Customer{
		ID:           "cust-1",
		TeamleaderID: "tl-cust-1",
		FirstName:    "Eva",
		LastName:     "Schmidt",
		Email:        "buyer@firma.de",
		CompanyName:  "Firma GmbH",
	}
}

func TestAnalyzeEmailSavesParsedReply(t *testing.T) {
	model := &stubModel{reply: `{"category":"inquiry","sentiment":"positive","urgency":"high","language":"de"}`}
	analytics := newMemoryAnalytics()
	emails := newMemoryEmails(testEmail())
	d := NewDispatcher(analytics, emails, &stubMirror{}, model)

	row, err := d.AnalyzeEmail(context.Background(), "email-1")
	require.NoError(t, err)

	assert.Equal(t, "inquiry", row.Category)
	assert.Equal(t, "high", row.Urgency)
	assert.Equal(t, "de", row.Language)
	assert.NotNil(t, analytics.emailRows["email-1"])
	assert.Equal(t, emaildomain.StatusCompleted, emails.statuses["email-1"])
	// The email content made it into the prompt.
	assert.Contains(t, model.prompt, "Need 3x 40ft HC to Hamburg")
}

func TestAnalyzeEmailAcceptsFencedJSON(t *testing.T) {
	model := &stubModel{reply: "```json\n{\"category\":\"order\",\"sentiment\":\"neutral\",\"urgency\":\"low\",\"language\":\"en\"}\n```"}
	analytics := newMemoryAnalytics()
	d := NewDispatcher(analytics, newMemoryEmails(testEmail()), &stubMirror{}, model)

	row, err := d.AnalyzeEmail(context.Background(), "email-1")
	require.NoError(t, err)
	assert.Equal(t, "order", row.Category)
}

func TestAnalyzeEmailInvalidReplyWritesNothing(t *testing.T) {
	model := &stubModel{reply: "The email looks like an inquiry to me."}
	analytics := newMemoryAnalytics()
	emails := newMemoryEmails(testEmail())
	d := NewDispatcher(analytics, emails, &stubMirror{}, model)

	_, err := d.AnalyzeEmail(context.Background(), "email-1")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidModelResponse(err))

	// Unparseable output is never persisted; the email is marked failed.
	assert.Empty(t, analytics.emailRows)
	assert.Equal(t, emaildomain.StatusFailed, emails.statuses["email-1"])
}

func TestAnalyzeEmailRejectsUnknownFields(t *testing.T) {
	model := &stubModel{reply: `{"category":"inquiry","sentiment":"neutral","urgency":"low","language":"en","note":"extra"}`}
	analytics := newMemoryAnalytics()
	d := NewDispatcher(analytics, newMemoryEmails(testEmail()), &stubMirror{}, model)

	_, err := d.AnalyzeEmail(context.Background(), "email-1")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidModelResponse(err))
	assert.Empty(t, analytics.emailRows)
}

func TestAnalyzeEmailModelError(t *testing.T) {
	model := &stubModel{err: errors.New("model unavailable")}
	analytics := newMemoryAnalytics()
	emails := newMemoryEmails(testEmail())
	d := NewDispatcher(analytics, emails, &stubMirror{}, model)

	_, err := d.AnalyzeEmail(context.Background(), "email-1")
	require.Error(t, err)
	assert.Empty(t, analytics.emailRows)
	// Transport errors are retryable: the email stays pending.
	assert.Empty(t, emails.statuses["email-1"])
}

func TestAnalyzeEmailNotFound(t *testing.T) {
	d := NewDispatcher(newMemoryAnalytics(), newMemoryEmails(), &stubMirror{}, &stubModel{})

	_, err := d.AnalyzeEmail(context.Background(), "missing")
	assert.Error(t, err)
}

func TestAnalyzeCustomerIncludesHistory(t *testing.T) {
	model := &stubModel{reply: `{"segment":"key_account","churn_risk":0.1,"summary":"Large repeat buyer."}`}
	emails := newMemoryEmails()
	emails.recent = []emaildomain.EmailHistory{
		{Subject: "Order 12 units", Direction: emaildomain.DirectionIncoming, SentAt: time.Now()},
	}
	mirror := &stubMirror{
		customer: testCustomer(),
		invoices: []crmdomain.Invoice{{Number: "INV-7", Total: 54000, Currency: "EUR", Status: "paid"}},
	}
	analytics := newMemoryAnalytics()
	d := NewDispatcher(analytics, emails, mirror, model)

	row, err := d.AnalyzeCustomer(context.Background(), "cust-1")
	require.NoError(t, err)

	assert.Equal(t, "key_account", row.Segment)
	assert.InDelta(t, 0.1, row.ChurnRisk, 1e-9)
	assert.NotNil(t, analytics.customerRows["cust-1"])
	assert.Contains(t, model.prompt, "Order 12 units")
	assert.Contains(t, model.prompt, "INV-7")
}

func TestEstimatePriceUsesPastDeals(t *testing.T) {
	model := &stubModel{reply: `{"suggested_amount":21500,"currency":"EUR","confidence":0.8,"reasoning":"Aligned with past 40ft sales."}`}
	mirror := &stubMirror{
		deal: &crmdomain.Deal{ID: "deal-1", TeamleaderID: "tl-deal-1", Title: "10x 40ft HC", Value: 20000, Currency: "EUR", CustomerTLID: "tl-cust-1"},
		deals: []crmdomain.Deal{
			{Title: "8x 40ft HC", Value: 17500, Currency: "EUR", Status: "won"},
		},
	}
	analytics := newMemoryAnalytics()
	d := NewDispatcher(analytics, newMemoryEmails(), mirror, model)

	row, err := d.EstimatePrice(context.Background(), "deal-1")
	require.NoError(t, err)

	assert.InDelta(t, 21500, row.SuggestedAmount, 1e-9)
	assert.Equal(t, "EUR", row.Currency)
	assert.NotNil(t, analytics.priceRows["deal-1"])
	assert.Contains(t, model.prompt, "8x 40ft HC")
}

func TestPredictSalesInvalidReplyWritesNothing(t *testing.T) {
	model := &stubModel{reply: `{"expected_revenue":"a lot"}`}
	analytics := newMemoryAnalytics()
	d := NewDispatcher(analytics, newMemoryEmails(), &stubMirror{customer: testCustomer()}, model)

	_, err := d.PredictSales(context.Background(), "cust-1")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidModelResponse(err))
	assert.Empty(t, analytics.salesRows)
}

func TestPredictSalesSavesParsedReply(t *testing.T) {
	model := &stubModel{reply: `{"expected_revenue":125000,"likelihood":0.7,"horizon":"year"}`}
	analytics := newMemoryAnalytics()
	d := NewDispatcher(analytics, newMemoryEmails(), &stubMirror{customer: testCustomer()}, model)

	row, err := d.PredictSales(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "year", row.Horizon)
	assert.NotNil(t, analytics.salesRows["cust-1"])
}
