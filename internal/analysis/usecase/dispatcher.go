package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	analysisdomain "github.com/containersuper/bct-crm/internal/analysis/domain"
	analysisrepo "github.com/containersuper/bct-crm/internal/analysis/repository"
	crmrepo "github.com/containersuper/bct-crm/internal/crm/repository"
	emaildomain "github.com/containersuper/bct-crm/internal/email/domain"
	emailrepo "github.com/containersuper/bct-crm/internal/email/repository"
	"github.com/containersuper/bct-crm/pkg/apperr"
	"github.com/containersuper/bct-crm/pkg/metrics"
)

// CompletionClient is the single model call the dispatcher needs.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

const completionMaxTokens = 1024

// Dispatcher runs one analysis kind per call: gather the source row and a
// bounded slice of history, one model call, one strict parse, one upsert.
// A reply that does not parse writes nothing.
type Dispatcher struct {
	analytics analysisrepo.AnalyticsRepository
	emails    emailrepo.EmailRepository
	mirror    crmrepo.MirrorRepository
	model     CompletionClient
}

func NewDispatcher(
	analytics analysisrepo.AnalyticsRepository,
	emails emailrepo.EmailRepository,
	mirror crmrepo.MirrorRepository,
	model CompletionClient,
) *Dispatcher {
	return &Dispatcher{analytics: analytics, emails: emails, mirror: mirror, model: model}
}

// parseReply strictly decodes the model output into out. Models sometimes wrap
// JSON in a markdown fence; that is stripped before decoding, anything else
// non-JSON fails the analysis.
func parseReply(kind, raw string, out any) error {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &apperr.InvalidModelResponse{Kind: kind, Raw: raw}
	}
	return nil
}

// AnalyzeEmail classifies one stored message and records the result. The
// message's processing status moves to completed on success and failed when
// the model reply cannot be parsed.
func (d *Dispatcher) AnalyzeEmail(ctx context.Context, emailID string) (*analysisdomain.EmailAnalytics, error) {
	email, err := d.emails.FindByID(emailID)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, fmt.Errorf("email %s not found", emailID)
	}

	raw, err := d.model.Complete(ctx, emailClassificationPrompt(email), completionMaxTokens)
	if err != nil {
		metrics.RecordAnalysis(analysisdomain.KindEmailClassification, "error")
		return nil, err
	}

	var reply emailClassificationReply
	if err := parseReply(analysisdomain.KindEmailClassification, raw, &reply); err != nil {
		metrics.RecordAnalysis(analysisdomain.KindEmailClassification, "invalid")
		if statusErr := d.emails.UpdateStatus(email.ID, emaildomain.StatusFailed); statusErr != nil {
			log.Printf("[Analysis] Failed to mark email %s failed: %v", email.ID, statusErr)
		}
		return nil, err
	}

	row := &analysisdomain.EmailAnalytics{
		ID:          uuid.New().String(),
		EmailID:     email.ID,
		Category:    reply.Category,
		Sentiment:   reply.Sentiment,
		Urgency:     reply.Urgency,
		Language:    reply.Language,
		RawResponse: raw,
		AnalyzedAt:  time.Now(),
	}
	if err := d.analytics.SaveEmailAnalytics(row); err != nil {
		return nil, err
	}
	if err := d.emails.UpdateStatus(email.ID, emaildomain.StatusCompleted); err != nil {
		log.Printf("[Analysis] Failed to mark email %s completed: %v", email.ID, err)
	}
	metrics.RecordAnalysis(analysisdomain.KindEmailClassification, "ok")
	return row, nil
}

// AnalyzeCustomer builds an intelligence profile from the customer's recent
// emails and invoices.
func (d *Dispatcher) AnalyzeCustomer(ctx context.Context, customerID string) (*analysisdomain.CustomerIntelligence, error) {
	customer, err := d.mirror.FindCustomerByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("customer %s not found", customerID)
	}

	emails, err := d.emails.ListRecentByAddress(customer.Email, emailHistoryLimit)
	if err != nil {
		return nil, err
	}
	invoices, err := d.mirror.ListInvoicesByCustomer(customer.TeamleaderID, invoiceHistoryLimit)
	if err != nil {
		return nil, err
	}

	raw, err := d.model.Complete(ctx, customerIntelligencePrompt(customer, emails, invoices), completionMaxTokens)
	if err != nil {
		metrics.RecordAnalysis(analysisdomain.KindCustomerIntelligence, "error")
		return nil, err
	}

	var reply customerIntelligenceReply
	if err := parseReply(analysisdomain.KindCustomerIntelligence, raw, &reply); err != nil {
		metrics.RecordAnalysis(analysisdomain.KindCustomerIntelligence, "invalid")
		return nil, err
	}

	row := &analysisdomain.CustomerIntelligence{
		ID:          uuid.New().String(),
		CustomerID:  customer.ID,
		Segment:     reply.Segment,
		ChurnRisk:   reply.ChurnRisk,
		Summary:     reply.Summary,
		RawResponse: raw,
		AnalyzedAt:  time.Now(),
	}
	if err := d.analytics.SaveCustomerIntelligence(row); err != nil {
		return nil, err
	}
	metrics.RecordAnalysis(analysisdomain.KindCustomerIntelligence, "ok")
	return row, nil
}

// EstimatePrice suggests a price for a deal anchored on the same customer's
// past deals.
func (d *Dispatcher) EstimatePrice(ctx context.Context, dealID string) (*analysisdomain.PriceEstimate, error) {
	deal, err := d.mirror.FindDealByID(dealID)
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, fmt.Errorf("deal %s not found", dealID)
	}

	history, err := d.mirror.ListDealsByCustomer(deal.CustomerTLID, dealHistoryLimit)
	if err != nil {
		return nil, err
	}

	raw, err := d.model.Complete(ctx, priceEstimationPrompt(deal, history), completionMaxTokens)
	if err != nil {
		metrics.RecordAnalysis(analysisdomain.KindPriceEstimation, "error")
		return nil, err
	}

	var reply priceEstimationReply
	if err := parseReply(analysisdomain.KindPriceEstimation, raw, &reply); err != nil {
		metrics.RecordAnalysis(analysisdomain.KindPriceEstimation, "invalid")
		return nil, err
	}

	row := &analysisdomain.PriceEstimate{
		ID:              uuid.New().String(),
		DealID:          deal.ID,
		SuggestedAmount: reply.SuggestedAmount,
		Currency:        reply.Currency,
		Confidence:      reply.Confidence,
		Reasoning:       reply.Reasoning,
		RawResponse:     raw,
		AnalyzedAt:      time.Now(),
	}
	if err := d.analytics.SavePriceEstimate(row); err != nil {
		return nil, err
	}
	metrics.RecordAnalysis(analysisdomain.KindPriceEstimation, "ok")
	return row, nil
}

// PredictSales forecasts a customer's revenue from their deal and invoice
// history.
func (d *Dispatcher) PredictSales(ctx context.Context, customerID string) (*analysisdomain.SalesPrediction, error) {
	customer, err := d.mirror.FindCustomerByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("customer %s not found", customerID)
	}

	deals, err := d.mirror.ListDealsByCustomer(customer.TeamleaderID, dealHistoryLimit)
	if err != nil {
		return nil, err
	}
	invoices, err := d.mirror.ListInvoicesByCustomer(customer.TeamleaderID, invoiceHistoryLimit)
	if err != nil {
		return nil, err
	}

	raw, err := d.model.Complete(ctx, salesPredictionPrompt(customer, deals, invoices), completionMaxTokens)
	if err != nil {
		metrics.RecordAnalysis(analysisdomain.KindSalesPrediction, "error")
		return nil, err
	}

	var reply salesPredictionReply
	if err := parseReply(analysisdomain.KindSalesPrediction, raw, &reply); err != nil {
		metrics.RecordAnalysis(analysisdomain.KindSalesPrediction, "invalid")
		return nil, err
	}

	row := &analysisdomain.SalesPrediction{
		ID:              uuid.New().String(),
		CustomerID:      customer.ID,
		ExpectedRevenue: reply.ExpectedRevenue,
		Likelihood:      reply.Likelihood,
		Horizon:         reply.Horizon,
		RawResponse:     raw,
		AnalyzedAt:      time.Now(),
	}
	if err := d.analytics.SaveSalesPrediction(row); err != nil {
		return nil, err
	}
	metrics.RecordAnalysis(analysisdomain.KindSalesPrediction, "ok")
	return row, nil
}
