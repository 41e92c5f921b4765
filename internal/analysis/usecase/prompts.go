package usecase

import (
	"fmt"
	"strings"

	crmdomain "github.com/containersuper/bct-crm/internal/crm/domain"
	emaildomain "github.com/containersuper/bct-crm/internal/email/domain"
)

// Bounded history windows embedded in prompts.
const (
	emailHistoryLimit   = 50
	invoiceHistoryLimit = 30
	dealHistoryLimit    = 20
)

// Reply shapes the model is instructed to produce. Parsing is strict: a reply
// that is not exactly this JSON aborts the analysis.

type emailClassificationReply struct {
	Category  string `json:"category"`
	Sentiment string `json:"sentiment"`
	Urgency   string `json:"urgency"`
	Language  string `json:"language"`
}

type customerIntelligenceReply struct {
	Segment   string  `json:"segment"`
	ChurnRisk float64 `json:"churn_risk"`
	Summary   string  `json:"summary"`
}

type priceEstimationReply struct {
	SuggestedAmount float64 `json:"suggested_amount"`
	Currency        string  `json:"currency"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
}

type salesPredictionReply struct {
	ExpectedRevenue float64 `json:"expected_revenue"`
	Likelihood      float64 `json:"likelihood"`
	Horizon         string  `json:"horizon"`
}

const maxPromptBody = 5000

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func emailClassificationPrompt(email *emaildomain.EmailHistory) string {
	return fmt.Sprintf(`You are the email triage assistant of a container trading company.
Classify the email below.

Respond with ONLY a JSON object, no prose, exactly this shape:
{"category": "inquiry|order|complaint|invoice|spam|other", "sentiment": "positive|neutral|negative", "urgency": "low|medium|high", "language": "ISO 639-1 code"}

EMAIL
From: %s
To: %s
Subject: %s

%s`, email.FromAddr, email.ToAddr, email.Subject, truncate(email.Body, maxPromptBody))
}

func customerIntelligencePrompt(customer *crmdomain.Customer, emails []emaildomain.EmailHistory, invoices []crmdomain.Invoice) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are the sales analyst of a container trading company.
Assess the customer below from their email and invoice history.

Respond with ONLY a JSON object, no prose, exactly this shape:
{"segment": "key_account|regular|occasional|at_risk", "churn_risk": 0.0, "summary": "two sentences"}

CUSTOMER: %s %s (%s), company: %s

RECENT EMAILS (newest first):
`, customer.FirstName, customer.LastName, customer.Email, customer.CompanyName)

	for _, e := range emails {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", e.SentAt.Format("2006-01-02"), e.Direction, truncate(e.Subject, 120))
	}

	b.WriteString("\nRECENT INVOICES:\n")
	for _, inv := range invoices {
		fmt.Fprintf(&b, "- %s: %.2f %s (%s)\n", inv.Number, inv.Total, inv.Currency, inv.Status)
	}
	return b.String()
}

func priceEstimationPrompt(deal *crmdomain.Deal, history []crmdomain.Deal) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are the pricing assistant of a container trading company.
Suggest a price for the deal below, using the customer's past deals as anchor.

Respond with ONLY a JSON object, no prose, exactly this shape:
{"suggested_amount": 0.0, "currency": "EUR", "confidence": 0.0, "reasoning": "one sentence"}

DEAL: %s, current estimate %.2f %s, status %s

PAST DEALS OF THIS CUSTOMER:
`, deal.Title, deal.Value, deal.Currency, deal.Status)

	for _, d := range history {
		fmt.Fprintf(&b, "- %s: %.2f %s (%s)\n", d.Title, d.Value, d.Currency, d.Status)
	}
	return b.String()
}

func salesPredictionPrompt(customer *crmdomain.Customer, deals []crmdomain.Deal, invoices []crmdomain.Invoice) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are the forecasting assistant of a container trading company.
Predict the revenue this customer will generate.

Respond with ONLY a JSON object, no prose, exactly this shape:
{"expected_revenue": 0.0, "likelihood": 0.0, "horizon": "quarter|half_year|year"}

CUSTOMER: %s %s, company: %s

DEALS:
`, customer.FirstName, customer.LastName, customer.CompanyName)

	for _, d := range deals {
		fmt.Fprintf(&b, "- %s: %.2f %s (%s)\n", d.Title, d.Value, d.Currency, d.Status)
	}

	b.WriteString("\nINVOICES:\n")
	for _, inv := range invoices {
		fmt.Fprintf(&b, "- %s: %.2f %s (%s)\n", inv.Number, inv.Total, inv.Currency, inv.Status)
	}
	return b.String()
}
