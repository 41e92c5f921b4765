package usecase

import (
	"encoding/json"
	"time"

	crmdomain "github.com/containersuper/bct-crm/internal/crm/domain"
	"github.com/containersuper/bct-crm/pkg/apperr"
)

// Raw TeamLeader record shapes, reduced to the fields we mirror.

type rawEmail struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}

type rawPhone struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type rawMoney struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type rawRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func firstEmail(emails []rawEmail) string {
	for _, e := range emails {
		if e.Type == "primary" {
			return e.Email
		}
	}
	if len(emails) > 0 {
		return emails[0].Email
	}
	return ""
}

func firstPhone(phones []rawPhone) string {
	if len(phones) > 0 {
		return phones[0].Number
	}
	return ""
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func mapContact(raw json.RawMessage, userID string, now time.Time) (*crmdomain.Customer, error) {
	var rec struct {
		ID         string     `json:"id"`
		FirstName  string     `json:"first_name"`
		LastName   string     `json:"last_name"`
		Emails     []rawEmail `json:"emails"`
		Telephones []rawPhone `json:"telephones"`
		Language   string     `json:"language"`
		Company    *struct {
			Name string `json:"name"`
		} `json:"company"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityContacts, Field: "body"}
	}
	if rec.ID == "" {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityContacts, Field: "id"}
	}
	if rec.FirstName == "" && rec.LastName == "" {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityContacts, ExternalID: rec.ID, Field: "name"}
	}

	c := &crmdomain.Customer{
		TeamleaderID: rec.ID,
		UserID:       userID,
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		Email:        firstEmail(rec.Emails),
		Phone:        firstPhone(rec.Telephones),
		Language:     rec.Language,
		SyncedAt:     now,
	}
	if rec.Company != nil {
		c.CompanyName = rec.Company.Name
	}
	return c, nil
}

func mapCompany(raw json.RawMessage, userID string, now time.Time) (*crmdomain.Company, error) {
	var rec struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		VATNumber string     `json:"vat_number"`
		Emails    []rawEmail `json:"emails"`
		Website   string     `json:"website"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityCompanies, Field: "body"}
	}
	if rec.ID == "" {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityCompanies, Field: "id"}
	}
	if rec.Name == "" {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityCompanies, ExternalID: rec.ID, Field: "name"}
	}

	return &crmdomain.Company{
		TeamleaderID: rec.ID,
		UserID:       userID,
		Name:         rec.Name,
		VATNumber:    rec.VATNumber,
		Email:        firstEmail(rec.Emails),
		Website:      rec.Website,
		SyncedAt:     now,
	}, nil
}

func mapDeal(raw json.RawMessage, userID string, now time.Time) (*crmdomain.Deal, error) {
	var rec struct {
		ID             string    `json:"id"`
		Title          string    `json:"title"`
		Status         string    `json:"status"`
		EstimatedValue *rawMoney `json:"estimated_value"`
		CurrentPhase   *rawRef   `json:"current_phase"`
		Lead           *struct {
			Customer *rawRef `json:"customer"`
		} `json:"lead"`
		EstimatedClosingDate string `json:"estimated_closing_date"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityDeals, Field: "body"}
	}
	if rec.ID == "" {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityDeals, Field: "id"}
	}
	if rec.Title == "" {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityDeals, ExternalID: rec.ID, Field: "title"}
	}

	d := &crmdomain.Deal{
		TeamleaderID:    rec.ID,
		UserID:          userID,
		Title:           rec.Title,
		Status:          rec.Status,
		ExpectedCloseAt: parseDate(rec.EstimatedClosingDate),
		SyncedAt:        now,
	}
	if rec.EstimatedValue != nil {
		d.Value = rec.EstimatedValue.Amount
		d.Currency = rec.EstimatedValue.Currency
	}
	if rec.CurrentPhase != nil {
		d.Phase = rec.CurrentPhase.ID
	}
	if rec.Lead != nil && rec.Lead.Customer != nil {
		d.CustomerTLID = rec.Lead.Customer.ID
	}
	return d, nil
}

func mapInvoice(raw json.RawMessage, userID string, now time.Time) (*crmdomain.Invoice, error) {
	var rec struct {
		ID            string `json:"id"`
		InvoiceNumber string `json:"invoice_number"`
		Status        string `json:"status"`
		Total         *struct {
			TaxInclusive *rawMoney `json:"tax_inclusive"`
		} `json:"total"`
		Invoicee *struct {
			Customer *rawRef `json:"customer"`
		} `json:"invoicee"`
		DueOn string `json:"due_on"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityInvoices, Field: "body"}
	}
	if rec.ID == "" {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityInvoices, Field: "id"}
	}

	inv := &crmdomain.Invoice{
		TeamleaderID: rec.ID,
		UserID:       userID,
		Number:       rec.InvoiceNumber,
		Status:       rec.Status,
		DueOn:        parseDate(rec.DueOn),
		SyncedAt:     now,
	}
	if rec.Total != nil && rec.Total.TaxInclusive != nil {
		inv.Total = rec.Total.TaxInclusive.Amount
		inv.Currency = rec.Total.TaxInclusive.Currency
	}
	if rec.Invoicee != nil && rec.Invoicee.Customer != nil {
		inv.CustomerTLID = rec.Invoicee.Customer.ID
	}
	return inv, nil
}

func mapQuotation(raw json.RawMessage, userID string, now time.Time) (*crmdomain.Quote, error) {
	var rec struct {
		ID     string `json:"id"`
		Number string `json:"number"`
		Status string `json:"status"`
		Total  *struct {
			TaxInclusive *rawMoney `json:"tax_inclusive"`
		} `json:"total"`
		Deal       *rawRef `json:"deal"`
		ValidUntil string  `json:"valid_until"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityQuotations, Field: "body"}
	}
	if rec.ID == "" {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityQuotations, Field: "id"}
	}

	q := &crmdomain.Quote{
		TeamleaderID: rec.ID,
		UserID:       userID,
		Number:       rec.Number,
		Status:       rec.Status,
		ValidUntil:   parseDate(rec.ValidUntil),
		SyncedAt:     now,
	}
	if rec.Total != nil && rec.Total.TaxInclusive != nil {
		q.Total = rec.Total.TaxInclusive.Amount
		q.Currency = rec.Total.TaxInclusive.Currency
	}
	if rec.Deal != nil {
		q.DealTLID = rec.Deal.ID
	}
	return q, nil
}

func mapProject(raw json.RawMessage, userID string, now time.Time) (*crmdomain.Project, error) {
	var rec struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Status   string `json:"status"`
		StartsOn string `json:"starts_on"`
		DueOn    string `json:"due_on"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityProjects, Field: "body"}
	}
	if rec.ID == "" {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityProjects, Field: "id"}
	}
	if rec.Title == "" {
		return nil, &apperr.MappingError{Entity: crmdomain.EntityProjects, ExternalID: rec.ID, Field: "title"}
	}

	return &crmdomain.Project{
		TeamleaderID: rec.ID,
		UserID:       userID,
		Title:        rec.Title,
		Status:       rec.Status,
		StartsOn:     parseDate(rec.StartsOn),
		DueOn:        parseDate(rec.DueOn),
		SyncedAt:     now,
	}, nil
}
