package delivery

import (
	"context"
	"net/http"

	"github.com/containersuper/bct-crm/internal/crm/repository"
	"github.com/containersuper/bct-crm/pkg/mailer"

	"github.com/gin-gonic/gin"
)

// QuoteSender sends one rendered quotation email on behalf of a user.
type QuoteSender interface {
	SendQuote(ctx context.Context, userID, to string, data mailer.QuoteEmailData) error
}

type CRMHandler struct {
	repo   repository.MirrorRepository
	sender QuoteSender
	brand  string
}

func NewCRMHandler(repo repository.MirrorRepository, sender QuoteSender, defaultBrand string) *CRMHandler {
	return &CRMHandler{repo: repo, sender: sender, brand: defaultBrand}
}

type sendQuoteRequest struct {
	// Optional override; defaults to the customer's mirrored address.
	To    string `json:"to"`
	Brand string `json:"brand"`
}

// SendQuote loads a mirrored quotation, resolves the customer address through
// the deal and emails the quote.
func (h *CRMHandler) SendQuote(c *gin.Context) {
	quoteID := c.Param("id")

	var req sendQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	quote, err := h.repo.FindQuoteByID(quoteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if quote == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "quote not found"})
		return
	}

	to := req.To
	customerName := ""
	if quote.DealTLID != "" {
		deal, err := h.repo.FindDealByTeamleaderID(quote.DealTLID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		if deal != nil && deal.CustomerTLID != "" {
			customer, err := h.repo.FindCustomerByTeamleaderID(deal.CustomerTLID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
				return
			}
			if customer != nil {
				customerName = customer.FirstName + " " + customer.LastName
				if to == "" {
					to = customer.Email
				}
			}
		}
	}

	if to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no recipient address for quote"})
		return
	}

	brand := req.Brand
	if brand == "" {
		brand = h.brand
	}

	data := mailer.QuoteEmailData{
		CustomerName: customerName,
		QuoteNumber:  quote.Number,
		Brand:        brand,
		Total:        quote.Total,
		Currency:     quote.Currency,
	}
	if quote.ValidUntil != nil {
		data.ValidUntil = quote.ValidUntil.Format("2006-01-02")
	}

	if err := h.sender.SendQuote(c.Request.Context(), quote.UserID, to, data); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "sent_to": to})
}
