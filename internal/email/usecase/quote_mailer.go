package usecase

import (
	"context"
	"log"

	conndomain "github.com/containersuper/bct-crm/internal/connection/domain"
	connrepo "github.com/containersuper/bct-crm/internal/connection/repository"
	"github.com/containersuper/bct-crm/pkg/apperr"
	"github.com/containersuper/bct-crm/pkg/gmailapi"
	"github.com/containersuper/bct-crm/pkg/mailer"
	"github.com/containersuper/bct-crm/pkg/metrics"
	"github.com/containersuper/bct-crm/pkg/quota"

	"golang.org/x/oauth2"
)

// GmailSendClient is the slice of the Gmail wrapper the outbound path needs.
type GmailSendClient interface {
	SendMessage(ctx context.Context, accessToken, refreshToken, to, subject, body string, onTokenRefresh gmailapi.TokenUpdateFunc) (string, error)
}

// SMTPFallback sends a quote over SMTP when no Gmail connection is available.
type SMTPFallback interface {
	SendQuote(to string, data mailer.QuoteEmailData) error
}

// QuoteMailer sends quotation emails through the user's connected Gmail
// account so they land in the account's sent folder, metering send units
// against the shared quota budget. Users without an active Gmail connection
// fall back to the SMTP relay.
type QuoteMailer struct {
	gmail GmailSendClient
	smtp  SMTPFallback
	conns connrepo.ConnectionRepository
	meter *quota.Meter
}

func NewQuoteMailer(gmail GmailSendClient, smtp SMTPFallback, conns connrepo.ConnectionRepository, meter *quota.Meter) *QuoteMailer {
	return &QuoteMailer{gmail: gmail, smtp: smtp, conns: conns, meter: meter}
}

func (q *QuoteMailer) SendQuote(ctx context.Context, userID, to string, data mailer.QuoteEmailData) error {
	conn, err := q.conns.FindActive(userID, conndomain.ProviderGmail)
	if err != nil {
		return err
	}
	if conn == nil {
		return q.smtp.SendQuote(to, data)
	}

	subject, body, err := mailer.RenderQuote(data)
	if err != nil {
		return err
	}

	// Sends are the most expensive call kind; a refused spend means the
	// quote goes out later, not over budget.
	if err := q.meter.Spend(quota.UnitSend); err != nil {
		return err
	}

	onRefresh := func(t *oauth2.Token) error {
		return q.conns.UpdateTokens(conn.ID, t.AccessToken, t.RefreshToken, t.Expiry)
	}

	messageID, err := q.gmail.SendMessage(ctx, conn.AccessToken, conn.RefreshToken, to, subject, body, onRefresh)
	if err != nil {
		metrics.RecordProviderError("gmail")
		return &apperr.ProviderAPIError{Provider: "gmail", Body: err.Error()}
	}

	log.Printf("[QuoteMailer] quote %s sent to %s as gmail message %s (quota remaining: %d)",
		data.QuoteNumber, to, messageID, q.meter.Remaining())
	return nil
}
