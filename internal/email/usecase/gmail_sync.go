package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	conndomain "github.com/containersuper/bct-crm/internal/connection/domain"
	connrepo "github.com/containersuper/bct-crm/internal/connection/repository"
	emaildomain "github.com/containersuper/bct-crm/internal/email/domain"
	"github.com/containersuper/bct-crm/internal/email/repository"
	"github.com/containersuper/bct-crm/pkg/apperr"
	"github.com/containersuper/bct-crm/pkg/brand"
	"github.com/containersuper/bct-crm/pkg/gmailapi"
	"github.com/containersuper/bct-crm/pkg/metrics"
	"github.com/containersuper/bct-crm/pkg/quota"

	"golang.org/x/oauth2"
)

// GmailClient is the slice of the Gmail wrapper the syncer needs.
type GmailClient interface {
	ListMessages(ctx context.Context, accessToken, refreshToken, query, pageToken string, maxResults int64, onTokenRefresh gmailapi.TokenUpdateFunc) (*gmailapi.MessagePage, error)
	GetMessage(ctx context.Context, accessToken, refreshToken, messageID string, onTokenRefresh gmailapi.TokenUpdateFunc) (*gmailapi.Message, error)
}

// SyncResult summarizes one Gmail sync run.
type SyncResult struct {
	Imported      int    `json:"imported"`
	QuotaUsed     int    `json:"quota_used"`
	NextPageToken string `json:"next_page_token,omitempty"`
	// Complete is false when the run soft-stopped on quota or the batch
	// ceiling with pages remaining.
	Complete bool `json:"complete"`
}

type GmailSyncer struct {
	gmail    GmailClient
	emails   repository.EmailRepository
	conns    connrepo.ConnectionRepository
	brands   *brand.Table
	limiter  *quota.Limiter
	pageSize int64
}

func NewGmailSyncer(gmail GmailClient, emails repository.EmailRepository, conns connrepo.ConnectionRepository, brands *brand.Table, limiter *quota.Limiter, pageSize int64) *GmailSyncer {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &GmailSyncer{
		gmail:    gmail,
		emails:   emails,
		conns:    conns,
		brands:   brands,
		limiter:  limiter,
		pageSize: pageSize,
	}
}

// SyncMessages pages through messages matching query, fetches details and
// upserts them. It stops at maxBatches pages or when the meter soft-stops,
// returning the cursor so a later invocation can resume.
func (s *GmailSyncer) SyncMessages(ctx context.Context, conn *conndomain.Connection, query, pageToken string, maxBatches int, meter *quota.Meter) (*SyncResult, error) {
	if maxBatches <= 0 {
		maxBatches = 20
	}

	// Persist rotated tokens so the stored connection stays usable.
	onRefresh := func(t *oauth2.Token) error {
		conn.AccessToken = t.AccessToken
		conn.ExpiresAt = t.Expiry
		return s.conns.UpdateTokens(conn.ID, t.AccessToken, t.RefreshToken, t.Expiry)
	}

	result := &SyncResult{NextPageToken: pageToken}

	for batch := 0; batch < maxBatches; batch++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return result, err
		}
		if err := meter.Spend(quota.UnitList); err != nil {
			return result, err
		}
		result.QuotaUsed += quota.UnitList

		page, err := s.gmail.ListMessages(ctx, conn.AccessToken, conn.RefreshToken, query, result.NextPageToken, s.pageSize, onRefresh)
		if err != nil {
			metrics.RecordProviderError("gmail")
			return result, &apperr.ProviderAPIError{Provider: "gmail", Body: err.Error()}
		}
		metrics.RecordSyncBatch("gmail", "messages")

		if len(page.IDs) == 0 {
			result.NextPageToken = ""
			result.Complete = true
			break
		}

		rows := make([]emaildomain.EmailHistory, 0, len(page.IDs))
		for _, id := range page.IDs {
			if err := meter.Spend(quota.UnitGet); err != nil {
				// Soft stop mid-page: keep what we mapped so far and leave the
				// cursor on this page for the next invocation.
				if upsertErr := s.upsert(rows, result); upsertErr != nil {
					return result, upsertErr
				}
				return result, err
			}
			result.QuotaUsed += quota.UnitGet

			msg, err := s.gmail.GetMessage(ctx, conn.AccessToken, conn.RefreshToken, id, onRefresh)
			if err != nil {
				metrics.RecordProviderError("gmail")
				log.Printf("[GmailSync] Skipping message %s: %v", id, err)
				continue
			}
			rows = append(rows, s.toHistory(conn, msg))
		}

		if err := s.upsert(rows, result); err != nil {
			return result, err
		}

		result.NextPageToken = page.NextPageToken
		if page.NextPageToken == "" {
			result.Complete = true
			break
		}
	}

	metrics.RecordQuotaSpend("gmail", result.QuotaUsed)
	return result, nil
}

func (s *GmailSyncer) upsert(rows []emaildomain.EmailHistory, result *SyncResult) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.emails.UpsertBatch(rows); err != nil {
		return fmt.Errorf("upsert email batch: %w", err)
	}
	result.Imported += len(rows)
	metrics.RecordUpserts("emails", len(rows))
	return nil
}

func (s *GmailSyncer) toHistory(conn *conndomain.Connection, msg *gmailapi.Message) emaildomain.EmailHistory {
	direction := emaildomain.DirectionIncoming
	if msg.IsOutgoing() {
		direction = emaildomain.DirectionOutgoing
	}

	return emaildomain.EmailHistory{
		UserID:     conn.UserID,
		ExternalID: msg.ExternalID,
		ThreadID:   msg.ThreadID,
		Direction:  direction,
		Brand:      s.brands.Detect(msg.From, msg.To, msg.Subject),
		Subject:    msg.Subject,
		FromAddr:   msg.From,
		ToAddr:     msg.To,
		Snippet:    msg.Snippet,
		Body:       msg.Body,
		SentAt:     msg.SentAt,
	}
}

// IncrementalQuery builds the Gmail search query for messages newer than the
// connection's last successful sync.
func IncrementalQuery(conn *conndomain.Connection) string {
	if conn.LastSyncAt == nil {
		return ""
	}
	return fmt.Sprintf("after:%d", conn.LastSyncAt.Unix())
}

// RangeQuery builds the Gmail search query for one backfill window.
func RangeQuery(from, to time.Time) string {
	return fmt.Sprintf("after:%d before:%d", from.Unix(), to.Unix())
}
