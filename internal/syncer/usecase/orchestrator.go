package usecase

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	conndomain "github.com/containersuper/bct-crm/internal/connection/domain"
	connrepo "github.com/containersuper/bct-crm/internal/connection/repository"
	connusecase "github.com/containersuper/bct-crm/internal/connection/usecase"
	crmdomain "github.com/containersuper/bct-crm/internal/crm/domain"
	crmusecase "github.com/containersuper/bct-crm/internal/crm/usecase"
	emailusecase "github.com/containersuper/bct-crm/internal/email/usecase"
	syncerdomain "github.com/containersuper/bct-crm/internal/syncer/domain"
	"github.com/containersuper/bct-crm/internal/syncer/repository"
	"github.com/containersuper/bct-crm/pkg/apperr"
	"github.com/containersuper/bct-crm/pkg/quota"
)

const lockTTL = 30 * time.Minute

// CRMFetcher is the paginated TeamLeader fetch path.
type CRMFetcher interface {
	FetchPage(ctx context.Context, conn *conndomain.Connection, entityType string, page, size int, updatedSince, updatedBefore *time.Time) (*crmusecase.FetchResult, error)
}

// MailSyncer is the paginated Gmail fetch path.
type MailSyncer interface {
	SyncMessages(ctx context.Context, conn *conndomain.Connection, query, pageToken string, maxBatches int, meter *quota.Meter) (*emailusecase.SyncResult, error)
}

type Options struct {
	PageSize       int
	MaxBatches     int
	ErrorThreshold int
	QuotaLimit     int
}

func (o *Options) fill() {
	if o.PageSize <= 0 {
		o.PageSize = 50
	}
	if o.MaxBatches <= 0 {
		o.MaxBatches = 20
	}
	if o.ErrorThreshold <= 0 {
		o.ErrorThreshold = 5
	}
}

// Orchestrator is the sync entry point used by the scheduler and the HTTP
// surface. Incremental runs cover every due connection; backfills cover one
// explicit date range split into monthly windows.
type Orchestrator struct {
	conns     connrepo.ConnectionRepository
	refresher connusecase.TokenRefresher
	fetcher   CRMFetcher
	mail      MailSyncer
	progress  repository.ProgressRepository
	locker    SyncLocker
	opts      Options
}

func NewOrchestrator(
	conns connrepo.ConnectionRepository,
	refresher connusecase.TokenRefresher,
	fetcher CRMFetcher,
	mail MailSyncer,
	progress repository.ProgressRepository,
	locker SyncLocker,
	opts Options,
) *Orchestrator {
	opts.fill()
	if locker == nil {
		locker = NewNoopLocker()
	}
	return &Orchestrator{
		conns:     conns,
		refresher: refresher,
		fetcher:   fetcher,
		mail:      mail,
		progress:  progress,
		locker:    locker,
		opts:      opts,
	}
}

// IncrementalSummary aggregates one incremental pass over all connections.
type IncrementalSummary struct {
	Synced   int `json:"synced"`
	Errored  int `json:"errored"`
	Skipped  int `json:"skipped"`
	Imported int `json:"imported"`
}

// RunIncremental syncs every active connection whose error backlog is below
// the threshold. A failing connection is recorded and the pass continues.
func (o *Orchestrator) RunIncremental(ctx context.Context) (*IncrementalSummary, error) {
	conns, err := o.conns.FindDue(o.opts.ErrorThreshold)
	if err != nil {
		return nil, fmt.Errorf("find due connections: %w", err)
	}

	summary := &IncrementalSummary{}
	for _, conn := range conns {
		imported, err := o.syncConnection(ctx, conn)
		if err != nil {
			log.Printf("[Orchestrator] Incremental sync failed for connection %s (%s): %v", conn.ID, conn.Provider, err)
			summary.Errored++
			if recErr := o.conns.RecordSyncFailure(conn.ID, o.opts.ErrorThreshold); recErr != nil {
				log.Printf("[Orchestrator] Failed to record sync failure: %v", recErr)
			}
			continue
		}
		summary.Synced++
		summary.Imported += imported
	}

	log.Printf("[Orchestrator] Incremental pass done: %d synced, %d errored, %d skipped", summary.Synced, summary.Errored, summary.Skipped)
	return summary, nil
}

// RunIncrementalForUser syncs only the given user's connections.
func (o *Orchestrator) RunIncrementalForUser(ctx context.Context, userID string) (*IncrementalSummary, error) {
	summary := &IncrementalSummary{}
	for _, provider := range []string{conndomain.ProviderTeamleader, conndomain.ProviderGmail} {
		conn, err := o.conns.FindActive(userID, provider)
		if err != nil {
			return nil, err
		}
		if conn == nil || conn.SyncErrorCount >= o.opts.ErrorThreshold {
			summary.Skipped++
			continue
		}

		imported, err := o.syncConnection(ctx, conn)
		if err != nil {
			summary.Errored++
			if recErr := o.conns.RecordSyncFailure(conn.ID, o.opts.ErrorThreshold); recErr != nil {
				log.Printf("[Orchestrator] Failed to record sync failure: %v", recErr)
			}
			continue
		}
		summary.Synced++
		summary.Imported += imported
	}
	return summary, nil
}

// syncConnection refreshes the token when due, then fetches everything
// updated since the last successful sync. The sync timestamp advances on
// every successful run, also when nothing new came back.
func (o *Orchestrator) syncConnection(ctx context.Context, conn *conndomain.Connection) (int, error) {
	syncStart := time.Now()

	conn, err := o.refresher.EnsureFresh(ctx, conn)
	if err != nil {
		return 0, err
	}

	imported := 0
	switch conn.Provider {
	case conndomain.ProviderTeamleader:
		for _, entity := range crmdomain.AllEntities() {
			n, err := o.fetchAllPages(ctx, conn, entity, conn.LastSyncAt, nil, nil)
			if err != nil {
				return imported, err
			}
			imported += n
		}
	case conndomain.ProviderGmail:
		meter := quota.NewMeter(o.opts.QuotaLimit)
		result, err := o.mail.SyncMessages(ctx, conn, emailusecase.IncrementalQuery(conn), "", o.opts.MaxBatches, meter)
		if err != nil && !apperr.IsQuotaExceeded(err) {
			return imported, err
		}
		imported += result.Imported
	default:
		return 0, fmt.Errorf("unknown provider %q", conn.Provider)
	}

	if err := o.conns.RecordSyncSuccess(conn.ID, syncStart); err != nil {
		return imported, err
	}
	return imported, nil
}

// fetchAllPages pages through one entity list until the provider reports no
// more pages or the batch ceiling is reached. When meter is non-nil each list
// call spends one unit and quota exhaustion surfaces as QuotaExceededError.
func (o *Orchestrator) fetchAllPages(ctx context.Context, conn *conndomain.Connection, entity string, since, before *time.Time, meter *quota.Meter) (int, error) {
	imported := 0
	page := 1
	for batch := 0; batch < o.opts.MaxBatches; batch++ {
		if meter != nil {
			if err := meter.Spend(quota.UnitList); err != nil {
				return imported, err
			}
		}

		result, err := o.fetcher.FetchPage(ctx, conn, entity, page, o.opts.PageSize, since, before)
		if err != nil {
			return imported, err
		}
		imported += result.Imported
		if !result.HasMore {
			break
		}
		page = result.NextPage
	}
	return imported, nil
}

// BackfillSummary aggregates one backfill run over its monthly windows.
type BackfillSummary struct {
	ImportType string `json:"import_type"`
	Ranges     int    `json:"ranges"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	Imported   int    `json:"imported"`
	QuotaUsed  int    `json:"quota_used"`
	// Stopped is set when the quota ceiling was reached with windows left;
	// a later invocation resumes from the stored cursors.
	Stopped bool `json:"stopped"`
}

// RunBackfill imports one entity type over [from, to), split into monthly
// windows. Windows already completed are skipped; a window failure is
// recorded and the run continues with the next window.
func (o *Orchestrator) RunBackfill(ctx context.Context, userID, entityType string, from, to time.Time) (*BackfillSummary, error) {
	isGmail := entityType == "gmail"

	importType := syncerdomain.ImportTypeGmail
	provider := conndomain.ProviderGmail
	if !isGmail {
		importType = syncerdomain.ImportTypeTeamleader(entityType)
		provider = conndomain.ProviderTeamleader
	}

	lockKey := userID + ":" + importType
	acquired, err := o.locker.Acquire(ctx, lockKey, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("backfill %s already running for user %s", importType, userID)
	}
	defer func() {
		if err := o.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			log.Printf("[Orchestrator] Failed to release sync lock %s: %v", lockKey, err)
		}
	}()

	conn, err := o.conns.FindActive(userID, provider)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, &apperr.AuthError{Provider: provider, Reason: "no active connection"}
	}

	conn, err = o.refresher.EnsureFresh(ctx, conn)
	if err != nil {
		return nil, err
	}

	ranges := syncerdomain.SplitMonthly(from, to)
	summary := &BackfillSummary{ImportType: importType, Ranges: len(ranges)}
	meter := quota.NewMeter(o.opts.QuotaLimit)

	for _, r := range ranges {
		progress, created, err := o.progress.GetOrCreate(userID, importType, r.Key())
		if err != nil {
			return summary, err
		}
		if !created && progress.Status == syncerdomain.StatusCompleted {
			summary.Skipped++
			continue
		}

		var (
			done     bool
			rangeErr error
		)
		if isGmail {
			done, rangeErr = o.backfillGmailRange(ctx, conn, progress, r, meter, summary)
		} else {
			done, rangeErr = o.backfillCRMRange(ctx, conn, entityType, progress, r, meter, summary)
		}

		if rangeErr != nil {
			if apperr.IsQuotaExceeded(rangeErr) {
				// Soft stop: the window stays in_progress and the next
				// invocation resumes it.
				summary.Stopped = true
				break
			}
			log.Printf("[Orchestrator] Backfill range %s failed: %v", r.Key(), rangeErr)
			summary.Failed++
			if failErr := o.progress.Fail(progress.ID, rangeErr.Error()); failErr != nil {
				log.Printf("[Orchestrator] Failed to record range failure: %v", failErr)
			}
			continue
		}

		if !done {
			// Batch ceiling hit with pages left: the window stays in_progress
			// and the next invocation resumes from the stored cursor.
			continue
		}

		summary.Completed++
		if err := o.progress.Complete(progress.ID); err != nil {
			return summary, err
		}
	}

	summary.QuotaUsed = meter.Used()
	return summary, nil
}

// RunGmailImport pages through the user's whole mailbox under a single
// progress row, resuming from the stored page token across invocations.
func (o *Orchestrator) RunGmailImport(ctx context.Context, userID string, maxBatches int) (*BackfillSummary, error) {
	if maxBatches <= 0 || maxBatches > o.opts.MaxBatches {
		maxBatches = o.opts.MaxBatches
	}

	lockKey := userID + ":" + syncerdomain.ImportTypeGmail
	acquired, err := o.locker.Acquire(ctx, lockKey, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("gmail import already running for user %s", userID)
	}
	defer func() {
		if err := o.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			log.Printf("[Orchestrator] Failed to release sync lock %s: %v", lockKey, err)
		}
	}()

	conn, err := o.conns.FindActive(userID, conndomain.ProviderGmail)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, &apperr.AuthError{Provider: conndomain.ProviderGmail, Reason: "no active connection"}
	}

	conn, err = o.refresher.EnsureFresh(ctx, conn)
	if err != nil {
		return nil, err
	}

	summary := &BackfillSummary{ImportType: syncerdomain.ImportTypeGmail, Ranges: 1}

	progress, created, err := o.progress.GetOrCreate(userID, syncerdomain.ImportTypeGmail, "all")
	if err != nil {
		return summary, err
	}
	if !created && progress.Status == syncerdomain.StatusCompleted {
		summary.Skipped++
		return summary, nil
	}

	meter := quota.NewMeter(o.opts.QuotaLimit)
	result, err := o.mail.SyncMessages(ctx, conn, "", progress.Cursor, maxBatches, meter)
	if result != nil {
		summary.Imported += result.Imported
		summary.QuotaUsed = result.QuotaUsed
		if advErr := o.progress.Advance(progress.ID, result.NextPageToken, result.Imported, result.QuotaUsed); advErr != nil {
			return summary, advErr
		}
	}
	if err != nil {
		if apperr.IsQuotaExceeded(err) {
			summary.Stopped = true
			return summary, nil
		}
		if failErr := o.progress.Fail(progress.ID, err.Error()); failErr != nil {
			log.Printf("[Orchestrator] Failed to record import failure: %v", failErr)
		}
		summary.Failed++
		return summary, err
	}

	if result.Complete {
		summary.Completed++
		if err := o.progress.Complete(progress.ID); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (o *Orchestrator) backfillCRMRange(ctx context.Context, conn *conndomain.Connection, entityType string, progress *syncerdomain.ImportProgress, r syncerdomain.DateRange, meter *quota.Meter, summary *BackfillSummary) (bool, error) {
	page := 1
	if progress.Cursor != "" {
		if parsed, err := strconv.Atoi(progress.Cursor); err == nil && parsed > 0 {
			page = parsed
		}
	}

	for batch := 0; batch < o.opts.MaxBatches; batch++ {
		if err := meter.Spend(quota.UnitList); err != nil {
			return false, err
		}

		result, err := o.fetcher.FetchPage(ctx, conn, entityType, page, o.opts.PageSize, &r.From, &r.To)
		if err != nil {
			return false, err
		}

		summary.Imported += result.Imported
		page = result.NextPage
		if err := o.progress.Advance(progress.ID, strconv.Itoa(page), result.Imported, quota.UnitList); err != nil {
			return false, err
		}
		if !result.HasMore {
			return true, nil
		}
	}
	return false, nil
}

func (o *Orchestrator) backfillGmailRange(ctx context.Context, conn *conndomain.Connection, progress *syncerdomain.ImportProgress, r syncerdomain.DateRange, meter *quota.Meter, summary *BackfillSummary) (bool, error) {
	result, err := o.mail.SyncMessages(ctx, conn, emailusecase.RangeQuery(r.From, r.To), progress.Cursor, o.opts.MaxBatches, meter)
	if result != nil {
		summary.Imported += result.Imported
		if advErr := o.progress.Advance(progress.ID, result.NextPageToken, result.Imported, result.QuotaUsed); advErr != nil {
			return false, advErr
		}
	}
	if err != nil {
		return false, err
	}
	return result.Complete, nil
}
