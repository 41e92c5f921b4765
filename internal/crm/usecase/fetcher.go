package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	conndomain "github.com/containersuper/bct-crm/internal/connection/domain"
	crmdomain "github.com/containersuper/bct-crm/internal/crm/domain"
	"github.com/containersuper/bct-crm/internal/crm/repository"
	"github.com/containersuper/bct-crm/pkg/apperr"
	"github.com/containersuper/bct-crm/pkg/metrics"
	"github.com/containersuper/bct-crm/pkg/teamleader"
)

// ListClient is the slice of the TeamLeader client the fetcher needs.
type ListClient interface {
	List(ctx context.Context, accessToken, endpoint string, page, size int, updatedSince, updatedBefore *time.Time) (*teamleader.ListResponse, error)
}

// SkippedRecord identifies one fetched record that failed mapping and was
// left out of the batch.
type SkippedRecord struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// FetchResult summarizes one page fetch.
type FetchResult struct {
	Imported int             `json:"imported"`
	Skipped  []SkippedRecord `json:"skipped,omitempty"`
	HasMore  bool            `json:"has_more"`
	NextPage int             `json:"next_page"`
}

// Fetcher pulls one page of a TeamLeader entity list, maps each record and
// upserts the batch. A record that fails mapping is skipped and reported, not
// fatal to the batch.
type Fetcher struct {
	client ListClient
	repo   repository.MirrorRepository
}

func NewFetcher(client ListClient, repo repository.MirrorRepository) *Fetcher {
	return &Fetcher{client: client, repo: repo}
}

func (f *Fetcher) FetchPage(ctx context.Context, conn *conndomain.Connection, entityType string, page, size int, updatedSince, updatedBefore *time.Time) (*FetchResult, error) {
	if !knownEntity(entityType) {
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
	endpoint := entityType + ".list"

	list, err := f.client.List(ctx, conn.AccessToken, endpoint, page, size, updatedSince, updatedBefore)
	if err != nil {
		metrics.RecordProviderError("teamleader")
		return nil, err
	}
	metrics.RecordSyncBatch("teamleader", entityType)

	result := &FetchResult{
		HasMore:  list.HasMore(),
		NextPage: page + 1,
	}

	now := time.Now()
	switch entityType {
	case crmdomain.EntityContacts:
		rows := make([]crmdomain.Customer, 0, len(list.Data))
		for _, raw := range list.Data {
			row, mapErr := mapContact(raw, conn.UserID, now)
			if mapErr != nil {
				result.Skipped = append(result.Skipped, skipped(mapErr))
				continue
			}
			rows = append(rows, *row)
		}
		err = f.repo.UpsertCustomers(rows)
		result.Imported = len(rows)
	case crmdomain.EntityCompanies:
		rows := make([]crmdomain.Company, 0, len(list.Data))
		for _, raw := range list.Data {
			row, mapErr := mapCompany(raw, conn.UserID, now)
			if mapErr != nil {
				result.Skipped = append(result.Skipped, skipped(mapErr))
				continue
			}
			rows = append(rows, *row)
		}
		err = f.repo.UpsertCompanies(rows)
		result.Imported = len(rows)
	case crmdomain.EntityDeals:
		rows := make([]crmdomain.Deal, 0, len(list.Data))
		for _, raw := range list.Data {
			row, mapErr := mapDeal(raw, conn.UserID, now)
			if mapErr != nil {
				result.Skipped = append(result.Skipped, skipped(mapErr))
				continue
			}
			rows = append(rows, *row)
		}
		err = f.repo.UpsertDeals(rows)
		result.Imported = len(rows)
	case crmdomain.EntityInvoices:
		rows := make([]crmdomain.Invoice, 0, len(list.Data))
		for _, raw := range list.Data {
			row, mapErr := mapInvoice(raw, conn.UserID, now)
			if mapErr != nil {
				result.Skipped = append(result.Skipped, skipped(mapErr))
				continue
			}
			rows = append(rows, *row)
		}
		err = f.repo.UpsertInvoices(rows)
		result.Imported = len(rows)
	case crmdomain.EntityQuotations:
		rows := make([]crmdomain.Quote, 0, len(list.Data))
		for _, raw := range list.Data {
			row, mapErr := mapQuotation(raw, conn.UserID, now)
			if mapErr != nil {
				result.Skipped = append(result.Skipped, skipped(mapErr))
				continue
			}
			rows = append(rows, *row)
		}
		err = f.repo.UpsertQuotes(rows)
		result.Imported = len(rows)
	case crmdomain.EntityProjects:
		rows := make([]crmdomain.Project, 0, len(list.Data))
		for _, raw := range list.Data {
			row, mapErr := mapProject(raw, conn.UserID, now)
			if mapErr != nil {
				result.Skipped = append(result.Skipped, skipped(mapErr))
				continue
			}
			rows = append(rows, *row)
		}
		err = f.repo.UpsertProjects(rows)
		result.Imported = len(rows)
	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}

	if err != nil {
		return nil, fmt.Errorf("upsert %s batch: %w", entityType, err)
	}

	if len(result.Skipped) > 0 {
		log.Printf("[Fetcher] %s page %d: imported %d, skipped %d", entityType, page, result.Imported, len(result.Skipped))
	}
	metrics.RecordUpserts(entityType, result.Imported)
	return result, nil
}

func knownEntity(entityType string) bool {
	for _, e := range crmdomain.AllEntities() {
		if e == entityType {
			return true
		}
	}
	return false
}

func skipped(err error) SkippedRecord {
	rec := SkippedRecord{Reason: err.Error()}
	if mapErr, ok := err.(*apperr.MappingError); ok {
		rec.ID = mapErr.ExternalID
	}
	return rec
}
