package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/containersuper/bct-crm/internal/syncer/usecase"
)

// SyncScheduler runs the incremental sync pass on a fixed interval, standing
// in for the cron trigger of a hosted deployment.
type SyncScheduler struct {
	orchestrator *usecase.Orchestrator
	interval     time.Duration
	stopChan     chan struct{}
}

func NewSyncScheduler(orchestrator *usecase.Orchestrator, interval time.Duration) *SyncScheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SyncScheduler{
		orchestrator: orchestrator,
		interval:     interval,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *SyncScheduler) Start() {
	log.Printf("[SyncScheduler] Starting incremental sync scheduler (interval: %s)", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runOnce()
			case <-s.stopChan:
				log.Println("[SyncScheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop() {
	close(s.stopChan)
}

func (s *SyncScheduler) runOnce() {
	summary, err := s.orchestrator.RunIncremental(context.Background())
	if err != nil {
		log.Printf("[SyncScheduler] Incremental pass failed: %v", err)
		return
	}
	if summary.Synced > 0 || summary.Errored > 0 {
		log.Printf("[SyncScheduler] Pass complete: %d synced, %d errored, %d records", summary.Synced, summary.Errored, summary.Imported)
	}
}
