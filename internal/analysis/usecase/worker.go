package usecase

import (
	"context"
	"log"
	"sync"

	"github.com/containersuper/bct-crm/pkg/apperr"
)

// ClassificationJob is one email queued for background classification.
type ClassificationJob struct {
	EmailID string
}

// ClassificationWorker drains queued classification jobs through the
// dispatcher in the background.
type ClassificationWorker struct {
	dispatcher  *Dispatcher
	jobQueue    chan ClassificationJob
	workerWg    sync.WaitGroup
	workerCount int
	started     bool
	mu          sync.Mutex
}

func NewClassificationWorker(dispatcher *Dispatcher, workerCount int) *ClassificationWorker {
	if workerCount <= 0 {
		workerCount = 3
	}
	return &ClassificationWorker{
		dispatcher:  dispatcher,
		jobQueue:    make(chan ClassificationJob, 500),
		workerCount: workerCount,
	}
}

// Start launches the workers. Safe to call once; later calls are no-ops.
func (w *ClassificationWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return
	}

	for i := 0; i < w.workerCount; i++ {
		w.workerWg.Add(1)
		go w.worker(i)
	}
	w.started = true
	log.Printf("[AnalysisWorker] Started %d workers", w.workerCount)
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (w *ClassificationWorker) Stop() {
	close(w.jobQueue)
	w.workerWg.Wait()
	log.Println("[AnalysisWorker] All workers stopped")
}

func (w *ClassificationWorker) worker(id int) {
	defer w.workerWg.Done()

	for job := range w.jobQueue {
		w.processJob(job)
	}

	log.Printf("[AnalysisWorker] Worker %d stopped", id)
}

func (w *ClassificationWorker) processJob(job ClassificationJob) {
	// Cache hit: the email was classified earlier, possibly by a direct call.
	existing, err := w.dispatcher.analytics.GetEmailAnalytics(job.EmailID)
	if err != nil {
		log.Printf("[AnalysisWorker] Error checking cache for %s: %v", job.EmailID, err)
		return
	}
	if existing != nil {
		return
	}

	if _, err := w.dispatcher.AnalyzeEmail(context.Background(), job.EmailID); err != nil {
		if apperr.IsInvalidModelResponse(err) {
			log.Printf("[AnalysisWorker] Unparseable reply for email %s", job.EmailID)
			return
		}
		log.Printf("[AnalysisWorker] Error analyzing email %s: %v", job.EmailID, err)
	}
}

// QueueJob adds one job without blocking; false means the queue is full.
func (w *ClassificationWorker) QueueJob(job ClassificationJob) bool {
	select {
	case w.jobQueue <- job:
		return true
	default:
		return false
	}
}

// QueuePendingEmails enqueues stored messages still awaiting classification.
// Returns how many were queued; messages that did not fit stay pending and
// are picked up by a later call.
func (w *ClassificationWorker) QueuePendingEmails(limit int) (int, error) {
	pending, err := w.dispatcher.emails.ListPending(limit)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, email := range pending {
		if w.QueueJob(ClassificationJob{EmailID: email.ID}) {
			queued++
		}
	}
	return queued, nil
}
