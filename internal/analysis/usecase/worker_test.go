package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysisdomain "github.com/containersuper/bct-crm/internal/analysis/domain"
	emaildomain "github.com/containersuper/bct-crm/internal/email/domain"
)

func pendingEmail(id string) *emaildomain.EmailHistory {
	return &emaildomain.EmailHistory{
		ID:               id,
		ExternalID:       "ext-" + id,
		Subject:          "subject " + id,
		FromAddr:         "a@b.com",
		ToAddr:           "c@d.com",
		SentAt:           time.Now(),
		ProcessingStatus: emaildomain.StatusPending,
	}
}

func TestWorkerDrainsPendingEmails(t *testing.T) {
	model := &stubModel{reply: `{"category":"inquiry","sentiment":"neutral","urgency":"low","language":"en"}`}
	analytics := newMemoryAnalytics()
	emails := newMemoryEmails(pendingEmail("e1"), pendingEmail("e2"))
	d := NewDispatcher(analytics, emails, &stubMirror{}, model)

	w := NewClassificationWorker(d, 1)
	w.Start()

	queued, err := w.QueuePendingEmails(10)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)

	// Stop closes the queue and waits for in-flight jobs.
	w.Stop()

	assert.Len(t, analytics.emailRows, 2)
	assert.Equal(t, emaildomain.StatusCompleted, emails.statuses["e1"])
	assert.Equal(t, emaildomain.StatusCompleted, emails.statuses["e2"])
}

func TestWorkerSkipsAlreadyAnalyzed(t *testing.T) {
	model := &stubModel{reply: `{"category":"inquiry","sentiment":"neutral","urgency":"low","language":"en"}`}
	analytics := newMemoryAnalytics()
	require.NoError(t, analytics.SaveEmailAnalytics(&analysisdomain.EmailAnalytics{ID: "a1", EmailID: "e1", Category: "order"}))
	emails := newMemoryEmails(pendingEmail("e1"))
	d := NewDispatcher(analytics, emails, &stubMirror{}, model)

	w := NewClassificationWorker(d, 1)
	w.Start()

	queued, err := w.QueuePendingEmails(10)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	w.Stop()

	// Cache hit: the model was never called and the stored row is untouched.
	assert.Zero(t, model.calls)
	assert.Equal(t, "order", analytics.emailRows["e1"].Category)
}

func TestWorkerQueueFull(t *testing.T) {
	d := NewDispatcher(newMemoryAnalytics(), newMemoryEmails(), &stubMirror{}, &stubModel{})
	w := NewClassificationWorker(d, 1)
	// Not started: nothing drains the queue.
	for i := 0; i < 500; i++ {
		require.True(t, w.QueueJob(ClassificationJob{EmailID: "x"}))
	}
	assert.False(t, w.QueueJob(ClassificationJob{EmailID: "overflow"}))
}
