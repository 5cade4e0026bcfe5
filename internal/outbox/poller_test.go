package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow-io/deskflow/internal/config"
	"github.com/deskflow-io/deskflow/internal/models"
	"github.com/deskflow-io/deskflow/internal/repository"
)

type fakeOutboxRepo struct {
	mu        sync.Mutex
	pending   []models.OutboxNotification
	processed []int64
	failed    []int64
	fetches   int
}

func (f *fakeOutboxRepo) Enqueue(ctx context.Context, q repository.DBTX, n *models.OutboxNotification) error {
	return nil
}

var _ repository.OutboxRepository = (*fakeOutboxRepo)(nil)

func (f *fakeOutboxRepo) FetchPending(ctx context.Context, limit, maxAttempts int) ([]models.OutboxNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	out := make([]models.OutboxNotification, len(f.pending))
	copy(out, f.pending)
	return out, nil
}

func (f *fakeOutboxRepo) MarkProcessed(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return nil
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []int64
	failIDs map[int64]bool
	block   chan struct{}
}

func (s *fakeSender) Notify(ctx context.Context, n *models.OutboxNotification) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[n.ID] {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, n.ID)
	return nil
}

func testConfig() config.OutboxConfig {
	return config.OutboxConfig{Interval: time.Second, BatchSize: 10, MaxAttempts: 5}
}

func TestRunOnceDeliversAndMarksProcessed(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []models.OutboxNotification{
		{ID: 1, Topic: models.TopicTicketCreated},
		{ID: 2, Topic: models.TopicCommentAdded},
	}}
	sender := &fakeSender{}
	p := NewPoller(repo, sender, testConfig())

	require.NoError(t, p.RunOnce(context.Background()))
	assert.Equal(t, []int64{1, 2}, sender.sent)
	assert.Equal(t, []int64{1, 2}, repo.processed)
	assert.Empty(t, repo.failed)
}

func TestRunOnceMarksFailuresAndContinues(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []models.OutboxNotification{
		{ID: 1, Topic: models.TopicTicketCreated},
		{ID: 2, Topic: models.TopicCommentAdded},
	}}
	sender := &fakeSender{failIDs: map[int64]bool{1: true}}
	p := NewPoller(repo, sender, testConfig())

	require.NoError(t, p.RunOnce(context.Background()))
	assert.Equal(t, []int64{1}, repo.failed)
	assert.Equal(t, []int64{2}, repo.processed)
}

func TestRunOnceSingleFlight(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []models.OutboxNotification{
		{ID: 1, Topic: models.TopicTicketCreated},
	}}
	sender := &fakeSender{block: make(chan struct{})}
	p := NewPoller(repo, sender, testConfig())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.RunOnce(context.Background())
	}()

	// Wait for the first run to take the guard and start sending.
	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.fetches == 1
	}, time.Second, 5*time.Millisecond)

	// Second run must bounce off the guard without fetching.
	require.NoError(t, p.RunOnce(context.Background()))
	repo.mu.Lock()
	assert.Equal(t, 1, repo.fetches)
	repo.mu.Unlock()

	close(sender.block)
	wg.Wait()
}
