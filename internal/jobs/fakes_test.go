package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/precis/internal/interfaces"
	"github.com/ternarybob/precis/internal/models"
)

// memJobStore is an in-memory JobStorage for tests
type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]models.SummaryJob
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]models.SummaryJob)}
}

func (s *memJobStore) SaveJob(ctx context.Context, job *models.SummaryJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *memJobStore) GetJob(ctx context.Context, jobID string) (*models.SummaryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	copied := job
	return &copied, nil
}

func (s *memJobStore) ListJobs(ctx context.Context, opts *interfaces.JobListOptions) ([]*models.SummaryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.SummaryJob
	for _, job := range s.jobs {
		if opts != nil && opts.Status != "" && job.Status != opts.Status {
			continue
		}
		copied := job
		out = append(out, &copied)
	}
	return out, nil
}

func (s *memJobStore) ListIncomplete(ctx context.Context) ([]*models.SummaryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.SummaryJob
	for _, job := range s.jobs {
		if !job.IsTerminal() {
			copied := job
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memJobStore) CountJobsByStatus(ctx context.Context, status models.JobStatus) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, job := range s.jobs {
		if job.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *memJobStore) DeleteJob(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return interfaces.ErrJobNotFound
	}
	delete(s.jobs, jobID)
	return nil
}

// memSummaryStore is an in-memory SummaryStorage for tests
type memSummaryStore struct {
	mu        sync.Mutex
	summaries map[string]models.ItemSummary
}

func newMemSummaryStore() *memSummaryStore {
	return &memSummaryStore{summaries: make(map[string]models.ItemSummary)}
}

func (s *memSummaryStore) SaveSummary(ctx context.Context, summary *models.ItemSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.ItemID] = *summary
	return nil
}

func (s *memSummaryStore) GetSummary(ctx context.Context, itemID string) (*models.ItemSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.summaries[itemID]
	if !ok {
		return nil, interfaces.ErrSummaryNotFound
	}
	copied := summary
	return &copied, nil
}

func (s *memSummaryStore) ListSummariesByJob(ctx context.Context, jobID string) ([]*models.ItemSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ItemSummary
	for _, summary := range s.summaries {
		if summary.JobID == jobID {
			copied := summary
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memSummaryStore) DeleteSummary(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.summaries, itemID)
	return nil
}

// fakeLibrary serves text attachments from a map; items absent from the map
// report no attachment
type fakeLibrary struct {
	mu        sync.Mutex
	docs      map[string]string
	published []string
	downloads int
}

func newFakeLibrary(docs map[string]string) *fakeLibrary {
	return &fakeLibrary{docs: docs}
}

func (l *fakeLibrary) FetchAttachmentMetadata(ctx context.Context, itemID string) (*interfaces.AttachmentRef, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.docs[itemID]; !ok {
		return nil, interfaces.ErrNoAttachment
	}
	return &interfaces.AttachmentRef{
		Key:         "att-" + itemID,
		ItemID:      itemID,
		Title:       "Document " + itemID,
		Filename:    itemID + ".txt",
		ContentType: "text/plain",
	}, nil
}

func (l *fakeLibrary) DownloadAttachment(ctx context.Context, ref *interfaces.AttachmentRef) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.downloads++
	return []byte(l.docs[ref.ItemID]), nil
}

func (l *fakeLibrary) PublishNote(ctx context.Context, itemID, content, tag string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.published = append(l.published, itemID)
	return "note-" + itemID, nil
}

// fakeSummarizer echoes a canned summary; items listed in failFor error out
type fakeSummarizer struct {
	mu           sync.Mutex
	failFor      map[string]bool
	calls        int
	confidence   float64
	lastInputLen int

	// When set, Summarize blocks until the channel closes or the context
	// is cancelled; lets tests hold a job mid-run. With ignoreCancel the
	// wait outlives cancellation, modeling a provider call that returns a
	// result after a pause or cancel has already landed.
	gate         chan struct{}
	ignoreCancel bool
}

func newFakeSummarizer() *fakeSummarizer {
	return &fakeSummarizer{failFor: make(map[string]bool), confidence: 0.9}
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string, length models.SummaryLength) (*interfaces.SummaryResult, error) {
	f.mu.Lock()
	f.calls++
	f.lastInputLen = len(text)
	gate := f.gate
	ignoreCancel := f.ignoreCancel
	confidence := f.confidence
	var failErr error
	for marker := range f.failFor {
		if strings.Contains(text, marker) {
			failErr = fmt.Errorf("generation failure")
		}
	}
	f.mu.Unlock()

	if gate != nil {
		if ignoreCancel {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if failErr != nil {
		return nil, failErr
	}
	return &interfaces.SummaryResult{Text: "summary of: " + firstChars(text, 20), Confidence: confidence}, nil
}

func (f *fakeSummarizer) Close() error { return nil }

func firstChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// nopBroadcaster records calls without doing anything
type nopBroadcaster struct {
	mu      sync.Mutex
	begins  int
	updates int
	ends    []interfaces.DismissalMode
}

func (b *nopBroadcaster) Begin(ctx context.Context, jobID string, state interfaces.JobProgressState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.begins++
}

func (b *nopBroadcaster) Update(ctx context.Context, jobID string, state interfaces.JobProgressState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates++
}

func (b *nopBroadcaster) End(ctx context.Context, jobID string, state interfaces.JobProgressState, mode interfaces.DismissalMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ends = append(b.ends, mode)
}

// nopNotifier records notification events
type nopNotifier struct {
	mu     sync.Mutex
	events []interfaces.NotificationEvent
}

func (n *nopNotifier) Notify(ctx context.Context, event interfaces.NotificationEvent, jobID string, processed, total int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *nopNotifier) lastEvent() interfaces.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return ""
	}
	return n.events[len(n.events)-1]
}
