package archiver_test

import (
	"context"
	"sync"
	"time"

	"discord-archiver/archiver"
	"discord-archiver/models"
)

// fakeThreadService is an in-memory ThreadService recording every call in
// order, with injectable failures and an optional gate that blocks the
// snapshot fetch until released.
type fakeThreadService struct {
	mu    sync.Mutex
	calls []string

	threads   []models.ThreadSnapshot
	activeErr error
	gate      chan struct{}

	activity    map[string]time.Time
	activityErr map[string]error

	archiveErr   map[string]error
	unarchiveErr map[string]error
	keepAliveErr map[string]error

	onArchive func(threadID string)
}

func newFakeThreadService(threads ...models.ThreadSnapshot) *fakeThreadService {
	return &fakeThreadService{
		threads:      threads,
		activity:     map[string]time.Time{},
		activityErr:  map[string]error{},
		archiveErr:   map[string]error{},
		unarchiveErr: map[string]error{},
		keepAliveErr: map[string]error{},
	}
}

func (f *fakeThreadService) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeThreadService) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func (f *fakeThreadService) ActiveThreads(ctx context.Context, guildID string) ([]models.ThreadSnapshot, error) {
	f.record("active:" + guildID)
	if f.gate != nil {
		<-f.gate
	}
	return append([]models.ThreadSnapshot{}, f.threads...), f.activeErr
}

func (f *fakeThreadService) LastActivity(ctx context.Context, threadID string) (time.Time, bool, error) {
	f.record("activity:" + threadID)
	if err := f.activityErr[threadID]; err != nil {
		return time.Time{}, false, err
	}
	at, ok := f.activity[threadID]
	return at, ok, nil
}

func (f *fakeThreadService) Archive(ctx context.Context, threadID, reason string) error {
	f.record("archive:" + threadID)
	if f.onArchive != nil {
		f.onArchive(threadID)
	}
	return f.archiveErr[threadID]
}

func (f *fakeThreadService) Unarchive(ctx context.Context, threadID, reason string) error {
	f.record("unarchive:" + threadID)
	return f.unarchiveErr[threadID]
}

func (f *fakeThreadService) KeepAlive(ctx context.Context, thread models.ThreadSnapshot) error {
	f.record("keepalive:" + thread.ThreadID)
	return f.keepAliveErr[thread.ThreadID]
}

// fakeNotifier records delivered reports and deletions.
type fakeNotifier struct {
	mu         sync.Mutex
	delivered  []archiver.Report
	deleted    []string
	nextID     int
	deliverErr error
}

func (f *fakeNotifier) Deliver(channelID string, rep archiver.Report) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deliverErr != nil {
		return "", f.deliverErr
	}
	f.nextID++
	f.delivered = append(f.delivered, rep)
	return msgID(f.nextID), nil
}

func (f *fakeNotifier) DeleteMessage(channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func msgID(n int) string {
	return string(rune('m')) + string(rune('0'+n))
}

// memNotices and memBumps are in-memory store fakes.
type memNotices struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemNotices() *memNotices { return &memNotices{m: map[string]string{}} }

func (s *memNotices) Last(configName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[configName], nil
}

func (s *memNotices) Replace(configName, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[configName] = messageID
	return nil
}

type memBumps struct {
	mu sync.Mutex
	m  map[string]time.Time
}

func newMemBumps() *memBumps { return &memBumps{m: map[string]time.Time{}} }

func (s *memBumps) Last(threadID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[threadID], nil
}

func (s *memBumps) Record(threadID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[threadID] = at
	return nil
}
