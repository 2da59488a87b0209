package archiver_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"discord-archiver/archiver"
	"discord-archiver/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testRules() models.RuleSet {
	return models.RuleSet{
		Name:                  "main",
		GuildID:               "guild-1",
		ServerQuota:           2,
		InactivityDays:        30,
		NotificationChannelID: "notify-1",
	}
}

func newTestAuditor(svc *fakeThreadService, notifier *fakeNotifier, notices *memNotices, bumps *memBumps) *archiver.Auditor {
	return archiver.NewAuditor(svc, notifier, notices, bumps, 0, quietLogger())
}

func TestAuditDeliversExactlyOneReport(t *testing.T) {
	old := time.Now().Add(-90 * 24 * time.Hour)
	svc := newFakeThreadService(
		models.ThreadSnapshot{ThreadID: "t1", LastActivity: old, ActivityKnown: true},
		models.ThreadSnapshot{ThreadID: "t2", LastActivity: time.Now(), ActivityKnown: true},
		models.ThreadSnapshot{ThreadID: "t3", LastActivity: time.Now(), ActivityKnown: true},
	)
	notifier := &fakeNotifier{}

	rep, err := newTestAuditor(svc, notifier, newMemNotices(), newMemBumps()).
		Audit(context.Background(), testRules(), archiver.TriggerScheduled)

	require.NoError(t, err)
	require.Len(t, notifier.delivered, 1)
	assert.Equal(t, rep.RunID, notifier.delivered[0].RunID)
	// Quota 2 against 3 active: the oldest goes for quota; t1 is also past
	// the inactivity threshold but must not be archived twice.
	assert.Equal(t, 1, rep.Archived)
}

func TestAuditReplacesPreviousNotice(t *testing.T) {
	svc := newFakeThreadService()
	notifier := &fakeNotifier{}
	notices := newMemNotices()
	require.NoError(t, notices.Replace("main", "old-message"))

	_, err := newTestAuditor(svc, notifier, notices, newMemBumps()).
		Audit(context.Background(), testRules(), archiver.TriggerManual)

	require.NoError(t, err)
	assert.Equal(t, []string{"old-message"}, notifier.deleted, "previous report message is removed")

	stored, err := notices.Last("main")
	require.NoError(t, err)
	assert.NotEmpty(t, stored)
	assert.NotEqual(t, "old-message", stored)
}

func TestAuditRejectsConcurrentRunSameConfig(t *testing.T) {
	svc := newFakeThreadService()
	svc.gate = make(chan struct{})
	notifier := &fakeNotifier{}
	auditor := newTestAuditor(svc, notifier, newMemNotices(), newMemBumps())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := auditor.Audit(context.Background(), testRules(), archiver.TriggerScheduled)
		assert.NoError(t, err)
	}()

	// Wait until the first run is inside the snapshot fetch, then trigger a
	// second one for the same config.
	require.Eventually(t, func() bool {
		return len(svc.callLog()) > 0
	}, time.Second, 5*time.Millisecond)

	_, err := auditor.Audit(context.Background(), testRules(), archiver.TriggerManual)
	assert.ErrorIs(t, err, archiver.ErrAuditInProgress)

	close(svc.gate)
	wg.Wait()

	// With the first run finished the config is free again.
	_, err = auditor.Audit(context.Background(), testRules(), archiver.TriggerManual)
	require.NoError(t, err)
}

func TestAuditSurfacesFetchErrors(t *testing.T) {
	svc := newFakeThreadService(
		models.ThreadSnapshot{ThreadID: "t1"}, // activity unknown, needs resolving
	)
	svc.activityErr["t1"] = errors.New("history unreadable")
	notifier := &fakeNotifier{}

	rep, err := newTestAuditor(svc, notifier, newMemNotices(), newMemBumps()).
		Audit(context.Background(), testRules(), archiver.TriggerScheduled)

	require.NoError(t, err, "per-thread fetch failures never abort the run")
	assert.Equal(t, 1, rep.FetchErrors)
	require.NotEmpty(t, rep.Failures)
	assert.Equal(t, archiver.StatusFetchError, rep.Failures[0].Status)
	// The thread stays unknown and the conservative rule still archives it.
	assert.Equal(t, 1, rep.Archived)
}

func TestAuditPartialSnapshotStillAudited(t *testing.T) {
	svc := newFakeThreadService(
		models.ThreadSnapshot{ThreadID: "t1", LastActivity: time.Now().Add(-60 * 24 * time.Hour), ActivityKnown: true},
	)
	svc.activeErr = errors.New("second page: permission denied")
	notifier := &fakeNotifier{}

	rep, err := newTestAuditor(svc, notifier, newMemNotices(), newMemBumps()).
		Audit(context.Background(), testRules(), archiver.TriggerScheduled)

	require.NoError(t, err)
	assert.Equal(t, 1, rep.FetchErrors, "the listing failure is reported as data")
	assert.Equal(t, 1, rep.Archived, "the partial snapshot is still processed")
	require.Len(t, notifier.delivered, 1)
}

func TestAuditResolvesUnknownActivity(t *testing.T) {
	svc := newFakeThreadService(
		models.ThreadSnapshot{ThreadID: "t1"},
	)
	svc.activity["t1"] = time.Now().Add(-time.Hour)
	notifier := &fakeNotifier{}

	rep, err := newTestAuditor(svc, notifier, newMemNotices(), newMemBumps()).
		Audit(context.Background(), testRules(), archiver.TriggerScheduled)

	require.NoError(t, err)
	assert.Contains(t, svc.callLog(), "activity:t1")
	assert.Zero(t, rep.Archived, "freshly active thread must not be archived")
}

func TestAuditKeepsPinnedAlive(t *testing.T) {
	svc := newFakeThreadService(
		models.ThreadSnapshot{ThreadID: "p1", Pinned: true, LastActivity: time.Now(), ActivityKnown: true},
		models.ThreadSnapshot{ThreadID: "p2", Pinned: true, LastActivity: time.Now(), ActivityKnown: true},
	)
	notifier := &fakeNotifier{}
	bumps := newMemBumps()
	// p2 was bumped recently and sits inside the trust window.
	require.NoError(t, bumps.Record("p2", time.Now().UTC().Add(-time.Hour)))

	_, err := newTestAuditor(svc, notifier, newMemNotices(), bumps).
		Audit(context.Background(), testRules(), archiver.TriggerScheduled)

	require.NoError(t, err)
	calls := svc.callLog()
	assert.Contains(t, calls, "keepalive:p1")
	assert.NotContains(t, calls, "keepalive:p2")

	last, err := bumps.Last("p1")
	require.NoError(t, err)
	assert.False(t, last.IsZero(), "bump is recorded after a successful keep-alive")
}

func TestAuditDeliveryFailureDoesNotFailRun(t *testing.T) {
	svc := newFakeThreadService()
	notifier := &fakeNotifier{deliverErr: errors.New("channel gone")}

	_, err := newTestAuditor(svc, notifier, newMemNotices(), newMemBumps()).
		Audit(context.Background(), testRules(), archiver.TriggerScheduled)

	require.NoError(t, err, "delivery errors are logged, never raised into the trigger")
}
