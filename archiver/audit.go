package archiver

import (
	"context"
	"errors"
	"sync"
	"time"

	"discord-archiver/models"

	"github.com/sirupsen/logrus"
)

// ErrAuditInProgress is returned when a run is requested for a config that
// already has one in flight. The caller reports it to the user; the run is
// never queued.
var ErrAuditInProgress = errors.New("an audit for this config is already in progress")

// bumpTrustWindow is how long a recorded keep-alive is trusted before a
// pinned thread gets bumped again.
const bumpTrustWindow = 48 * time.Hour

// Auditor runs the audit pipeline for one rule set at a time per config:
// snapshot, plan, execute, report, deliver. Rule sets are passed in per call;
// the auditor itself holds only collaborators and run state.
type Auditor struct {
	svc      ThreadService
	notifier Notifier
	notices  NoticeStore
	bumps    BumpStore
	pace     time.Duration
	log      *logrus.Logger

	now func() time.Time

	mu    sync.Mutex
	inRun map[string]bool
}

// NewAuditor wires an auditor from its collaborators. Pace is the delay
// inserted between successive platform calls.
func NewAuditor(svc ThreadService, notifier Notifier, notices NoticeStore, bumps BumpStore, pace time.Duration, log *logrus.Logger) *Auditor {
	return &Auditor{
		svc:      svc,
		notifier: notifier,
		notices:  notices,
		bumps:    bumps,
		pace:     pace,
		log:      log,
		now:      time.Now,
		inRun:    make(map[string]bool),
	}
}

// Audit runs the full pipeline for one rule set and delivers exactly one
// report, partial failures included. It returns ErrAuditInProgress when a
// run for the same config name has not finished yet; runs for different
// configs proceed concurrently.
func (a *Auditor) Audit(ctx context.Context, rules models.RuleSet, trigger Trigger) (Report, error) {
	if !a.tryAcquire(rules.Name) {
		return Report{}, ErrAuditInProgress
	}
	defer a.release(rules.Name)

	startedAt := a.now()
	log := a.log.WithFields(logrus.Fields{
		"config":  rules.Name,
		"guild":   rules.GuildID,
		"run_id":  runID(startedAt),
		"trigger": trigger,
	})
	log.Info("audit started")

	// Snapshot. A failed fetch with partial results is still audited; the
	// error itself becomes a fetch_error entry in the report.
	var fetchErrs []Result
	snapshot, err := a.svc.ActiveThreads(ctx, rules.GuildID)
	if err != nil {
		log.WithError(err).Error("active thread fetch failed")
		fetchErrs = append(fetchErrs, Result{
			ThreadID: rules.GuildID,
			Status:   StatusFetchError,
			Detail:   "active thread listing: " + err.Error(),
		})
	}

	snapshot, moreErrs := a.resolveActivity(ctx, rules, snapshot)
	fetchErrs = append(fetchErrs, moreErrs...)

	a.keepPinnedAlive(ctx, snapshot, log)

	plan := BuildPlan(rules, snapshot, startedAt)
	log.WithFields(logrus.Fields{
		"active":    plan.ActiveCount,
		"deficit":   plan.Deficit,
		"archive":   len(plan.Archive),
		"unarchive": len(plan.Unarchive),
	}).Info("plan computed")

	outcome := NewExecutor(a.svc, a.pace, log).Run(ctx, plan)
	outcome.Merge(fetchErrs)

	rep := BuildReport(rules, plan, outcome, trigger, startedAt)
	a.deliver(rules, rep, log)

	log.WithFields(logrus.Fields{
		"archived":   rep.Archived,
		"unarchived": rep.Unarchived,
		"failed":     rep.TotalFailed(),
	}).Info("audit finished")
	return rep, nil
}

// resolveActivity fills in unknown last-activity times for threads an
// archive pass could act on. Per-thread fetch failures are surfaced as
// fetch_error results and the thread keeps its unknown marker, which the
// selection rules treat as oldest.
func (a *Auditor) resolveActivity(ctx context.Context, rules models.RuleSet, snapshot []models.ThreadSnapshot) ([]models.ThreadSnapshot, []Result) {
	var fetchErrs []Result
	for i, t := range snapshot {
		if t.ActivityKnown || t.Archived || t.Pinned || t.Locked || rules.ChannelExcluded(t.ChannelID) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		at, known, err := a.svc.LastActivity(ctx, t.ThreadID)
		if err != nil {
			fetchErrs = append(fetchErrs, Result{
				ThreadID:   t.ThreadID,
				ThreadName: t.Name,
				Status:     StatusFetchError,
				Detail:     err.Error(),
			})
			continue
		}
		if known {
			snapshot[i].LastActivity = at
			snapshot[i].ActivityKnown = true
		}
	}
	return snapshot, fetchErrs
}

// keepPinnedAlive bumps active pinned threads whose last recorded bump is
// outside the trust window, so the platform's own auto-archive timer never
// claims them. Bump failures are logged only.
func (a *Auditor) keepPinnedAlive(ctx context.Context, snapshot []models.ThreadSnapshot, log *logrus.Entry) {
	nowUTC := a.now().UTC()
	for _, t := range snapshot {
		if !t.Pinned || t.Archived {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		last, err := a.bumps.Last(t.ThreadID)
		if err != nil {
			log.WithField("thread_id", t.ThreadID).WithError(err).Warn("bump record lookup failed")
		} else if !last.IsZero() && nowUTC.Sub(last) < bumpTrustWindow {
			continue
		}
		if err := a.svc.KeepAlive(ctx, t); err != nil {
			log.WithField("thread_id", t.ThreadID).WithError(err).Warn("pinned keep-alive failed")
			continue
		}
		if err := a.bumps.Record(t.ThreadID, nowUTC); err != nil {
			log.WithField("thread_id", t.ThreadID).WithError(err).Warn("bump record save failed")
		}
		if a.pace > 0 {
			time.Sleep(a.pace)
		}
	}
}

// deliver posts the report, replaces the previous notice message and stores
// the new message ID. Delivery failure is logged and never propagated back
// into the trigger.
func (a *Auditor) deliver(rules models.RuleSet, rep Report, log *logrus.Entry) {
	if rules.NotificationChannelID == "" {
		log.Warn("no notification channel configured, report not delivered")
		return
	}

	msgID, err := a.notifier.Deliver(rules.NotificationChannelID, rep)
	if err != nil {
		log.WithError(err).Error("report delivery failed")
		return
	}

	if prev, err := a.notices.Last(rules.Name); err != nil {
		log.WithError(err).Warn("last notice lookup failed")
	} else if prev != "" && prev != msgID {
		if err := a.notifier.DeleteMessage(rules.NotificationChannelID, prev); err != nil {
			log.WithError(err).Warn("could not delete previous report message")
		}
	}

	if err := a.notices.Replace(rules.Name, msgID); err != nil {
		log.WithError(err).Error("notice id save failed")
	}
}

func (a *Auditor) tryAcquire(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inRun[name] {
		return false
	}
	a.inRun[name] = true
	return true
}

func (a *Auditor) release(name string) {
	a.mu.Lock()
	delete(a.inRun, name)
	a.mu.Unlock()
}
