package archiver

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Executor applies an archive plan through the thread service, one action at
// a time. A failed action is recorded and the next one runs; nothing aborts
// the plan except context cancellation, which is checked between actions,
// never in the middle of one.
type Executor struct {
	svc  ThreadService
	pace time.Duration
	log  *logrus.Entry
}

// NewExecutor returns an executor that waits pace between successive
// platform calls. Pacing keeps the bot under Discord's rate limits; it is
// not a correctness requirement.
func NewExecutor(svc ThreadService, pace time.Duration, log *logrus.Entry) *Executor {
	return &Executor{svc: svc, pace: pace, log: log}
}

// Run executes the plan: pinned recoveries first, then archive selections in
// plan order. It returns the accumulated outcome, partial when the context
// is cancelled mid-plan.
func (e *Executor) Run(ctx context.Context, plan Plan) *Outcome {
	out := &Outcome{}

	for _, t := range plan.Unarchive {
		if ctx.Err() != nil {
			e.log.Warn("audit cancelled, stopping before next unarchive")
			return out
		}
		if err := e.svc.Unarchive(ctx, t.ThreadID, "pinned thread recovery"); err != nil {
			e.log.WithField("thread_id", t.ThreadID).WithError(err).Error("unarchive failed")
			out.add(Result{ThreadID: t.ThreadID, ThreadName: t.Name, Status: StatusUnarchiveFailed, Detail: err.Error()})
		} else {
			out.add(Result{ThreadID: t.ThreadID, ThreadName: t.Name, Status: StatusUnarchived})
		}
		e.wait()
	}

	for _, sel := range plan.Archive {
		if ctx.Err() != nil {
			e.log.Warn("audit cancelled, stopping before next archive")
			return out
		}
		t := sel.Thread
		reason := fmt.Sprintf("auto archive: %s", sel.Reason)
		if err := e.svc.Archive(ctx, t.ThreadID, reason); err != nil {
			e.log.WithField("thread_id", t.ThreadID).WithError(err).Error("archive failed")
			out.add(Result{ThreadID: t.ThreadID, ThreadName: t.Name, Status: StatusArchiveFailed, Reason: sel.Reason, Detail: err.Error()})
		} else {
			out.add(Result{ThreadID: t.ThreadID, ThreadName: t.Name, Status: StatusArchived, Reason: sel.Reason})
		}
		e.wait()
	}

	return out
}

func (e *Executor) wait() {
	if e.pace > 0 {
		time.Sleep(e.pace)
	}
}
