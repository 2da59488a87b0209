package archiver

import (
	"crypto/md5"
	"fmt"
	"time"

	"discord-archiver/models"
)

// Trigger says how a run was started.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// maxFailureDetails caps the failure list so the rendered report fits the
// delivery channel's message-size limits. Truncation is stated, never silent.
const maxFailureDetails = 10

// Report is the structured summary of one audit run. Building it is
// deterministic given the plan and outcome; rendering happens in the
// notifier.
type Report struct {
	ConfigName string
	RunID      string
	Trigger    Trigger
	StartedAt  time.Time

	InactivityDays int
	ServerQuota    int

	ActiveCount    int
	Deficit        int
	QuotaShortfall int

	Archived          int
	ArchivedQuota     int
	ArchivedInactive  int
	Unarchived        int
	ArchiveFailed     int
	UnarchiveFailed   int
	FetchErrors       int
	Failures          []Result
	TruncatedFailures int
}

// BuildReport aggregates the outcome of one run into a report.
func BuildReport(rules models.RuleSet, plan Plan, out *Outcome, trigger Trigger, startedAt time.Time) Report {
	rep := Report{
		ConfigName:      rules.Name,
		RunID:           runID(startedAt),
		Trigger:         trigger,
		StartedAt:       startedAt,
		InactivityDays:  rules.InactivityDays,
		ServerQuota:     rules.ServerQuota,
		ActiveCount:     plan.ActiveCount,
		Deficit:         plan.Deficit,
		QuotaShortfall:  plan.QuotaShortfall,
		Unarchived:      out.Count(StatusUnarchived),
		ArchiveFailed:   out.Count(StatusArchiveFailed),
		UnarchiveFailed: out.Count(StatusUnarchiveFailed),
		FetchErrors:     out.Count(StatusFetchError),
	}

	for _, r := range out.Results {
		if r.Status != StatusArchived {
			continue
		}
		rep.Archived++
		switch r.Reason {
		case ReasonQuota:
			rep.ArchivedQuota++
		case ReasonInactivity:
			rep.ArchivedInactive++
		}
	}

	failures := out.Failures()
	if len(failures) > maxFailureDetails {
		rep.TruncatedFailures = len(failures) - maxFailureDetails
		failures = failures[:maxFailureDetails]
	}
	rep.Failures = failures

	return rep
}

// TotalFailed is the failure count across all categories, the truncated
// entries included.
func (r Report) TotalFailed() int {
	return r.ArchiveFailed + r.UnarchiveFailed + r.FetchErrors
}

// runID derives a short log index from the run start time, printed in the
// report and in every related log line so the two can be correlated.
func runID(startedAt time.Time) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%d", startedAt.UnixNano())))
	return fmt.Sprintf("%x", sum)[:8]
}
