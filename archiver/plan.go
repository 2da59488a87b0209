package archiver

import "discord-archiver/models"

// Reason tags why a thread was selected for archiving.
type Reason string

const (
	// ReasonQuota marks threads archived to bring the guild back under its
	// active-thread quota.
	ReasonQuota Reason = "quota"
	// ReasonInactivity marks threads archived for crossing the inactivity
	// threshold.
	ReasonInactivity Reason = "inactivity"
)

// Selection is one thread chosen for archiving, tagged with its reason.
type Selection struct {
	Thread models.ThreadSnapshot
	Reason Reason
}

// Plan is the outcome of the selection pass over one snapshot. The unarchive
// set and the archive set are disjoint, and no thread appears in the archive
// set twice.
type Plan struct {
	// Unarchive lists pinned threads found archived; they are recovered
	// before any archive action runs.
	Unarchive []models.ThreadSnapshot

	// Archive lists the threads to archive, quota selections first, in the
	// order they must be processed.
	Archive []Selection

	// ActiveCount is the number of active threads the quota pass ran
	// against, counting pinned recoveries as active.
	ActiveCount int

	// Deficit is ActiveCount minus the quota, when the quota rule applies
	// and is exceeded. Zero otherwise.
	Deficit int

	// QuotaShortfall is how many quota archivings could not be satisfied
	// because the candidate pool was smaller than the deficit. An observed
	// count mismatch, not an error.
	QuotaShortfall int
}

// Empty reports whether the plan requires no action at all.
func (p Plan) Empty() bool {
	return len(p.Unarchive) == 0 && len(p.Archive) == 0
}

// CountByReason returns how many archive selections carry the given reason.
func (p Plan) CountByReason(r Reason) int {
	n := 0
	for _, sel := range p.Archive {
		if sel.Reason == r {
			n++
		}
	}
	return n
}
