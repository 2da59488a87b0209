package archiver

// Status classifies the per-thread result of one audit action.
type Status string

const (
	StatusArchived        Status = "archived"
	StatusArchiveFailed   Status = "archive_failed"
	StatusUnarchived      Status = "unarchived"
	StatusUnarchiveFailed Status = "unarchive_failed"
	StatusFetchError      Status = "fetch_error"
)

// Result records what happened to one thread during a run.
type Result struct {
	ThreadID   string
	ThreadName string
	Status     Status
	Reason     Reason // set for archive results
	Detail     string // failure detail, empty on success
}

// Failed reports whether the result is a failure of any kind.
func (r Result) Failed() bool {
	switch r.Status {
	case StatusArchiveFailed, StatusUnarchiveFailed, StatusFetchError:
		return true
	}
	return false
}

// Outcome accumulates per-thread results over one run. It is owned by the
// run that produced it and read only by the report builder afterwards.
type Outcome struct {
	Results []Result
}

func (o *Outcome) add(r Result) {
	o.Results = append(o.Results, r)
}

// Merge prepends earlier results (snapshot-phase fetch errors) so the report
// lists them before execution results.
func (o *Outcome) Merge(earlier []Result) {
	o.Results = append(append([]Result{}, earlier...), o.Results...)
}

// Count returns the number of results with the given status.
func (o *Outcome) Count(s Status) int {
	n := 0
	for _, r := range o.Results {
		if r.Status == s {
			n++
		}
	}
	return n
}

// Failures returns the failed results in recorded order.
func (o *Outcome) Failures() []Result {
	var out []Result
	for _, r := range o.Results {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}
