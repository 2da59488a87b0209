package models

import "time"

// ThreadSnapshot is one entry of the active-thread snapshot taken at the
// start of an audit run. Snapshots are read-only once taken; each run owns
// its own set.
type ThreadSnapshot struct {
	ThreadID  string
	ChannelID string
	Name      string
	Pinned    bool
	Locked    bool
	Archived  bool

	// LastActivity is the time of the newest known message in the thread.
	// When ActivityKnown is false the value is meaningless and the thread is
	// treated by the oldest-unknown-first rule (see archiver.BuildPlan).
	LastActivity  time.Time
	ActivityKnown bool
}
