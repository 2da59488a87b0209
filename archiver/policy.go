package archiver

import (
	"sort"
	"time"

	"discord-archiver/models"
)

// BuildPlan computes the archive plan for one guild from a snapshot of its
// active threads. It is a pure function: identical inputs produce identical
// plans, and nothing in the snapshot is mutated.
//
// Selection runs in three passes:
//  1. every pinned thread found archived goes to the unarchive set,
//     unconditionally;
//  2. if the quota rule applies and the active count exceeds it, the oldest
//     eligible threads make up the difference, tagged "quota";
//  3. if the inactivity rule applies, eligible threads whose last activity is
//     strictly before now minus the threshold are tagged "inactivity".
//
// A thread claimed by the quota pass is never re-selected by the inactivity
// pass. Pinned, locked and excluded-channel threads are never candidates for
// either archive pass.
func BuildPlan(rules models.RuleSet, snapshot []models.ThreadSnapshot, now time.Time) Plan {
	var plan Plan

	// Pass 1: pinned recovery. Pinned threads must never stay archived.
	for _, t := range snapshot {
		if t.Pinned && t.Archived {
			plan.Unarchive = append(plan.Unarchive, t)
		}
	}

	// Recovered pinned threads count as active for the quota computation.
	for _, t := range snapshot {
		if !t.Archived {
			plan.ActiveCount++
		}
	}
	plan.ActiveCount += len(plan.Unarchive)

	selected := make(map[string]bool)

	// Pass 2: quota.
	if rules.QuotaEnabled() {
		deficit := plan.ActiveCount - rules.ServerQuota
		if deficit > 0 {
			plan.Deficit = deficit

			candidates := eligible(rules, snapshot)
			sort.SliceStable(candidates, func(i, j int) bool {
				return byActivityOldest(candidates[i], candidates[j])
			})

			take := deficit
			if take > len(candidates) {
				plan.QuotaShortfall = deficit - len(candidates)
				take = len(candidates)
			}
			for _, t := range candidates[:take] {
				plan.Archive = append(plan.Archive, Selection{Thread: t, Reason: ReasonQuota})
				selected[t.ThreadID] = true
			}
		}
	}

	// Pass 3: inactivity.
	if rules.InactivityEnabled() {
		cutoff := now.AddDate(0, 0, -rules.InactivityDays)
		for _, t := range eligible(rules, snapshot) {
			if selected[t.ThreadID] {
				continue
			}
			if inactiveBefore(t, cutoff) {
				plan.Archive = append(plan.Archive, Selection{Thread: t, Reason: ReasonInactivity})
				selected[t.ThreadID] = true
			}
		}
	}

	return plan
}

// eligible filters the snapshot down to threads an archive pass may act on:
// active, not pinned, not locked, and not in an excluded channel.
func eligible(rules models.RuleSet, snapshot []models.ThreadSnapshot) []models.ThreadSnapshot {
	out := make([]models.ThreadSnapshot, 0, len(snapshot))
	for _, t := range snapshot {
		if t.Archived || t.Pinned || t.Locked {
			continue
		}
		if rules.ChannelExcluded(t.ChannelID) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// byActivityOldest orders snapshot entries oldest-first for the quota pass.
// A thread whose last activity is unknown orders before every thread with a
// known time: if we cannot tell when a thread was last touched, it is
// archived first rather than kept alive indefinitely. Ties break on thread
// ID so the ordering is total and plans stay deterministic.
func byActivityOldest(a, b models.ThreadSnapshot) bool {
	if a.ActivityKnown != b.ActivityKnown {
		return !a.ActivityKnown
	}
	if !a.ActivityKnown || a.LastActivity.Equal(b.LastActivity) {
		return a.ThreadID < b.ThreadID
	}
	return a.LastActivity.Before(b.LastActivity)
}

// inactiveBefore applies the inactivity threshold. The comparison is strictly
// "earlier than": a thread last active exactly at the cutoff stays. Unknown
// activity counts as inactive, the same conservative rule the quota ordering
// uses.
func inactiveBefore(t models.ThreadSnapshot, cutoff time.Time) bool {
	if !t.ActivityKnown {
		return true
	}
	return t.LastActivity.Before(cutoff)
}
