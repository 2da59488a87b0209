package archiver_test

import (
	"fmt"
	"testing"
	"time"

	"discord-archiver/archiver"
	"discord-archiver/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReportAllSuccess(t *testing.T) {
	out := &archiver.Outcome{}
	for i := 0; i < 2; i++ {
		out.Results = append(out.Results, archiver.Result{ThreadID: fmt.Sprintf("u%d", i), Status: archiver.StatusUnarchived})
	}
	for i := 0; i < 5; i++ {
		out.Results = append(out.Results, archiver.Result{ThreadID: fmt.Sprintf("a%d", i), Status: archiver.StatusArchived, Reason: archiver.ReasonQuota})
	}

	rules := models.RuleSet{Name: "main", GuildID: "1", ServerQuota: 100}
	rep := archiver.BuildReport(rules, archiver.Plan{ActiveCount: 105, Deficit: 5}, out, archiver.TriggerScheduled, time.Now())

	assert.Equal(t, 5, rep.Archived)
	assert.Equal(t, 5, rep.ArchivedQuota)
	assert.Equal(t, 2, rep.Unarchived)
	assert.Zero(t, rep.TotalFailed())
	assert.Empty(t, rep.Failures)
	assert.Zero(t, rep.TruncatedFailures)
}

func TestBuildReportCountsFailuresByKind(t *testing.T) {
	out := &archiver.Outcome{Results: []archiver.Result{
		{ThreadID: "a", Status: archiver.StatusArchiveFailed, Detail: "denied"},
		{ThreadID: "b", Status: archiver.StatusUnarchiveFailed, Detail: "denied"},
		{ThreadID: "c", Status: archiver.StatusFetchError, Detail: "timeout"},
		{ThreadID: "d", Status: archiver.StatusArchived, Reason: archiver.ReasonInactivity},
	}}

	rep := archiver.BuildReport(models.RuleSet{Name: "main"}, archiver.Plan{}, out, archiver.TriggerManual, time.Now())

	assert.Equal(t, 1, rep.ArchiveFailed)
	assert.Equal(t, 1, rep.UnarchiveFailed)
	assert.Equal(t, 1, rep.FetchErrors)
	assert.Equal(t, 3, rep.TotalFailed())
	assert.Equal(t, 1, rep.ArchivedInactive)
	require.Len(t, rep.Failures, 3)
}

func TestBuildReportTruncatesFailureList(t *testing.T) {
	out := &archiver.Outcome{}
	for i := 0; i < 14; i++ {
		out.Results = append(out.Results, archiver.Result{
			ThreadID: fmt.Sprintf("t%02d", i),
			Status:   archiver.StatusArchiveFailed,
			Detail:   "denied",
		})
	}

	rep := archiver.BuildReport(models.RuleSet{Name: "main"}, archiver.Plan{}, out, archiver.TriggerScheduled, time.Now())

	require.Len(t, rep.Failures, 10, "detail list is capped for the delivery channel")
	assert.Equal(t, 4, rep.TruncatedFailures)
	assert.Equal(t, 14, rep.ArchiveFailed, "counts keep the full total")
	assert.Equal(t, "t00", rep.Failures[0].ThreadID)
}

func TestBuildReportDeterministic(t *testing.T) {
	startedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	out := &archiver.Outcome{Results: []archiver.Result{
		{ThreadID: "a", Status: archiver.StatusArchived, Reason: archiver.ReasonQuota},
	}}
	rules := models.RuleSet{Name: "main", ServerQuota: 10}
	plan := archiver.Plan{ActiveCount: 11, Deficit: 1}

	first := archiver.BuildReport(rules, plan, out, archiver.TriggerScheduled, startedAt)
	second := archiver.BuildReport(rules, plan, out, archiver.TriggerScheduled, startedAt)
	assert.Equal(t, first, second)
	assert.Len(t, first.RunID, 8)
}

func TestRenderReportEmbedStatesTruncation(t *testing.T) {
	rep := archiver.Report{
		ConfigName:        "main",
		RunID:             "abcd1234",
		StartedAt:         time.Now(),
		ArchiveFailed:     12,
		Failures:          []archiver.Result{{ThreadID: "t1", Status: archiver.StatusArchiveFailed, Detail: "denied"}},
		TruncatedFailures: 11,
	}

	embed := archiver.RenderReportEmbed(rep)
	require.Len(t, embed.Fields, 1)
	assert.Contains(t, embed.Fields[0].Value, "11")
	assert.Contains(t, embed.Title, "main")
}
