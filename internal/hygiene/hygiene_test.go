package hygiene

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trevden810/dispatchtracker/internal/domain"
)

var now = time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC)

func analyzer() *Analyzer {
	return NewAnalyzer(DefaultThresholds(), func() time.Time { return now })
}

func ago(h float64) *time.Time {
	t := now.Add(-time.Duration(h * float64(time.Hour)))
	return &t
}

func ahead(h float64) *time.Time {
	t := now.Add(time.Duration(h * float64(time.Hour)))
	return &t
}

// cleanJob has every field the missing-data rule looks for.
func cleanJob(status string) domain.Job {
	return domain.Job{
		ID:       42,
		Status:   status,
		Customer: "Acme",
		Address:  "1 Main St",
		DueDate:  ahead(48),
	}
}

func kinds(issues []domain.Issue) []domain.IssueKind {
	out := make([]domain.IssueKind, len(issues))
	for i, is := range issues {
		out[i] = is.Kind
	}
	return out
}

func TestAnalyzeJob_IncompleteAfterArrivalFiveHours(t *testing.T) {
	job := cleanJob("Active")
	job.ArrivalTime = ago(5)

	issues := analyzer().AnalyzeJob(job)

	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueIncompleteAfterArrival, issues[0].Kind)
	assert.Equal(t, domain.SeverityCritical, issues[0].Severity)
	assert.Equal(t, int64(42), issues[0].JobID)
	assert.Equal(t, 5.0, issues[0].HoursElapsed)
	assert.Equal(t, now, issues[0].DetectedAt)
}

func TestAnalyzeJob_IncompleteAfterArrivalSeverity(t *testing.T) {
	tests := []struct {
		hours float64
		want  domain.Severity
	}{
		{1, domain.SeverityInfo},
		{2, domain.SeverityInfo},
		{2.5, domain.SeverityWarning},
		{4, domain.SeverityWarning},
		{4.1, domain.SeverityCritical},
	}
	for _, tt := range tests {
		job := cleanJob("Active")
		job.ArrivalTime = ago(tt.hours)

		issues := analyzer().AnalyzeJob(job)

		require.NotEmpty(t, issues)
		assert.Equal(t, tt.want, issues[0].Severity, "%.1fh", tt.hours)
	}
}

func TestAnalyzeJob_TerminalStatusSkipsArrivalRules(t *testing.T) {
	job := cleanJob("Complete")
	job.ArrivalTime = ago(20)

	assert.Empty(t, analyzer().AnalyzeJob(job))
}

func TestAnalyzeJob_StatusLag(t *testing.T) {
	tests := []struct {
		hours float64
		want  domain.Severity
	}{
		{0.5, domain.SeverityWarning},
		{3, domain.SeverityCritical},
	}
	for _, tt := range tests {
		job := cleanJob("Active")
		job.ArrivalTime = ago(tt.hours + 1)
		job.CompletionTime = ago(tt.hours)

		issues := analyzer().AnalyzeJob(job)

		require.Len(t, issues, 1)
		assert.Equal(t, domain.IssueStatusLag, issues[0].Kind)
		assert.Equal(t, tt.want, issues[0].Severity)
		assert.True(t, issues[0].ActionNeeded)
	}
}

func TestAnalyzeJob_Overdue(t *testing.T) {
	tests := []struct {
		hours float64
		want  domain.Severity
	}{
		{1, domain.SeverityInfo},
		{5, domain.SeverityWarning},
		{30, domain.SeverityCritical},
	}
	for _, tt := range tests {
		job := cleanJob("Entered")
		job.DueDate = ago(tt.hours)

		issues := analyzer().AnalyzeJob(job)

		require.Len(t, issues, 1)
		assert.Equal(t, domain.IssueOverdue, issues[0].Kind)
		assert.Equal(t, tt.want, issues[0].Severity, "%.0fh overdue", tt.hours)
	}
}

func TestAnalyzeJob_OverdueIgnoresUnknownStatus(t *testing.T) {
	job := cleanJob("On Hold")
	job.DueDate = ago(30)

	assert.Empty(t, analyzer().AnalyzeJob(job))
}

func TestAnalyzeJob_MissingData(t *testing.T) {
	job := domain.Job{ID: 7, Status: "Active"}

	issues := analyzer().AnalyzeJob(job)

	require.Len(t, issues, 2)
	assert.Equal(t, []domain.IssueKind{domain.IssueMissingData, domain.IssueMissingData}, kinds(issues))
	assert.Equal(t, domain.SeverityWarning, issues[0].Severity)
	assert.Equal(t, domain.SeverityInfo, issues[1].Severity)
}

func TestAnalyzeJob_LongIdle(t *testing.T) {
	tests := []struct {
		hours      float64
		wantSev    domain.Severity
		wantAction bool
	}{
		{7, domain.SeverityWarning, false},
		{9, domain.SeverityWarning, true},
		{13, domain.SeverityCritical, true},
	}
	for _, tt := range tests {
		job := cleanJob("Active")
		job.ArrivalTime = ago(tt.hours)

		issues := analyzer().AnalyzeJob(job)

		require.Len(t, issues, 2)
		assert.Equal(t, []domain.IssueKind{domain.IssueIncompleteAfterArrival, domain.IssueLongIdle}, kinds(issues))
		assert.Equal(t, tt.wantSev, issues[1].Severity, "%.0fh idle", tt.hours)
		assert.Equal(t, tt.wantAction, issues[1].ActionNeeded, "%.0fh idle", tt.hours)
	}
}

func TestAnalyzeJob_SeveralRules(t *testing.T) {
	job := domain.Job{ID: 9, Status: "Active", ArrivalTime: ago(3), DueDate: ago(6)}

	issues := analyzer().AnalyzeJob(job)

	assert.Equal(t, []domain.IssueKind{
		domain.IssueIncompleteAfterArrival,
		domain.IssueOverdue,
		domain.IssueMissingData,
	}, kinds(issues))
}

func TestAnalyzeFleet(t *testing.T) {
	stuck := cleanJob("Active")
	stuck.ID = 3
	stuck.ArrivalTime = ago(10)

	lagging := cleanJob("Active")
	lagging.ID = 1
	lagging.ArrivalTime = ago(2)
	lagging.CompletionTime = ago(1)

	fine := cleanJob("Active")
	fine.ID = 2

	report := analyzer().AnalyzeFleet([]domain.Job{stuck, fine, lagging})

	assert.Equal(t, 3, report.JobsAnalyzed)
	assert.Equal(t, 2, report.JobsWithIssues)
	assert.Len(t, report.Issues, 3)
	assert.Equal(t, 1, report.ByKind["incomplete_after_arrival"])
	assert.Equal(t, 1, report.ByKind["long_idle"])
	assert.Equal(t, 1, report.ByKind["status_lag"])
	assert.Equal(t, 0, report.ByKind["overdue"])
	assert.Equal(t, 1, report.BySeverity["critical"])
	assert.Equal(t, 2, report.BySeverity["warning"])
	assert.Equal(t, []int64{1, 3}, report.ActionNeeded)
	assert.Equal(t,
		"3 issues on 2 of 3 jobs (1 critical, 2 warning, 0 info): 1 incomplete_after_arrival, 1 status_lag, 1 long_idle",
		report.Summary)
}

func TestAnalyzeFleet_Empty(t *testing.T) {
	report := analyzer().AnalyzeFleet(nil)

	assert.Empty(t, report.Issues)
	assert.Equal(t, "0 jobs analyzed, no issues", report.Summary)
	assert.Equal(t, 0, report.BySeverity["critical"])
}
