// Package hygiene flags dispatch jobs whose timestamps and status disagree.
package hygiene

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/trevden810/dispatchtracker/internal/domain"
)

// Thresholds configures the rule cut-offs, in hours.
type Thresholds struct {
	ArrivalWarningHours    float64
	ArrivalCriticalHours   float64
	StatusLagCriticalHours float64
	OverdueWarningHours    float64
	OverdueCriticalHours   float64
	IdleWarningHours       float64
	IdleActionHours        float64
	IdleCriticalHours      float64
}

// DefaultThresholds returns the standard rule cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ArrivalWarningHours:    2,
		ArrivalCriticalHours:   4,
		StatusLagCriticalHours: 2,
		OverdueWarningHours:    4,
		OverdueCriticalHours:   24,
		IdleWarningHours:       6,
		IdleActionHours:        8,
		IdleCriticalHours:      12,
	}
}

// Analyzer evaluates hygiene rules against a reference clock.
type Analyzer struct {
	thresholds Thresholds
	now        func() time.Time
}

// NewAnalyzer creates an analyzer. A nil now uses time.Now.
func NewAnalyzer(thresholds Thresholds, now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{thresholds: thresholds, now: now}
}

// AnalyzeJob returns the issues found on job, in rule order. A job may
// trigger several rules; a clean job yields nil.
func (a *Analyzer) AnalyzeJob(job domain.Job) []domain.Issue {
	return a.analyze(job, a.now())
}

func (a *Analyzer) analyze(job domain.Job, now time.Time) []domain.Issue {
	t := a.thresholds
	var issues []domain.Issue
	add := func(kind domain.IssueKind, sev domain.Severity, hours float64, action bool, msg string, args ...interface{}) {
		issues = append(issues, domain.Issue{
			Kind:         kind,
			Severity:     sev,
			Message:      fmt.Sprintf(msg, args...),
			JobID:        job.ID,
			Customer:     job.Customer,
			HoursElapsed: roundHours(hours),
			ActionNeeded: action,
			DetectedAt:   now,
		})
	}

	openAfterArrival := job.ArrivalTime != nil && job.CompletionTime == nil && !job.IsTerminal()

	if openAfterArrival {
		h := hoursSince(now, *job.ArrivalTime)
		sev := grade(h, t.ArrivalWarningHours, t.ArrivalCriticalHours)
		add(domain.IssueIncompleteAfterArrival, sev, h, sev == domain.SeverityCritical,
			"arrived %.1fh ago but not completed (status %q)", h, job.Status)
	}

	if job.CompletionTime != nil && job.IsInProgress() {
		h := hoursSince(now, *job.CompletionTime)
		sev := domain.SeverityWarning
		if h > t.StatusLagCriticalHours {
			sev = domain.SeverityCritical
		}
		add(domain.IssueStatusLag, sev, h, true,
			"completed %.1fh ago but status is still %q", h, job.Status)
	}

	if job.DueDate != nil && job.IsInProgress() && now.After(*job.DueDate) {
		h := hoursSince(now, *job.DueDate)
		sev := grade(h, t.OverdueWarningHours, t.OverdueCriticalHours)
		add(domain.IssueOverdue, sev, h, sev == domain.SeverityCritical,
			"overdue by %.1fh", h)
	}

	if job.IsInProgress() {
		if strings.TrimSpace(job.Address) == "" {
			add(domain.IssueMissingData, domain.SeverityWarning, 0, false, "active job has no address")
		}
		if job.DueDate == nil {
			add(domain.IssueMissingData, domain.SeverityInfo, 0, false, "active job has no due date")
		}
	}

	if openAfterArrival {
		h := hoursSince(now, *job.ArrivalTime)
		if h > t.IdleWarningHours {
			sev := domain.SeverityWarning
			if h > t.IdleCriticalHours {
				sev = domain.SeverityCritical
			}
			add(domain.IssueLongIdle, sev, h, h > t.IdleActionHours,
				"no progress for %.1fh since arrival", h)
		}
	}

	return issues
}

// grade maps elapsed hours to info, warning above warn, critical above crit.
func grade(hours, warn, crit float64) domain.Severity {
	switch {
	case hours > crit:
		return domain.SeverityCritical
	case hours > warn:
		return domain.SeverityWarning
	default:
		return domain.SeverityInfo
	}
}

func hoursSince(now, t time.Time) float64 {
	return now.Sub(t).Hours()
}

func roundHours(h float64) float64 {
	if h < 0 {
		return 0
	}
	return float64(int(h*10+0.5)) / 10
}

// Report aggregates the issues of a set of jobs.
type Report struct {
	Issues         []domain.Issue `json:"issues"`
	ByKind         map[string]int `json:"byKind"`
	BySeverity     map[string]int `json:"bySeverity"`
	JobsAnalyzed   int            `json:"jobsAnalyzed"`
	JobsWithIssues int            `json:"jobsWithIssues"`
	ActionNeeded   []int64        `json:"actionNeeded"`
	Summary        string         `json:"summary"`
	GeneratedAt    time.Time      `json:"generatedAt"`
}

// AnalyzeFleet analyzes every job against one clock reading and aggregates
// the result. Issues keep job order, then rule order.
func (a *Analyzer) AnalyzeFleet(jobs []domain.Job) *Report {
	now := a.now()
	r := &Report{
		Issues:       []domain.Issue{},
		ByKind:       make(map[string]int, len(domain.IssueKinds)),
		BySeverity:   make(map[string]int, len(domain.Severities)),
		JobsAnalyzed: len(jobs),
		ActionNeeded: []int64{},
		GeneratedAt:  now,
	}
	for _, k := range domain.IssueKinds {
		r.ByKind[string(k)] = 0
	}
	for _, s := range domain.Severities {
		r.BySeverity[string(s)] = 0
	}

	action := make(map[int64]struct{})
	for _, job := range jobs {
		issues := a.analyze(job, now)
		if len(issues) == 0 {
			continue
		}
		r.JobsWithIssues++
		for _, is := range issues {
			r.ByKind[string(is.Kind)]++
			r.BySeverity[string(is.Severity)]++
			if is.ActionNeeded {
				action[is.JobID] = struct{}{}
			}
		}
		r.Issues = append(r.Issues, issues...)
	}
	for id := range action {
		r.ActionNeeded = append(r.ActionNeeded, id)
	}
	sort.Slice(r.ActionNeeded, func(i, j int) bool { return r.ActionNeeded[i] < r.ActionNeeded[j] })

	r.Summary = summarize(r)
	return r
}

func summarize(r *Report) string {
	if len(r.Issues) == 0 {
		return fmt.Sprintf("%d jobs analyzed, no issues", r.JobsAnalyzed)
	}
	var kinds []string
	for _, k := range domain.IssueKinds {
		if n := r.ByKind[string(k)]; n > 0 {
			kinds = append(kinds, fmt.Sprintf("%d %s", n, k))
		}
	}
	return fmt.Sprintf("%d issues on %d of %d jobs (%d critical, %d warning, %d info): %s",
		len(r.Issues), r.JobsWithIssues, r.JobsAnalyzed,
		r.BySeverity[string(domain.SeverityCritical)],
		r.BySeverity[string(domain.SeverityWarning)],
		r.BySeverity[string(domain.SeverityInfo)],
		strings.Join(kinds, ", "))
}
