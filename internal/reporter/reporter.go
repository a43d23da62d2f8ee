package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/adspot/adspot/internal/models"
	"github.com/adspot/adspot/pkg/utils"
)

// Source is the read side of the event store. *database.Repository
// satisfies it.
type Source interface {
	GetEventsSince(since time.Time) ([]*models.MuteEvent, error)
	GetLatestBefore(t time.Time) (*models.MuteEvent, error)
	CountErrorsBetween(start, end time.Time) (int64, error)
}

// Reporter handles report generation
type Reporter struct {
	repo Source
	now  func() time.Time
}

// New creates a new reporter
func New(repo Source) *Reporter {
	return &Reporter{
		repo: repo,
		now:  time.Now,
	}
}

// GenerateReport generates a report for the specified period
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	now := r.now()
	period, err := GetPeriod(periodType, now)
	if err != nil {
		return nil, err
	}

	previous, err := r.repo.GetLatestBefore(period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get state at period start")
	}

	events, err := r.repo.GetEventsSince(period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get mute events")
	}

	errCount, err := r.repo.CountErrorsBetween(period.Start, period.End)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count errors")
	}

	// Open spans are cut at the period end, or now for the running period.
	cutoff := period.End
	if now.Before(cutoff) {
		cutoff = now
	}

	report := &models.Report{
		Period:      *period,
		Errors:      errCount,
		Spans:       []models.MuteSpan{},
		GeneratedAt: now,
	}

	var mutedSince time.Time
	muted := previous != nil && previous.Muted
	if muted {
		mutedSince = period.Start
	}

	for _, event := range events {
		if !event.Timestamp.Before(period.End) {
			break
		}
		report.Transitions++
		if event.Muted {
			report.Interruptions++
		}
		if event.Muted == muted {
			continue
		}
		if event.Muted {
			mutedSince = event.Timestamp
		} else {
			report.Spans = append(report.Spans, span(mutedSince, event.Timestamp, false))
		}
		muted = event.Muted
	}

	if muted {
		report.Spans = append(report.Spans, span(mutedSince, cutoff, !now.After(period.End)))
		report.CurrentlyMuted = !now.After(period.End)
	}

	for _, s := range report.Spans {
		report.MutedSeconds += s.Seconds
	}
	report.MutedMinutes = float64(report.MutedSeconds) / 60.0

	return report, nil
}

func span(start, end time.Time, open bool) models.MuteSpan {
	seconds := int64(end.Sub(start) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	return models.MuteSpan{Start: start, End: end, Seconds: seconds, Open: open}
}

// GetPeriod calculates the time range for a report period containing now
func GetPeriod(periodType string, now time.Time) (*models.ReportPeriod, error) {
	var start, end time.Time

	switch periodType {
	case "day", "today":
		periodType = "day"
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 0, 1)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, errors.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Interruption Report - %s\n", report.Period.Type)
	fmt.Fprintf(&b, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Interruptions muted: %d\n", report.Interruptions)
	fmt.Fprintf(&b, "Total muted time: %s\n", utils.FormatDuration(time.Duration(report.MutedSeconds)*time.Second))
	if report.Errors > 0 {
		fmt.Fprintf(&b, "Errors: %d\n", report.Errors)
	}
	if report.CurrentlyMuted {
		b.WriteString("Currently muted.\n")
	}
	b.WriteString("\n")

	if len(report.Spans) == 0 {
		b.WriteString("No interruptions recorded for this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-20s %-20s %10s\n", "Muted at", "Unmuted at", "Duration")
	b.WriteString(strings.Repeat("-", 52) + "\n")

	loc := report.Period.Start.Location()
	for _, s := range report.Spans {
		until := s.End.In(loc).Format("2006-01-02 15:04:05")
		if s.Open {
			until = "(still muted)"
		}
		fmt.Fprintf(&b, "%-20s %-20s %10s\n",
			s.Start.In(loc).Format("2006-01-02 15:04:05"),
			until,
			utils.FormatDuration(time.Duration(s.Seconds)*time.Second))
	}

	return b.String()
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal JSON")
	}
	return string(data), nil
}
