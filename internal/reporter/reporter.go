package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"appagent/internal/config"
	"appagent/internal/models"
	"appagent/internal/textctl"
	"appagent/pkg/utils"
)

// Source is the read side of the repository used for reports.
type Source interface {
	CommandSummarySince(since time.Time) ([]models.CommandSummary, error)
	PanelSummarySince(since time.Time) ([]models.PanelSummary, error)
	AppSummarySince(since time.Time) ([]models.AppSummary, error)
	CountAuditEventsSince(since time.Time, kind string) (int64, error)
}

// Reporter handles report generation
type Reporter struct {
	config *config.Config
	repo   Source
	now    func() time.Time
}

func New(cfg *config.Config, repo Source) *Reporter {
	return &Reporter{config: cfg, repo: repo, now: time.Now}
}

// GenerateReport summarizes command usage, panels and focus time for the
// period containing now: "day", "week" or "month".
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	period, err := r.period(periodType)
	if err != nil {
		return nil, err
	}

	commands, err := r.repo.CommandSummarySince(period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get command summary")
	}
	panels, err := r.repo.PanelSummarySince(period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get panel summary")
	}
	apps, err := r.repo.AppSummarySince(period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get app summary")
	}
	replacements, err := r.repo.CountAuditEventsSince(period.Start, textctl.AuditAbbreviation)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count replacements")
	}

	var totalCommands int64
	for _, c := range commands {
		totalCommands += c.Count
	}
	if totalCommands > 0 {
		for i := range commands {
			commands[i].Percentage = float64(commands[i].Count) / float64(totalCommands) * 100.0
		}
	}

	var totalSeconds int64
	for i := range apps {
		apps[i].TotalMinutes = float64(apps[i].TotalSeconds) / 60.0
		apps[i].TotalHours = float64(apps[i].TotalSeconds) / 3600.0
		totalSeconds += apps[i].TotalSeconds
	}
	if totalSeconds > 0 {
		for i := range apps {
			apps[i].Percentage = float64(apps[i].TotalSeconds) / float64(totalSeconds) * 100.0
		}
	}

	return &models.Report{
		Period:        *period,
		Commands:      commands,
		Panels:        panels,
		Apps:          apps,
		TotalCommands: totalCommands,
		TotalSeconds:  totalSeconds,
		TotalMinutes:  float64(totalSeconds) / 60.0,
		TotalHours:    float64(totalSeconds) / 3600.0,
		Replacements:  replacements,
		GeneratedAt:   r.now(),
	}, nil
}

func (r *Reporter) location() *time.Location {
	tz := r.config.Report.TimeZone
	if tz == "" || tz == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}

// period calculates the time range for the report
func (r *Reporter) period(periodType string) (*models.ReportPeriod, error) {
	now := r.now().In(r.location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var start, end time.Time

	switch periodType {
	case "day", "today":
		start = today
		end = start.AddDate(0, 0, 1)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = today.AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, errors.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{Start: start, End: end, Type: periodType}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	var b strings.Builder
	rule := strings.Repeat("-", 80)

	fmt.Fprintf(&b, "Agent Report - %s\n", report.Period.Type)
	fmt.Fprintf(&b, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Commands: %d   Replacements: %d   Focus time: %s\n\n",
		report.TotalCommands, report.Replacements, utils.FormatRoundedUnit(report.TotalSeconds))

	if len(report.Commands) == 0 && len(report.Apps) == 0 {
		b.WriteString("No activity recorded for this period.\n")
		return b.String()
	}

	if len(report.Commands) > 0 {
		fmt.Fprintf(&b, "%-14s %-30s %7s %7s %7s %7s\n", "Agent", "Command", "Count", "Denied", "Failed", "Percent")
		fmt.Fprintf(&b, "%s\n", rule)
		for _, c := range report.Commands {
			fmt.Fprintf(&b, "%-14s %-30s %7d %7d %7d %6.1f%%\n",
				utils.Truncate(c.Agent, 14), utils.Truncate(c.Command, 30), c.Count, c.Denied, c.Failed, c.Percentage)
		}
		b.WriteString("\n")
	}

	if len(report.Panels) > 0 {
		fmt.Fprintf(&b, "%-45s %7s\n", "Panel", "Shown")
		fmt.Fprintf(&b, "%s\n", rule)
		for _, p := range report.Panels {
			fmt.Fprintf(&b, "%-45s %7d\n", utils.Truncate(p.Panel, 45), p.Count)
		}
		b.WriteString("\n")
	}

	if len(report.Apps) > 0 {
		fmt.Fprintf(&b, "%-30s %10s %10s\n", "Application", "Focus", "Percent")
		fmt.Fprintf(&b, "%s\n", rule)
		for _, app := range report.Apps {
			fmt.Fprintf(&b, "%-30s %10s %9.1f%%\n",
				utils.Truncate(app.ProcessName, 30), utils.FormatRoundedUnit(app.TotalSeconds), app.Percentage)
		}
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
