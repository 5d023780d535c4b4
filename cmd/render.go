package cmd

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"homesite_sync/models"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	return t
}

func renderStepResults(out io.Writer, results []stepResult) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Step", "Processed", "Succeeded", "Skipped", "Errors", "Result"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	var total models.StepStats
	var unmatched []string
	for _, r := range results {
		result := text.FgGreen.Sprint("ok")
		if r.Err != nil {
			result = text.FgRed.Sprint(r.Err.Error())
		} else if r.Stats.Errors > 0 {
			result = text.FgYellow.Sprint("item errors")
		}
		t.AppendRow(table.Row{r.Step, r.Stats.Processed, r.Stats.Succeeded, r.Stats.Skipped, r.Stats.Errors, result})
		total.Processed += r.Stats.Processed
		total.Succeeded += r.Stats.Succeeded
		total.Skipped += r.Stats.Skipped
		total.Errors += r.Stats.Errors
		unmatched = append(unmatched, r.Stats.Unmatched...)
	}
	if len(results) > 1 {
		t.AppendFooter(table.Row{"total", total.Processed, total.Succeeded, total.Skipped, total.Errors, ""})
	}
	t.Render()

	if len(unmatched) > 0 {
		u := newTable(out)
		u.AppendHeader(table.Row{"Unmatched floor plan names"})
		for _, name := range unmatched {
			u.AppendRow(table.Row{name})
		}
		u.Render()
	}
}

func renderRuns(out io.Writer, runs []models.ScrapeRun) {
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Step", "Started", "Duration", "Status", "Processed", "Succeeded", "Skipped", "Errors", "Message"})
	for _, r := range runs {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.Duration().Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			r.ID,
			r.Step,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			statusColor(r.Status).Sprint(string(r.Status)),
			r.Processed,
			r.Succeeded,
			r.Skipped,
			r.Errors,
			text.Trim(r.Message, 60),
		})
	}
	t.Render()
}

func renderLogs(out io.Writer, logs []models.ScrapeLog) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Time", "Level", "Message"})
	for _, l := range logs {
		t.AppendRow(table.Row{l.Timestamp.Local().Format("15:04:05"), string(l.Level), l.Message})
	}
	t.Render()
}

func statusColor(status models.RunStatus) text.Colors {
	switch status {
	case models.RunStatusCompleted:
		return text.Colors{text.FgGreen}
	case models.RunStatusFailed:
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgYellow}
	}
}
