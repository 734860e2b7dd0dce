package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"seo-keywords/pkg/monitor"
)

func newTable(w io.Writer, title string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}
	return tw
}

func printReport(w io.Writer, r *monitor.Report) {
	tw := newTable(w, "Run "+r.RunID)
	tw.AppendRows([]table.Row{
		{"Outcome", r.Outcome},
		{"Source", r.Source},
		{"Candidates", r.Candidates},
		{"Batch", len(r.Batch)},
		{"Succeeded", r.Succeeded},
		{"Quota exhausted", r.QuotaExhausted},
		{"Failed", r.Failed},
		{"Ideas fetched", r.IdeasFetched},
		{"Ideas kept", r.IdeasKept},
		{"Committed", committedLabel(r)},
		{"Duration", r.Duration.Round(time.Millisecond).String()},
	})
	if len(r.SinkErrors) > 0 {
		tw.AppendRow(table.Row{"Output errors", joinNonEmpty(r.SinkErrors...)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Colors: text.Colors{text.Bold}}})
	tw.Render()
}

func committedLabel(r *monitor.Report) string {
	if r.CommitSkipped {
		return "skipped (results file not written)"
	}
	return strconv.Itoa(r.Committed)
}

func printPlan(w io.Writer, theme string, p *monitor.Plan) {
	title := fmt.Sprintf("Next batch: %d of %d pending", len(p.Batch), p.Pending)
	if theme != "" {
		title = cases.Title(language.English).String(theme) + " - " + title
	}

	tw := newTable(w, title)
	tw.AppendHeader(table.Row{"#", "Seed phrase"})
	for i, phrase := range p.Batch {
		tw.AppendRow(table.Row{i + 1, phrase})
	}
	if len(p.Batch) == 0 {
		tw.AppendRow(table.Row{"-", "nothing to process"})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
	tw.Render()
}

func printStatus(w io.Writer, p *monitor.Plan) {
	tw := newTable(w, "Status")
	tw.AppendRows([]table.Row{
		{"Seed source", p.Source},
		{"Processed log", p.Log},
		{"Seed phrases", p.Candidates},
		{"Processed", p.Processed},
		{"Pending", p.Pending},
		{"Batch limit", p.Limit},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Colors: text.Colors{text.Bold}}})
	tw.Render()
}
