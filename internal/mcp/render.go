package mcp

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/reports"
)

func renderReportList(date string, list []models.Report, activeID string) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "ID", "Title", "Time", "Active"})
	for i, r := range list {
		active := ""
		if r.ID == activeID {
			active = "yes"
		}
		tw.AppendRow(table.Row{i + 1, r.ID, r.Title, r.Timestamp, active})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Reports for %s\n\n", date)
	b.WriteString(tw.RenderMarkdown())
	b.WriteString("\n")
	return b.String()
}

func renderReport(v reports.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s %s\n\n", v.Date, v.Title)
	fmt.Fprintf(&b, "Time: %s | ID: %s\n\n", v.Timestamp, v.ID)

	b.WriteString("### Market\n\n")
	mkt := table.NewWriter()
	mkt.AppendHeader(table.Row{"Index", "Value", "Change", "Amount"})
	mkt.AppendRow(table.Row{"KOSPI", orDash(v.KOSPI.Value), signed(v.KOSPI.ChangePercent, v.KOSPI.Trend), orDash(v.KOSPI.ChangeAmount)})
	mkt.AppendRow(table.Row{"KOSDAQ", orDash(v.KOSDAQ.Value), signed(v.KOSDAQ.ChangePercent, v.KOSDAQ.Trend), orDash(v.KOSDAQ.ChangeAmount)})
	mkt.SetColumnConfigs(rightAligned(2, 3, 4))
	b.WriteString(mkt.RenderMarkdown())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "### Stocks (%s)\n\n", v.Mode)
	b.WriteString(renderEntries(v.Stocks, true))

	b.WriteString("### Themes by rank\n\n")
	b.WriteString(renderEntries(v.ThemesByRank, false))

	b.WriteString("### Themes by change\n\n")
	b.WriteString(renderEntries(v.ThemesByChange, false))
	return b.String()
}

func renderEntries(entries []reports.EntryView, withPrice bool) string {
	if len(entries) == 0 {
		return "No data.\n\n"
	}
	tw := table.NewWriter()
	if withPrice {
		tw.AppendHeader(table.Row{"Rank", "Name", "Price", "Change"})
		tw.SetColumnConfigs(rightAligned(1, 3, 4))
	} else {
		tw.AppendHeader(table.Row{"Rank", "Name", "Change"})
		tw.SetColumnConfigs(rightAligned(1, 3))
	}
	for _, e := range entries {
		if withPrice {
			tw.AppendRow(table.Row{e.Rank, e.Name, e.Price, e.ChangePercent})
		} else {
			tw.AppendRow(table.Row{e.Rank, e.Name, e.ChangePercent})
		}
	}
	return tw.RenderMarkdown() + "\n\n"
}

func rightAligned(cols ...int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, 0, len(cols))
	for _, n := range cols {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	return cfgs
}

// signed restores the sign that display formatting strips from index changes.
func signed(pct string, trend common.Trend) string {
	switch {
	case pct == "":
		return "-"
	case trend == common.TrendUp:
		return "+" + pct
	case trend == common.TrendDown:
		return "-" + pct
	}
	return pct
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
