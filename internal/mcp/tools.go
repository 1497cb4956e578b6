package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/calendar"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/config"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/reports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.Marshal(v)
	if err != nil {
		return errorResult("failed to marshal result")
	}
	return textResult(string(out))
}

type toolSet struct {
	reports  ReportSource
	status   StatusSource
	selected func() string
}

func (t *toolSet) date(request mcp.CallToolRequest) string {
	if d := request.GetString("date", ""); d != "" {
		return d
	}
	if t.selected != nil {
		return t.selected()
	}
	return ""
}

// ListReportsTool lists the reports of one date.
func ListReportsTool() mcp.Tool {
	return mcp.NewTool("list_reports",
		mcp.WithDescription("List market reports for a date in display order. Defaults to the date selected in the dashboard."),
		mcp.WithString("date", mcp.Description("Date as YYYY-MM-DD")),
	)
}

// ListReports renders the reports of the requested date as a markdown table.
func (t *toolSet) ListReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := t.date(request)
	if date != "" {
		if _, err := calendar.ParseDate(date); err != nil {
			return errorResult(fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", date)), nil
		}
	}
	list := t.reports.FilterByDate(date)
	if len(list) == 0 {
		return textResult(fmt.Sprintf("No reports for %s.", date)), nil
	}
	return textResult(renderReportList(date, list, t.reports.Selection().ActiveID)), nil
}

// GetReportTool returns one report rendered for a view mode.
func GetReportTool() mcp.Tool {
	return mcp.NewTool("get_report",
		mcp.WithDescription("Get a market report with index figures and ranking tables. Defaults to the active report of the selected date."),
		mcp.WithString("id", mcp.Description("Report ID")),
		mcp.WithString("date", mcp.Description("Date used when no ID is given, as YYYY-MM-DD")),
		mcp.WithString("mode", mcp.Description("Stock ranking to show: realtime or cumulative")),
		mcp.WithString("format", mcp.Description("markdown (default) or json")),
	)
}

// GetReport renders one report.
func (t *toolSet) GetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var report models.Report
	if id := request.GetString("id", ""); id != "" {
		r, err := t.reports.Get(id)
		if errors.Is(err, reports.ErrReportNotFound) {
			return errorResult(fmt.Sprintf("report %s not found", id)), nil
		}
		if err != nil {
			return errorResult(err.Error()), nil
		}
		report = r
	} else {
		date := t.date(request)
		r, ok := t.reports.ActiveFor(date)
		if !ok {
			return errorResult(fmt.Sprintf("no active report for %s", date)), nil
		}
		report = r
	}

	mode := report.DefaultViewMode()
	if sel := t.reports.Selection(); sel.ActiveID == report.ID && sel.ViewMode != "" {
		mode = sel.ViewMode
	}
	if m := request.GetString("mode", ""); m != "" {
		parsed, ok := models.ParseViewMode(m)
		if !ok {
			return errorResult(fmt.Sprintf("invalid mode %q: expected realtime or cumulative", m)), nil
		}
		mode = parsed
	}

	view := reports.BuildView(report, mode)
	switch request.GetString("format", "markdown") {
	case "json":
		return jsonResult(view), nil
	case "markdown", "":
		return textResult(renderReport(view)), nil
	default:
		return errorResult("invalid format: expected markdown or json"), nil
	}
}

// AnalysisStatusTool reports the analysis pipeline state.
func AnalysisStatusTool() mcp.Tool {
	return mcp.NewTool("analysis_status",
		mcp.WithDescription("Report whether a screenshot analysis is running and the outcome of the last run."),
	)
}

// AnalysisStatus returns the pipeline status as JSON.
func (t *toolSet) AnalysisStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.status.Status()), nil
}

// VersionTool returns the mcp.Tool definition for get_version.
func VersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the dashboard version. Use this to verify connectivity."),
	)
}

// VersionToolHandler returns the build identity of this server.
func VersionToolHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(config.GetVersionInfo()), nil
	}
}
