package mcp

import (
	"net/http"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/config"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/pipeline"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/reports"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ReportSource is the read side of the report store used by the tools.
type ReportSource interface {
	FilterByDate(date string) []models.Report
	Get(id string) (models.Report, error)
	Selection() reports.Selection
	ActiveFor(date string) (models.Report, bool)
}

// StatusSource reports whether an analysis is running.
type StatusSource interface {
	Status() pipeline.Status
}

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
}

// NewHandler registers the report tools and returns the MCP endpoint.
// selected returns the date currently chosen in the calendar.
func NewHandler(src ReportSource, status StatusSource, selected func() string, logger *common.Logger) *Handler {
	mcpSrv := newMCPServer(src, status, selected)

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithStateLess(true),
	)

	logger.Info().Int("tools", 4).Msg("MCP handler initialized")

	return &Handler{
		streamable: streamable,
		logger:     logger,
	}
}

func newMCPServer(src ReportSource, status StatusSource, selected func() string) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer(
		"kiwoom-dashboard",
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)

	tools := &toolSet{reports: src, status: status, selected: selected}
	mcpSrv.AddTool(ListReportsTool(), tools.ListReports)
	mcpSrv.AddTool(GetReportTool(), tools.GetReport)
	mcpSrv.AddTool(AnalysisStatusTool(), tools.AnalysisStatus)
	mcpSrv.AddTool(VersionTool(), VersionToolHandler())
	return mcpSrv
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}
