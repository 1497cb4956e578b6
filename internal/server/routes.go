package server

import (
	"net/http"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/handlers"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// MCP endpoint (JSON-RPC over HTTP)
	if s.app.MCPHandler != nil {
		mux.Handle("/mcp", s.app.MCPHandler)
	}

	// API routes
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)

	mux.HandleFunc("/api/slots", s.routeSlotList)
	mux.HandleFunc("/api/slots/focus", s.app.SlotsHandler.HandleFocus)
	mux.HandleFunc("/api/slots/", s.routeSlots)
	mux.HandleFunc("/api/paste", s.routePaste)

	mux.HandleFunc("/api/analysis", s.routeAnalysis)

	mux.HandleFunc("/api/reports", s.routeReportList)
	mux.HandleFunc("/api/reports/active", s.app.ReportsHandler.HandleActive)
	mux.HandleFunc("/api/reports/view", s.app.ReportsHandler.HandleViewMode)
	mux.HandleFunc("/api/reports/", s.routeReports)

	mux.HandleFunc("/api/calendar", s.app.CalendarHandler.HandleMonth)
	mux.HandleFunc("/api/calendar/selected", s.app.CalendarHandler.HandleSelected)

	// 404 handler for unmatched routes
	mux.HandleFunc("/api/", s.handleNotFound)
	mux.HandleFunc("/", s.handleNotFound)

	return mux
}

func (s *Server) routeSlotList(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.SlotsHandler.HandleList, nil)
}

func (s *Server) routePaste(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, nil, s.app.SlotsHandler.HandlePaste)
}

func (s *Server) routeAnalysis(w http.ResponseWriter, r *http.Request) {
	h := s.app.AnalysisHandler
	RouteResourceCollection(w, r, h.HandleStatus, h.HandleRun)
}

func (s *Server) routeReportList(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.ReportsHandler.HandleList, nil)
}

// routeSlots dispatches /api/slots/{slot}/files and /api/slots/{slot}/items/{id}[/preview].
func (s *Server) routeSlots(w http.ResponseWriter, r *http.Request) {
	h := s.app.SlotsHandler
	seg := handlers.PathSegments(r.URL.Path, "/api/slots/")

	switch {
	case len(seg) == 2 && seg[1] == "files":
		slot := seg[0]
		RouteResourceCollection(w, r, nil, func(w http.ResponseWriter, r *http.Request) {
			h.HandleUpload(w, r, slot)
		})
	case len(seg) == 3 && seg[1] == "items":
		slot, id := seg[0], seg[2]
		RouteResourceItem(w, r, nil, nil, func(w http.ResponseWriter, r *http.Request) {
			h.HandleRemove(w, r, slot, id)
		})
	case len(seg) == 4 && seg[1] == "items" && seg[3] == "preview":
		slot, id := seg[0], seg[2]
		RouteByMethod(w, r, MethodRouter{
			http.MethodGet: func(w http.ResponseWriter, r *http.Request) { h.HandlePreview(w, r, slot, id) },
		})
	default:
		s.handleNotFound(w, r)
	}
}

// routeReports dispatches /api/reports/{id} and /api/reports/{id}/view.
func (s *Server) routeReports(w http.ResponseWriter, r *http.Request) {
	h := s.app.ReportsHandler
	seg := handlers.PathSegments(r.URL.Path, "/api/reports/")

	switch {
	case len(seg) == 1:
		id := seg[0]
		RouteResourceItem(w, r,
			func(w http.ResponseWriter, r *http.Request) { h.HandleGet(w, r, id) },
			nil,
			func(w http.ResponseWriter, r *http.Request) { h.HandleDelete(w, r, id) },
		)
	case len(seg) == 2 && seg[1] == "view":
		id := seg[0]
		RouteByMethod(w, r, MethodRouter{
			http.MethodGet: func(w http.ResponseWriter, r *http.Request) { h.HandleView(w, r, id) },
		})
	default:
		s.handleNotFound(w, r)
	}
}

// handleNotFound returns a JSON 404 for unmatched routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
