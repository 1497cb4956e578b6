package handlers

import (
	"errors"
	"net/http"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/reports"
)

// ReportList is the response of GET /api/reports.
type ReportList struct {
	Date      string            `json:"date"`
	Reports   []models.Report   `json:"reports"`
	Selection reports.Selection `json:"selection"`
	Active    *reports.View     `json:"active,omitempty"`
}

// ReportsHandler serves the report collection and the active selection.
type ReportsHandler struct {
	logger   *common.Logger
	store    *reports.Store
	selected func() string
}

// NewReportsHandler creates a new reports handler. selected returns the
// date shown when a request does not name one.
func NewReportsHandler(logger *common.Logger, store *reports.Store, selected func() string) *ReportsHandler {
	return &ReportsHandler{logger: logger, store: store, selected: selected}
}

func (h *ReportsHandler) dateParam(r *http.Request) string {
	if date := r.URL.Query().Get("date"); date != "" {
		return date
	}
	if h.selected != nil {
		return h.selected()
	}
	return ""
}

// HandleList handles GET /api/reports?date=YYYY-MM-DD.
func (h *ReportsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, h.list(h.dateParam(r)))
}

func (h *ReportsHandler) list(date string) ReportList {
	sel := h.store.Selection()
	resp := ReportList{
		Date:      date,
		Reports:   h.store.FilterByDate(date),
		Selection: sel,
	}
	if active, ok := h.store.ActiveFor(date); ok {
		view := reports.BuildView(active, sel.ViewMode)
		resp.Active = &view
	}
	return resp
}

// HandleGet handles GET /api/reports/{id}.
func (h *ReportsHandler) HandleGet(w http.ResponseWriter, r *http.Request, id string) {
	report, err := h.store.Get(id)
	if err != nil {
		writeReportError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// HandleDelete handles DELETE /api/reports/{id}.
func (h *ReportsHandler) HandleDelete(w http.ResponseWriter, r *http.Request, id string) {
	sel, err := h.store.Delete(r.Context(), id)
	if err != nil {
		writeReportError(w, err)
		return
	}
	h.logger.Info().Str("report_id", id).Str("active", sel.ActiveID).Msg("report deleted")
	WriteJSON(w, http.StatusOK, sel)
}

// HandleView handles GET /api/reports/{id}/view?mode=realtime|cumulative.
// Without a mode the current view mode is used.
func (h *ReportsHandler) HandleView(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	report, err := h.store.Get(id)
	if err != nil {
		writeReportError(w, err)
		return
	}

	mode := h.store.Selection().ViewMode
	if raw := r.URL.Query().Get("mode"); raw != "" {
		m, ok := models.ParseViewMode(raw)
		if !ok {
			WriteError(w, http.StatusBadRequest, "mode must be realtime or cumulative")
			return
		}
		mode = m
	}
	WriteJSON(w, http.StatusOK, reports.BuildView(report, mode))
}

// HandleActive handles PUT /api/reports/active {"id": "..."}.
func (h *ReportsHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := DecodeJSON(r, &body); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sel, err := h.store.Select(body.ID)
	if err != nil {
		writeReportError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sel)
}

// HandleViewMode handles PUT /api/reports/view {"mode": "realtime|cumulative"}.
func (h *ReportsHandler) HandleViewMode(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	var body struct {
		Mode string `json:"mode"`
	}
	if err := DecodeJSON(r, &body); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, ok := models.ParseViewMode(body.Mode)
	if !ok {
		WriteError(w, http.StatusBadRequest, "mode must be realtime or cumulative")
		return
	}
	WriteJSON(w, http.StatusOK, h.store.SetViewMode(mode))
}

func writeReportError(w http.ResponseWriter, err error) {
	if errors.Is(err, reports.ErrReportNotFound) {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteError(w, http.StatusInternalServerError, err.Error())
}
