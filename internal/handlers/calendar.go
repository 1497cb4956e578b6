package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/calendar"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
)

// CalendarView is the response of the calendar endpoints.
type CalendarView struct {
	Selected string         `json:"selected"`
	Today    string         `json:"today"`
	Grid     *calendar.Grid `json:"grid,omitempty"`
}

// CalendarHandler serves the date navigator.
type CalendarHandler struct {
	logger    *common.Logger
	navigator *calendar.Navigator
}

// NewCalendarHandler creates a new calendar handler.
func NewCalendarHandler(logger *common.Logger, navigator *calendar.Navigator) *CalendarHandler {
	return &CalendarHandler{logger: logger, navigator: navigator}
}

// HandleMonth handles GET /api/calendar?month=YYYY-MM or ?offset=N.
// offset moves the viewed month; month shows a month without moving it.
func (h *CalendarHandler) HandleMonth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	var grid calendar.Grid
	q := r.URL.Query()
	switch {
	case q.Get("month") != "":
		t, err := time.Parse("2006-01", q.Get("month"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		grid = h.navigator.Month(t.Year(), t.Month())
	case q.Get("offset") != "":
		offset, err := strconv.Atoi(q.Get("offset"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "offset must be an integer")
			return
		}
		grid = h.navigator.ChangeMonth(offset)
	default:
		view := h.navigator.ViewMonth()
		grid = h.navigator.Month(view.Year(), view.Month())
	}

	WriteJSON(w, http.StatusOK, CalendarView{
		Selected: h.navigator.Selected(),
		Today:    h.navigator.Today().String(),
		Grid:     &grid,
	})
}

// HandleSelected handles GET and PUT /api/calendar/selected.
func (h *CalendarHandler) HandleSelected(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
	case http.MethodPut:
		var body struct {
			Date string `json:"date"`
		}
		if err := DecodeJSON(r, &body); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.navigator.Select(body.Date); err != nil {
			if errors.Is(err, calendar.ErrFutureDate) {
				WriteError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Debug().Str("date", body.Date).Msg("date selected")
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	WriteJSON(w, http.StatusOK, CalendarView{
		Selected: h.navigator.Selected(),
		Today:    h.navigator.Today().String(),
	})
}
