package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/pipeline"
)

// AnalysisRunner runs the extraction pipeline.
type AnalysisRunner interface {
	Run(ctx context.Context, date string) (*models.Report, error)
	Status() pipeline.Status
}

// AnalysisHandler triggers analysis runs and reports their status.
type AnalysisHandler struct {
	logger   *common.Logger
	runner   AnalysisRunner
	selected func() string
}

// NewAnalysisHandler creates a new analysis handler. selected returns the
// date new reports are filed under.
func NewAnalysisHandler(logger *common.Logger, runner AnalysisRunner, selected func() string) *AnalysisHandler {
	return &AnalysisHandler{logger: logger, runner: runner, selected: selected}
}

// HandleStatus handles GET /api/analysis.
func (h *AnalysisHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.runner.Status())
}

// HandleRun handles POST /api/analysis.
func (h *AnalysisHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	date := ""
	if h.selected != nil {
		date = h.selected()
	}

	// A started run completes even if the client goes away.
	report, err := h.runner.Run(context.WithoutCancel(r.Context()), date)
	if err != nil {
		var verr *pipeline.ValidationError
		switch {
		case errors.Is(err, pipeline.ErrBusy):
			WriteJSON(w, http.StatusConflict, map[string]string{"status": "busy"})
		case errors.As(err, &verr):
			WriteError(w, http.StatusUnprocessableEntity, verr.Msg)
		default:
			WriteError(w, http.StatusBadGateway, pipeline.UserMessage(err))
		}
		return
	}

	WriteJSON(w, http.StatusCreated, report)
}
