// Package reports keeps the ordered collection of extraction reports and the
// active selection shown to the user.
package reports

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/interfaces"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
)

// ErrReportNotFound is returned for an unknown report ID.
var ErrReportNotFound = errors.New("report not found")

// EndOfDay is the sort time of reports without an extracted time.
const EndOfDay = "23:59"

// Selection is the active report and the stock ranking shown for it.
type Selection struct {
	ActiveID string          `json:"active_id,omitempty"`
	ViewMode models.ViewMode `json:"view_mode"`
}

// Store holds every report sorted by (date, effective time). The active
// report, when set, always exists in the collection.
type Store struct {
	mu      sync.RWMutex
	reports []models.Report
	active  string
	mode    models.ViewMode
	storage interfaces.ReportStorage
	logger  *common.Logger
}

// NewStore creates a store backed by storage and loads any reports it
// already holds. A nil storage keeps reports in memory only.
func NewStore(ctx context.Context, storage interfaces.ReportStorage, logger *common.Logger) (*Store, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Store{
		mode:    models.ViewRealtime,
		storage: storage,
		logger:  logger,
	}
	if storage == nil {
		return s, nil
	}

	existing, err := storage.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}
	s.reports = existing
	sortReports(s.reports)
	logger.Debug().Int("reports", len(existing)).Msg("report store loaded")
	return s, nil
}

// EffectiveTime is the sort key of a report timestamp: "current" becomes
// 23:59 and a parseable h:mm is zero-padded. Anything else sorts as written.
func EffectiveTime(timestamp string) string {
	if timestamp == models.TimestampCurrent {
		return EndOfDay
	}
	h, m, ok := strings.Cut(strings.TrimSpace(timestamp), ":")
	if !ok {
		return timestamp
	}
	hour, herr := strconv.Atoi(h)
	minute, merr := strconv.Atoi(m)
	if herr != nil || merr != nil || hour < 0 || minute < 0 {
		return timestamp
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func sortReports(reports []models.Report) {
	slices.SortStableFunc(reports, func(a, b models.Report) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(EffectiveTime(a.Timestamp), EffectiveTime(b.Timestamp))
	})
}

// Insert adds a report, re-sorts the collection and makes the report active.
// If storage rejects the report nothing changes.
func (s *Store) Insert(ctx context.Context, report models.Report) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(report.ID) >= 0 {
		return s.selectionLocked(), fmt.Errorf("report %s already exists", report.ID)
	}
	if s.storage != nil {
		if err := s.storage.SaveReport(ctx, &report); err != nil {
			return s.selectionLocked(), err
		}
	}

	s.reports = append(s.reports, cloneReport(report))
	sortReports(s.reports)
	s.active = report.ID
	s.mode = report.DefaultViewMode()

	s.logger.Debug().
		Str("report_id", report.ID).
		Str("date", report.Date).
		Str("timestamp", report.Timestamp).
		Msg("report inserted")

	return s.selectionLocked(), nil
}

// Delete removes a report. When the active report is deleted the selection
// falls back to the last remaining report of the same date, or to none.
func (s *Store) Delete(ctx context.Context, id string) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return s.selectionLocked(), fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if s.storage != nil {
		if err := s.storage.DeleteReport(ctx, id); err != nil {
			return s.selectionLocked(), err
		}
	}

	date := s.reports[idx].Date
	s.reports = slices.Delete(s.reports, idx, idx+1)

	if s.active == id {
		s.active = ""
		for i := len(s.reports) - 1; i >= 0; i-- {
			if s.reports[i].Date == date {
				s.active = s.reports[i].ID
				s.mode = s.reports[i].DefaultViewMode()
				break
			}
		}
	}

	s.logger.Debug().Str("report_id", id).Str("active", s.active).Msg("report deleted")

	return s.selectionLocked(), nil
}

// Select makes a report active and resets the view mode as Insert does.
func (s *Store) Select(id string) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return s.selectionLocked(), fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	s.active = id
	s.mode = s.reports[idx].DefaultViewMode()
	return s.selectionLocked(), nil
}

// SetViewMode switches the stock ranking shown for the active report.
func (s *Store) SetViewMode(mode models.ViewMode) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	return s.selectionLocked()
}

// FilterByDate returns the reports of one date in display order.
func (s *Store) FilterByDate(date string) []models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Report, 0)
	for _, r := range s.reports {
		if r.Date == date {
			out = append(out, cloneReport(r))
		}
	}
	return out
}

// Get returns one report by ID.
func (s *Store) Get(id string) (models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return models.Report{}, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	return cloneReport(s.reports[idx]), nil
}

// All returns every report in display order.
func (s *Store) All() []models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Report, len(s.reports))
	for i, r := range s.reports {
		out[i] = cloneReport(r)
	}
	return out
}

// Selection returns the active report ID and view mode.
func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectionLocked()
}

// ActiveFor returns the active report if it belongs to date.
func (s *Store) ActiveFor(date string) (models.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(s.active)
	if idx < 0 || s.reports[idx].Date != date {
		return models.Report{}, false
	}
	return cloneReport(s.reports[idx]), true
}

// cloneReport copies the ranking slices so callers never share backing
// arrays with the store.
func cloneReport(r models.Report) models.Report {
	r.RealtimeStocks = slices.Clone(r.RealtimeStocks)
	r.CumulativeStocks = slices.Clone(r.CumulativeStocks)
	r.ThemesByRank = slices.Clone(r.ThemesByRank)
	r.ThemesByChange = slices.Clone(r.ThemesByChange)
	return r
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.reports, func(r models.Report) bool { return r.ID == id })
}

func (s *Store) selectionLocked() Selection {
	return Selection{ActiveID: s.active, ViewMode: s.mode}
}
