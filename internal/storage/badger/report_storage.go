package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ReportStorage implements interfaces.ReportStorage using BadgerDB.
type ReportStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewReportStorage creates a report storage backed by BadgerDB.
func NewReportStorage(db *BadgerDB, logger *common.Logger) *ReportStorage {
	return &ReportStorage{
		db:     db,
		logger: logger,
	}
}

// SaveReport stores a report under its ID.
func (s *ReportStorage) SaveReport(_ context.Context, report *models.Report) error {
	if report.ID == "" {
		return errors.New("report id is required")
	}
	if err := s.db.Store().Upsert(report.ID, report); err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ID, err)
	}
	return nil
}

// DeleteReport removes a report. Deleting a missing report is not an error.
func (s *ReportStorage) DeleteReport(_ context.Context, id string) error {
	err := s.db.Store().Delete(id, models.Report{})
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	return nil
}

// ListReports returns every stored report in key order.
func (s *ReportStorage) ListReports(_ context.Context) ([]models.Report, error) {
	var reports []models.Report
	if err := s.db.Store().Find(&reports, nil); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}
