package interfaces

import (
	"context"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
)

// StorageManager provides access to domain-specific storage interfaces.
type StorageManager interface {
	ReportStorage() ReportStorage
	DB() interface{}
	Close() error
}

// ReportStorage persists immutable reports by ID.
type ReportStorage interface {
	SaveReport(ctx context.Context, report *models.Report) error
	DeleteReport(ctx context.Context, id string) error
	ListReports(ctx context.Context) ([]models.Report, error)
}
