package badger

import (
	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger.
type Manager struct {
	db      *BadgerDB
	reports interfaces.ReportStorage
	logger  *common.Logger
}

// NewManager creates a new Badger storage manager.
func NewManager(logger *common.Logger) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		reports: NewReportStorage(db, logger),
		logger:  logger,
	}

	logger.Debug().Msg("Badger storage manager initialized")

	return manager, nil
}

// ReportStorage returns the report storage interface.
func (m *Manager) ReportStorage() interfaces.ReportStorage {
	return m.reports
}

// DB returns the underlying database connection.
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
