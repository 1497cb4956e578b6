package storage

import (
	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/interfaces"
	"github.com/minkyuuuu/kiwoom-dashboard/internal/storage/badger"
)

// NewStorageManager creates the storage manager. Reports are held in an
// in-memory Badger database for the lifetime of the process.
func NewStorageManager(logger *common.Logger) (interfaces.StorageManager, error) {
	return badger.NewManager(logger)
}
