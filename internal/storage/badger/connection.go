package badger

import (
	"fmt"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// BadgerDB manages the Badger database connection. The database is opened in
// memory; nothing outlives the process.
type BadgerDB struct {
	store  *badgerhold.Store
	logger *common.Logger
}

// NewBadgerDB opens an in-memory Badger database.
func NewBadgerDB(logger *common.Logger) (*BadgerDB, error) {
	logger.Debug().Msg("opening in-memory Badger database")

	options := badgerhold.DefaultOptions
	options.InMemory = true
	options.Dir = ""
	options.ValueDir = ""
	options.Logger = nil // Disable default badger logger

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Msg("Badger database initialized")

	return &BadgerDB{
		store:  store,
		logger: logger,
	}, nil
}

// Store returns the underlying badgerhold store.
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// Close closes the database connection.
func (b *BadgerDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
