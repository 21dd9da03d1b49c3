package telstore

import (
	"fmt"
	"os"
	"sync"

	"github.com/fleetsight/fleetsight/internal/contract"
	"github.com/fleetsight/fleetsight/schema"
)

// Manager provides access to the process-wide result store.
type Manager struct {
	resultStore contract.ResultStore
}

var _ contract.StoreManager = &Manager{} // Compile-time check

// GetResultStore returns the result store instance.
func (m *Manager) GetResultStore() contract.ResultStore {
	return m.resultStore
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// InitStores initializes the global store manager exactly once. Later calls
// return the already-initialized manager regardless of arguments.
func InitStores(backend schema.DatabaseBackend, connStr string) (*Manager, error) {
	var initErr error
	managerOnce.Do(func() {
		store, err := NewResultStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize result store: %w", err)
			return
		}
		globalManager = &Manager{resultStore: store}
	})
	if initErr != nil {
		return nil, initErr
	}
	if globalManager == nil {
		return nil, fmt.Errorf("store manager initialization previously failed")
	}
	return globalManager, nil
}

// GetManager returns the global manager, or nil when InitStores has not
// succeeded.
func GetManager() *Manager {
	return globalManager
}

// CloseStores closes the global result store if one was initialized.
func CloseStores() error {
	if globalManager == nil || globalManager.resultStore == nil {
		return nil
	}
	return globalManager.resultStore.Close()
}

// ClearResults removes all persisted results. For SQLite this deletes the
// database file; for server backends it drops the result tables.
func ClearResults(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.NoneBackend:
		return nil

	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetStoreDBFilePath()
		}
		if err := os.Remove(dbPath); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("failed to remove SQLite database %q: %w", dbPath, err)
		}
		return nil

	default: // MySQL and PostgreSQL
		store, err := NewResultStore(backend, connStr)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		impl, ok := store.(*ResultStoreImpl)
		if !ok || impl.db == nil {
			return fmt.Errorf("cannot clear results: store is not connected")
		}
		for _, table := range []string{anomaliesTable, quarantineTable, runsTable} {
			if _, err := impl.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}
		return nil
	}
}
