package workflow

import (
	"fmt"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"gorm.io/gorm"
)

const rebuildLockName = "inv_rebuild_totals"

// acquireRebuildLock serializes RebuildTotals across instances using database advisory locks.
// GET_LOCK is connection-scoped, so it must run on the same *gorm.DB as the rebuild transaction.
// Postgres uses a transaction-scoped lock released at commit; SQLite has a single writer already.
func acquireRebuildLock(tx *gorm.DB) error {
	switch tx.Dialector.Name() {
	case config.DriverMySQL:
		var ok int
		if err := tx.Raw("SELECT GET_LOCK(?, 30)", rebuildLockName).Scan(&ok).Error; err != nil {
			return err
		}
		if ok != 1 {
			return fmt.Errorf("could not acquire rebuild lock %s", rebuildLockName)
		}
	case config.DriverPostgres:
		return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", rebuildLockName).Error
	}
	return nil
}

func releaseRebuildLock(tx *gorm.DB) {
	if tx.Dialector.Name() != config.DriverMySQL {
		return
	}
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", rebuildLockName).Scan(&_ok).Error
}
