package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createSmartContractTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE smart_contracts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		chain_id TEXT NOT NULL,
		contract_address TEXT NOT NULL,
		abi TEXT NOT NULL,
		tags TEXT DEFAULT '{}',
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}

func createContractTransactionTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE contract_transactions (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL,
		function TEXT NOT NULL,
		args TEXT NOT NULL DEFAULT '[]',
		from_address TEXT NOT NULL,
		tx_hash TEXT NOT NULL UNIQUE,
		nonce TEXT,
		value TEXT,
		status TEXT NOT NULL DEFAULT 'PENDING',
		block_number INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}
