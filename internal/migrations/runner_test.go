package migrations

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestUpDown(t *testing.T) {
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Up(db))
	version, err := Version(db)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)

	for _, table := range []string{"users", "products", "orders", "trackings", "wishlist_items"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	require.NoError(t, Down(db))
	version, err = Version(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = 'orders'`).Scan(&count))
	assert.Zero(t, count)
}
