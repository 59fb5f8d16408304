package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenForTestingAppliesSchema(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	for _, table := range []string{"sessions", "detections", "messages"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestOpenForTestingIsPrivate(t *testing.T) {
	a, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })
	b, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, b.Close()) })

	_, err = a.Exec("INSERT INTO sessions (id) VALUES ('only-in-a')")
	require.NoError(t, err)

	var n int
	require.NoError(t, b.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n))
	assert.Equal(t, 0, n)
}

func TestOpenFileIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explorer.db")

	first, err := Open(path)
	require.NoError(t, err)
	_, err = first.Exec("INSERT INTO sessions (id) VALUES ('persisted')")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, second.Close()) })

	var n int
	require.NoError(t, second.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = 'persisted'").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestForeignKeysCascade(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	_, err = db.Exec("INSERT INTO sessions (id) VALUES ('s1')")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO messages (session_id, role, content) VALUES ('s1', 'user', 'hi')")
	require.NoError(t, err)
	_, err = db.Exec("DELETE FROM sessions WHERE id = 's1'")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n))
	assert.Equal(t, 0, n)
}
