package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vbonduro/animalexplorer/internal/db"
	"github.com/vbonduro/animalexplorer/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func testRecord(name, animalType string, facts ...string) domain.AnimalRecord {
	rec := domain.DefaultRecord("Unknown")
	rec.Name = name
	rec.AnimalType = animalType
	rec.Facts = append([]string{}, facts...)
	return rec
}
