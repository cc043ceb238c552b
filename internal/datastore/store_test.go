// store_test.go: shared helpers for datastore tests
package datastore

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DataStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&DiveSite{}, &Coral{}, &Observation{})
	require.NoError(t, err)

	return &DataStore{DB: db}
}

// seedSite inserts a dive site and returns it
func seedSite(t *testing.T, ds *DataStore, name string) DiveSite {
	t.Helper()

	site := DiveSite{Name: name}
	require.NoError(t, ds.DB.Create(&site).Error)
	return site
}
