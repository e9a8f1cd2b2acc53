//go:build integration

package services

import (
	"database/sql"
	"testing"

	"codetech/internal/database"
)

// SharedTestDBSetup provides a migrated, truncated database for an integration test
func SharedTestDBSetup(t *testing.T) *sql.DB {
	t.Helper()
	return database.SetupTestDB(t)
}
