package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/lib/pq"

	"github.com/asakaida/purosesu/internal/infrastructure/config"
	"github.com/asakaida/purosesu/internal/infrastructure/database"
)

// SetupTestDB connects to the test database and runs migrations. Tests
// that need a live PostgreSQL are skipped when none is reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	if err := config.InitConfig("test"); err != nil {
		t.Fatalf("Failed to init config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Skipf("Skipping: test config unavailable: %v", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Skipf("Skipping: postgres not available: %v", err)
	}

	if err := pg.RunMigrations("../../../internal/infrastructure/database/migrations/postgres"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return pg.DB
}

// CleanupTestDB closes the database connection and cleans up test data.
// Junction tables go first to satisfy the foreign keys.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{
		"department_process", "location_process", "resource_process", "role_process",
		"process", "departments", "locations", "resources", "roles", "users",
	}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("Warning: Failed to clean up table %s: %v", table, err)
		}
	}

	if err := db.Close(); err != nil {
		t.Logf("Warning: Failed to close database: %v", err)
	}
}

// seedTestData inserts a user, two entries per catalog and returns the ids.
func seedTestData(t *testing.T, db *sql.DB) (userID int64, catalogIDs map[string][]int64) {
	t.Helper()

	if err := db.QueryRow(
		"INSERT INTO users (title, created_at) VALUES ('test user', NOW()) RETURNING id",
	).Scan(&userID); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	catalogIDs = make(map[string][]int64)
	for _, table := range []string{"departments", "locations", "resources", "roles"} {
		for i := 1; i <= 2; i++ {
			var id int64
			query := fmt.Sprintf(
				"INSERT INTO %s (title, created_by_id, created_at) VALUES ($1, $2, NOW()) RETURNING id", table,
			)
			if err := db.QueryRow(query, fmt.Sprintf("%s %d", table, i), userID).Scan(&id); err != nil {
				t.Fatalf("Failed to seed %s: %v", table, err)
			}
			catalogIDs[table] = append(catalogIDs[table], id)
		}
	}

	return userID, catalogIDs
}
