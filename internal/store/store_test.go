// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"

	"readlog/internal/database"
	"readlog/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "readlog")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "readlog")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testGenre inserts a uniquely named genre and removes it, with its
// reviews, when the test finishes.
func testGenre(t *testing.T, db *sql.DB, name string) models.Genre {
	t.Helper()
	g := models.Genre{Name: name, Active: true}
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO genres (name) VALUES ($1) RETURNING id`, name,
	).Scan(&g.ID)
	if err != nil {
		t.Fatalf("insert genre %q: %v", name, err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM book_reviews WHERE genre_id = $1", g.ID)
		db.Exec("DELETE FROM genres WHERE id = $1", g.ID)
	})
	return g
}

// cleanRecords removes records by title. Call in t.Cleanup().
func cleanRecords(t *testing.T, db *sql.DB, titles ...string) {
	t.Helper()
	for _, title := range titles {
		db.Exec("DELETE FROM personal_records WHERE title = $1", title)
	}
}
