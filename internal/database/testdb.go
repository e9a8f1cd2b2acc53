//go:build integration

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"codetech/internal/observability"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
)

var (
	containerOnce sync.Once
	containerURL  string
	containerErr  error
)

// TestDatabaseURL returns TEST_DATABASE_URL, or starts a throwaway postgres
// container shared by every test in the package.
func TestDatabaseURL(t testing.TB) string {
	t.Helper()

	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		return url
	}

	containerOnce.Do(func() {
		containerURL, containerErr = startPostgresContainer()
	})
	if containerErr != nil {
		t.Skipf("no TEST_DATABASE_URL and docker unavailable: %v", containerErr)
	}
	return containerURL
}

func startPostgresContainer() (string, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return "", fmt.Errorf("connect to docker: %w", err)
	}
	if err := pool.Client.Ping(); err != nil {
		return "", fmt.Errorf("ping docker: %w", err)
	}
	pool.MaxWait = 2 * time.Minute

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=codetech",
			"POSTGRES_PASSWORD=codetech",
			"POSTGRES_DB=codetech_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return "", fmt.Errorf("start postgres: %w", err)
	}
	// The container outlives individual tests; docker reaps it after this many seconds.
	_ = resource.Expire(600)

	url := fmt.Sprintf("postgres://codetech:codetech@%s/codetech_test?sslmode=disable", resource.GetHostPort("5432/tcp"))
	if err := pool.Retry(func() error {
		db, err := sql.Open("postgres", url)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	}); err != nil {
		_ = pool.Purge(resource)
		return "", fmt.Errorf("wait for postgres: %w", err)
	}
	return url, nil
}

// SetupTestDB migrates the test database, truncates every table and returns an open pool
func SetupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	url := TestDatabaseURL(t)
	cfg := DefaultDatabaseConfig(url)
	cfg.MaxOpenConns = 5

	db, err := NewManager(observability.NewNopLogger()).InitDB(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	CleanupTestDB(t, db)
	return db
}

// CleanupTestDB removes all rows and resets identities
func CleanupTestDB(t testing.TB, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE user_challenges, user_goals, user_activity, user_progress,
		user_quiz_progress, user_quiz_completion, choices, questions, quizzes, levels, subjects, users
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}
