package repository

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Repository tests run against TEST_DATABASE_URL when set. With
// TEST_POSTGRES_CONTAINER=1 they start a throwaway Postgres in Docker instead.
var (
	pgOnce      sync.Once
	pgContainer testcontainers.Container
	pgURL       string
	pgErr       error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if pgContainer != nil {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "terminate postgres container: %v\n", err)
		}
	}
	os.Exit(code)
}

func testDatabaseURL(t *testing.T) string {
	t.Helper()
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		return url
	}
	if os.Getenv("TEST_POSTGRES_CONTAINER") != "1" {
		t.Skip("TEST_DATABASE_URL not set and TEST_POSTGRES_CONTAINER disabled")
	}

	pgOnce.Do(func() {
		pgURL, pgErr = startPostgres()
	})
	if pgErr != nil {
		t.Fatalf("start postgres container: %v", pgErr)
	}
	return pgURL
}

func startPostgres() (string, error) {
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "courier",
				"POSTGRES_PASSWORD": "courier",
				"POSTGRES_DB":       "courier_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
	})
	if err != nil {
		return "", err
	}
	pgContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("postgres://courier:courier@%s:%s/courier_test?sslmode=disable", host, port.Port()), nil
}
