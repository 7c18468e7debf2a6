// Package testutil provides test helpers: container management, in-memory
// fakes for the hub's collaborators, and a line-protocol test client.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kmorita/daifugo/internal/config"
	"github.com/kmorita/daifugo/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container and returns
// a connected Pool.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a connected pool,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}

	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}

	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(ctx)
	})

	return pc
}

// ApplySchema creates the players and room_gates tables directly for
// tests, avoiding the migrate tool in the test environment.
//
// Precondition: Pool must be connected.
// Postcondition: Both tables exist and the given ports have open gates.
func (pc *PostgresContainer) ApplySchema(t *testing.T, gatePorts ...int) {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	schema := `
		CREATE TABLE IF NOT EXISTS players (
			id                BIGSERIAL    PRIMARY KEY,
			username          VARCHAR(64)  NOT NULL UNIQUE,
			password_hash     TEXT         NOT NULL,
			points            INTEGER      NOT NULL DEFAULT 0,
			tournament_points INTEGER      NOT NULL DEFAULT 0,
			logged_in         BOOLEAN      NOT NULL DEFAULT FALSE,
			created_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_players_username ON players (username);
		CREATE TABLE IF NOT EXISTS room_gates (
			port       INTEGER     PRIMARY KEY,
			min_points INTEGER     NOT NULL DEFAULT 0,
			open       BOOLEAN     NOT NULL DEFAULT TRUE
		);
	`

	if _, err := pc.RawPool.Exec(ctx, schema); err != nil {
		t.Fatalf("applying schema: %v", err)
	}
	for _, port := range gatePorts {
		_, err := pc.RawPool.Exec(ctx,
			`INSERT INTO room_gates (port) VALUES ($1) ON CONFLICT (port) DO NOTHING`,
			port,
		)
		if err != nil {
			t.Fatalf("seeding room gate: %v", err)
		}
	}
	t.Logf("schema applied [%s]", time.Since(start))
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return pc.Config.DSN()
}
