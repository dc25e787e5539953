// Package testutil provides test helpers, including database container
// management for integration tests.
package testutil

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/worldforge/internal/config"
	"github.com/cory-johannsen/worldforge/internal/storage/postgres"
)

// PostgresContainer wraps a throwaway PostgreSQL instance for repository
// tests. Pool is connected through the production constructor so tests
// cover the same path the forge binary takes.
type PostgresContainer struct {
	Pool *pgxpool.Pool
}

// NewPostgresContainer starts a PostgreSQL container and connects to it.
// Container and pool are torn down via t.Cleanup.
//
// Precondition: Docker must be available.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "forge",
				"POSTGRES_PASSWORD": "forge",
				"POSTGRES_DB":       "world",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminating container: %v", err)
		}
	})

	endpoint, err := ctr.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("resolving container endpoint: %v", err)
	}
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		t.Fatalf("parsing endpoint %q: %v", endpoint, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parsing endpoint port %q: %v", portStr, err)
	}

	pool, err := postgres.NewPool(ctx, config.DatabaseConfig{
		Host:            host,
		Port:            port,
		User:            "forge",
		Password:        "forge",
		Name:            "world",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	})
	if err != nil {
		t.Fatalf("connecting to test postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	t.Logf("postgres container ready [%s]", time.Since(start))
	return &PostgresContainer{Pool: pool.Pool}
}

// ApplyWorldSchema creates the world tables a build writes into. Tests use
// this instead of the migrate tool so the container stays self-contained.
//
// Precondition: Pool must be connected.
// Postcondition: Every table the builtin catalog targets exists.
func (pc *PostgresContainer) ApplyWorldSchema(t *testing.T) {
	t.Helper()

	schema := `
		CREATE TABLE IF NOT EXISTS creature_template (
			entry             INTEGER PRIMARY KEY,
			name              TEXT NOT NULL,
			subname           TEXT NOT NULL DEFAULT '',
			minlevel          INTEGER NOT NULL DEFAULT 1,
			maxlevel          INTEGER NOT NULL DEFAULT 1,
			faction           INTEGER NOT NULL DEFAULT 35,
			npcflag           INTEGER NOT NULL DEFAULT 0,
			unit_flags        INTEGER NOT NULL DEFAULT 0,
			speed_walk        REAL NOT NULL DEFAULT 1,
			speed_run         REAL NOT NULL DEFAULT 1.14286,
			scale             REAL NOT NULL DEFAULT 1,
			rank              INTEGER NOT NULL DEFAULT 0,
			dmg_multiplier    REAL NOT NULL DEFAULT 1,
			health_multiplier REAL NOT NULL DEFAULT 1,
			mana_multiplier   REAL NOT NULL DEFAULT 1,
			armor_multiplier  REAL NOT NULL DEFAULT 1,
			modelid1          INTEGER NOT NULL DEFAULT 0,
			modelid2          INTEGER NOT NULL DEFAULT 0,
			movement_type     INTEGER NOT NULL DEFAULT 0,
			ai_name           TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS creature (
			guid            INTEGER PRIMARY KEY,
			id              INTEGER NOT NULL,
			map             INTEGER NOT NULL DEFAULT 0,
			position_x      REAL NOT NULL DEFAULT 0,
			position_y      REAL NOT NULL DEFAULT 0,
			position_z      REAL NOT NULL DEFAULT 0,
			orientation     REAL NOT NULL DEFAULT 0,
			spawntimesecs   INTEGER NOT NULL DEFAULT 120,
			wander_distance REAL NOT NULL DEFAULT 0,
			movement_type   INTEGER NOT NULL DEFAULT 0,
			path_id         INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS npc_vendor (
			entry         INTEGER NOT NULL,
			slot          INTEGER NOT NULL DEFAULT 0,
			item          INTEGER NOT NULL,
			maxcount      INTEGER NOT NULL DEFAULT 0,
			incrtime      INTEGER NOT NULL DEFAULT 0,
			extended_cost INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (entry, item)
		);
		CREATE TABLE IF NOT EXISTS npc_trainer (
			entry     INTEGER NOT NULL,
			spell     INTEGER NOT NULL,
			spellcost INTEGER NOT NULL DEFAULT 0,
			reqlevel  INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (entry, spell)
		);
		CREATE TABLE IF NOT EXISTS waypoint_data (
			id         INTEGER NOT NULL,
			point      INTEGER NOT NULL,
			position_x REAL NOT NULL DEFAULT 0,
			position_y REAL NOT NULL DEFAULT 0,
			position_z REAL NOT NULL DEFAULT 0,
			delay      INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (id, point)
		);
		CREATE TABLE IF NOT EXISTS creature_text (
			entry       INTEGER NOT NULL,
			groupid     INTEGER NOT NULL DEFAULT 0,
			id          INTEGER NOT NULL DEFAULT 0,
			text        TEXT NOT NULL,
			type        INTEGER NOT NULL DEFAULT 12,
			language    INTEGER NOT NULL DEFAULT 0,
			probability REAL NOT NULL DEFAULT 100,
			comment     TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (entry, groupid, id)
		);
	`

	if _, err := pc.Pool.Exec(context.Background(), schema); err != nil {
		t.Fatalf("applying world schema: %v", err)
	}
}
