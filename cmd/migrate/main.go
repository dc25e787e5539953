// Package main provides the schema migration runner for the world database.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/cory-johannsen/worldforge/internal/config"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/forge.yaml", "path to configuration file")
	migrationsDir := flag.String("path", "migrations", "path to migration files")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	m, err := migrate.New("file://"+*migrationsDir, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("creating migrator: %v", err)
	}
	defer m.Close()

	if err := step(m, *direction, *steps); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migrate: %v", err)
		}
		fmt.Fprintf(os.Stdout, "world schema unchanged %s\n", status(m, start))
		return
	}
	fmt.Fprintf(os.Stdout, "world schema migrated %s %s\n", *direction, status(m, start))
}

// step applies the requested migration. A step count of zero means all the
// way in the given direction.
func step(m *migrate.Migrate, direction string, steps int) error {
	switch direction {
	case "up":
		if steps > 0 {
			return m.Steps(steps)
		}
		return m.Up()
	case "down":
		if steps > 0 {
			return m.Steps(-steps)
		}
		return m.Down()
	}
	return fmt.Errorf("unknown direction %q, want up or down", direction)
}

func status(m *migrate.Migrate, start time.Time) string {
	version, dirty, _ := m.Version()
	return fmt.Sprintf("(version=%d dirty=%v) [%s]", version, dirty, time.Since(start))
}
