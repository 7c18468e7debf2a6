// Package main applies the daifugo schema migrations up or down against
// the database named in the server configuration.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/viper"

	"github.com/kmorita/daifugo/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "server configuration file")
	migrationsDir := flag.String("migrations", "migrations", "directory holding the SQL migration files")
	direction := flag.String("direction", "up", "up or down")
	steps := flag.Int("steps", 0, "limit to this many steps (0 applies everything)")
	flag.Parse()

	if err := run(*configPath, *migrationsDir, *direction, *steps); err != nil {
		log.Fatal(err)
	}
}

func run(configPath, migrationsDir, direction string, steps int) error {
	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	var dbCfg config.DatabaseConfig
	if err := v.Sub("database").Unmarshal(&dbCfg); err != nil {
		return fmt.Errorf("parsing database config: %w", err)
	}

	m, err := migrate.New("file://"+migrationsDir, dbCfg.DSN())
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating %s: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	switch {
	case errors.Is(verr, migrate.ErrNilVersion):
		fmt.Println("schema is empty")
	case verr != nil:
		return fmt.Errorf("reading schema version: %w", verr)
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Printf("schema already at version %d (dirty=%v)\n", version, dirty)
	default:
		fmt.Printf("schema now at version %d (dirty=%v)\n", version, dirty)
	}
	return nil
}
