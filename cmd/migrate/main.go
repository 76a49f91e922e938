package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/finance-ai/internal/config"
	"github.com/Rrens/finance-ai/internal/repository/postgres"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	steps := flag.Int("steps", 1, "number of migrations to roll back with \"down\"")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] up|down|version\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	db := cfg.Storage.Postgres

	log.Info().Str("host", db.Host).Int("port", db.Port).Str("command", command).Msg("Running migrations")

	switch command {
	case "up":
		err = postgres.RunMigrations(db.DSN(), db.MigrationsURL)
	case "down":
		err = postgres.RollbackMigrations(db.DSN(), db.MigrationsURL, *steps)
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = postgres.MigrationVersion(db.DSN(), db.MigrationsURL)
		if err == nil {
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Schema version")
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
