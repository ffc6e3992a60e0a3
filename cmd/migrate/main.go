// Command migrate applies or rolls back the embedded schema migrations.
//
// Usage:
//
//	migrate up
//	migrate down [steps]
//	migrate version
//	migrate force <version>
//	migrate list
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/ignite/channel-attribution/internal/config"
	"github.com/ignite/channel-attribution/internal/database"
	"github.com/ignite/channel-attribution/internal/pkg/logger"
)

const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitUsage
	}

	if args[0] == "list" {
		names, err := database.MigrationNames()
		if err != nil {
			logger.Error("list migrations", "error", err.Error())
			return exitFailure
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return exitSuccess
	}

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("load config", "error", err.Error())
		return exitFailure
	}
	if cfg.Database.URL == "" {
		logger.Error("DATABASE_URL is required")
		return exitFailure
	}

	db, err := database.Open(context.Background(), cfg.Database)
	if err != nil {
		logger.Error("connect", "error", err.Error())
		return exitFailure
	}
	defer db.Close()

	mg, err := database.NewMigrator(db)
	if err != nil {
		logger.Error("init migrator", "error", err.Error())
		return exitFailure
	}

	switch args[0] {
	case "up":
		changed, err := mg.Up()
		if err != nil {
			logger.Error("migrate up", "error", err.Error())
			return exitFailure
		}
		logger.Info("migrate up complete", "changed", changed)

	case "down":
		steps := 1
		if len(args) > 1 {
			if steps, err = strconv.Atoi(args[1]); err != nil || steps < 1 {
				fmt.Fprintf(os.Stderr, "invalid step count %q\n", args[1])
				return exitUsage
			}
		}
		changed, err := mg.Down(steps)
		if err != nil {
			logger.Error("migrate down", "error", err.Error())
			return exitFailure
		}
		logger.Info("migrate down complete", "steps", steps, "changed", changed)

	case "version":
		v, dirty, err := mg.Version()
		if err != nil {
			logger.Error("migrate version", "error", err.Error())
			return exitFailure
		}
		fmt.Printf("version %d (dirty=%t)\n", v, dirty)

	case "force":
		if len(args) < 2 {
			usage()
			return exitUsage
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid version %q\n", args[1])
			return exitUsage
		}
		if err := mg.Force(v); err != nil {
			logger.Error("migrate force", "error", err.Error())
			return exitFailure
		}
		logger.Info("migration version forced", "version", v)

	default:
		usage()
		return exitUsage
	}
	return exitSuccess
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up | down [steps] | version | force <version> | list")
}
