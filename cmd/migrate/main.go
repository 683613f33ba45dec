package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/catering-backend/pkg/config"
	"github.com/angelmondragon/catering-backend/pkg/db"
	"github.com/angelmondragon/catering-backend/pkg/logger"
	"github.com/angelmondragon/catering-backend/pkg/migrate"
)

const usage = "migration command: up|down|status|to|create|validate"

func main() {
	cmd := flag.String("cmd", "up", usage)
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target YYYYMMDDHHMMSS version for -cmd=to")
	flag.Parse()

	_ = godotenv.Load()

	// create and validate work on files only and need no config
	switch *cmd {
	case "create":
		target := *dir
		if target == "" {
			target = migrate.SourceDir
		}
		path, err := migrate.Create(target, *name, time.Now())
		exitOn(err, "create migration")
		fmt.Println("created migration:", path)
		return
	case "validate":
		exitOn(migrate.Validate(migrate.Source(*dir)), "validate migrations")
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	exitOn(err, "load config")
	if cfg.FeatureFlags.UseSQLite {
		exitOn(fmt.Errorf("goose migrations require postgres; unset CATERING_USE_SQLITE"), "open database")
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, false, logg)
	exitOn(err, "open database")
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	exitOn(err, "open database")
	m, err := migrate.New(sqlDB, migrate.Source(*dir))
	exitOn(err, "load migrations")

	if err := run(ctx, m, *cmd, *version); err != nil {
		logg.Error(ctx, "migration failed", err)
		dbClient.Close()
		os.Exit(1)
	}
	logg.Info(ctx, "migration command finished")
}

func run(ctx context.Context, m *migrate.Migrator, cmd, version string) error {
	switch cmd {
	case "up":
		applied, err := m.Up(ctx)
		for _, v := range applied {
			fmt.Println("applied", v)
		}
		return err
	case "down":
		v, err := m.Down(ctx)
		if err == nil {
			fmt.Println("rolled back", v)
		}
		return err
	case "to":
		return m.To(ctx, version)
	case "status":
		rows, err := m.Status(ctx)
		if err != nil {
			return err
		}
		return printStatus(rows)
	}
	return fmt.Errorf("unknown -cmd %q (%s)", cmd, usage)
}

func printStatus(rows []migrate.Status) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATE\tFILE")
	for _, r := range rows {
		state := "pending"
		if r.Applied {
			state = "applied"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", r.Version, state, r.Path)
	}
	return w.Flush()
}

func exitOn(err error, step string) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}

