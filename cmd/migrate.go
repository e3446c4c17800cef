package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/omnibox/pkg/config"
	"github.com/rubiojr/omnibox/pkg/db"
	"github.com/rubiojr/omnibox/pkg/storage"
)

// MigrateCommand creates the migrate command
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Show migration status without applying migrations",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runMigrations(c.String("config"), c.Bool("status"), os.Stdout)
		},
	}
}

func runMigrations(configPath string, statusOnly bool, out io.Writer) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	dbPath := cfg.DBPath()

	if !statusOnly {
		store, err := storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		if err := store.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}

	status, err := storage.MigrationStatus(dbPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, titleStyle.Render("Database: "+dbPath))
	printMigrationStatus(out, status)
	return nil
}

func printMigrationStatus(out io.Writer, status *db.MigrationStatus) {
	fmt.Fprintf(out, "Applied migrations: %d\n", len(status.Applied))
	for _, m := range status.Applied {
		applied := "unknown"
		if m.AppliedAt != nil {
			applied = m.AppliedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(out, "  ✓ %03d: %s %s\n", m.Version, m.Name, metaStyle.Render("(applied: "+applied+")"))
	}

	fmt.Fprintf(out, "Pending migrations: %d\n", len(status.Pending))
	for _, m := range status.Pending {
		fmt.Fprintf(out, "  • %03d: %s\n", m.Version, m.Name)
	}
	if len(status.Pending) == 0 {
		fmt.Fprintln(out, noDataStyle.Render("  (none - database is up to date)"))
	}
}
