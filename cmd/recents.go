package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/omnibox/pkg/config"
	"github.com/rubiojr/omnibox/pkg/storage"
)

// RecentsCommand creates the recents command
func RecentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "recents",
		Usage: "Manage the recent apps shown for an empty query",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recently launched apps",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of apps",
						Value: 20,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return listRecents(ctx, c.String("config"), c.Int("limit"))
				},
			},
			{
				Name:      "add",
				Usage:     "Record a launch of an installed app",
				ArgsUsage: "<desktop-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("app id is required")
					}
					return addRecent(ctx, c.String("config"), c.Args().First())
				},
			},
			{
				Name:  "clear",
				Usage: "Forget all launches",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c.String("config"), func(store *storage.Store) error {
						if err := store.ClearLaunches(ctx); err != nil {
							return err
						}
						fmt.Println("Launch history cleared")
						return nil
					})
				},
			},
		},
	}
}

// withStore opens the configured database for the duration of fn.
func withStore(configPath string, fn func(store *storage.Store) error) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	store, err := storage.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func listRecents(ctx context.Context, configPath string, limit int) error {
	return withStore(configPath, func(store *storage.Store) error {
		launches, err := store.RecentLaunches(ctx, limit)
		if err != nil {
			return err
		}
		if len(launches) == 0 {
			fmt.Println(noDataStyle.Render("No launches recorded"))
			return nil
		}
		for i, l := range launches {
			fmt.Printf("%2d. %-30s %s\n", i+1, l.App.Name,
				metaStyle.Render(l.LaunchedAt.Local().Format(time.DateTime)+"  "+l.App.ID))
		}
		return nil
	})
}

func addRecent(ctx context.Context, configPath, id string) error {
	rt, err := openRuntime(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	app, err := rt.apps.Launch(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded launch of %s\n", app.Name)
	return nil
}
