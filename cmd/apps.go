package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/omnibox/pkg/apps"
	"github.com/rubiojr/omnibox/pkg/config"
)

// AppsCommand creates the apps command
func AppsCommand() *cli.Command {
	return &cli.Command{
		Name:  "apps",
		Usage: "Inspect the installed app catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List installed apps",
				Action: func(ctx context.Context, c *cli.Command) error {
					return listApps(ctx, c.String("config"), false)
				},
			},
			{
				Name:  "refresh",
				Usage: "Rescan desktop entries and rewrite the cache",
				Action: func(ctx context.Context, c *cli.Command) error {
					return listApps(ctx, c.String("config"), true)
				},
			},
		},
	}
}

func listApps(ctx context.Context, configPath string, refresh bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cachePath := ""
	if cfg.Apps.Cache {
		cachePath = filepath.Join(cfg.StorageDir, apps.CacheFile)
	}
	catalog := apps.NewCatalog(cfg.Apps.Dirs, cachePath)

	load := catalog.Load
	if refresh {
		load = catalog.Refresh
	}
	if err := load(ctx); err != nil {
		return fmt.Errorf("loading apps: %w", err)
	}

	installed := catalog.InstalledApps()
	for _, app := range installed {
		fmt.Printf("%-40s %s\n", app.ID, app.Name)
	}
	fmt.Println(metaStyle.Render(fmt.Sprintf("%d apps", len(installed))))
	return nil
}
