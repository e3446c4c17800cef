package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/omnibox/cmd"
	"github.com/rubiojr/omnibox/pkg/config"
	olog "github.com/rubiojr/omnibox/pkg/log"
)

func main() {
	app := &cli.Command{
		Name:  "omnibox",
		Usage: "Launcher search box: apps, URLs and prefix-routed providers",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			olog.SetGlobalDebug(c.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.SearchCommand(),
			cmd.ShellCommand(),
			cmd.ServeCommand(),
			cmd.PrefixesCommand(),
			cmd.PermissionsCommand(),
			cmd.AppsCommand(),
			cmd.RecentsCommand(),
			cmd.ContactsCommand(),
			cmd.MigrateCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		log.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
