package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/omnibox/pkg/config"
	"github.com/rubiojr/omnibox/pkg/core"
)

// PermissionsCommand creates the permissions command
func PermissionsCommand() *cli.Command {
	change := func(granted bool) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("permission name is required")
			}
			return setPermission(c.String("config"), core.Permission(c.Args().First()), granted)
		}
	}

	return &cli.Command{
		Name:  "permissions",
		Usage: "Grant or revoke provider permissions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List granted permissions",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := config.LoadConfig(c.String("config"))
					if err != nil {
						return fmt.Errorf("loading config: %w", err)
					}
					for _, p := range []core.Permission{core.PermissionContacts, core.PermissionFiles} {
						state := "denied"
						if slices.Contains(cfg.GrantedPermissions(), p) {
							state = "granted"
						}
						fmt.Printf("%-10s %s\n", p, state)
					}
					return nil
				},
			},
			{
				Name:      "grant",
				Usage:     "Grant a permission",
				ArgsUsage: "<contacts|files>",
				Action:    change(true),
			},
			{
				Name:      "revoke",
				Usage:     "Revoke a permission",
				ArgsUsage: "<contacts|files>",
				Action:    change(false),
			},
		},
	}
}

func setPermission(configPath string, perm core.Permission, granted bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if perm != core.PermissionContacts && perm != core.PermissionFiles {
		return fmt.Errorf("unknown permission %q", perm)
	}

	var next []string
	for _, p := range cfg.Permissions.Granted {
		if core.Permission(p) != perm {
			next = append(next, p)
		}
	}
	if granted {
		next = append(next, string(perm))
	}
	cfg.Permissions.Granted = next

	if err := cfg.SaveConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Permission %s granted=%v\n", perm, granted)
	return nil
}
