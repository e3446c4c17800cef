package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/omnibox/pkg/config"
	"github.com/rubiojr/omnibox/pkg/core"
)

// PrefixesCommand creates the prefixes command
func PrefixesCommand() *cli.Command {
	return &cli.Command{
		Name:  "prefixes",
		Usage: "Show and change provider prefixes",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List providers with their active prefixes",
				Action: func(ctx context.Context, c *cli.Command) error {
					return listPrefixes(c.String("config"))
				},
			},
			{
				Name:      "set",
				Usage:     "Replace the prefixes of a provider; no prefixes restores its default",
				ArgsUsage: "<provider> [prefix...]",
				Action: func(ctx context.Context, c *cli.Command) error {
					args := c.Args().Slice()
					if len(args) < 1 {
						return fmt.Errorf("provider name is required")
					}
					return setPrefixes(c.String("config"), args[0], args[1:])
				},
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return listPrefixes(c.String("config"))
		},
	}
}

// buildRegistry creates the configured providers without opening storage.
func buildRegistry(cfg *config.Config) (*core.Registry, error) {
	registry := core.GetGlobalRegistry()
	env := &core.Env{Permissions: core.NewPermissions(cfg.GrantedPermissions()...)}
	if err := createProvidersFromConfig(registry, cfg, env); err != nil {
		return nil, fmt.Errorf("creating providers: %w", err)
	}
	return registry, nil
}

func listPrefixes(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	fmt.Print(formatPrefixes(registry.Snapshot()))
	return nil
}

func formatPrefixes(idx *core.Index) string {
	var b strings.Builder
	for _, p := range idx.Providers() {
		desc := p.Descriptor()
		prefixes := idx.PrefixesFor(desc.ID)
		line := fmt.Sprintf("%-12s %-10s %s", desc.ID, desc.Type, strings.Join(prefixes, ", "))
		if len(prefixes) == 0 {
			line = fmt.Sprintf("%-12s %-10s %s", desc.ID, desc.Type, noDataStyle.Render("(unreachable)"))
		}
		if desc.Permission != core.PermissionNone {
			line += " " + metaStyle.Render(fmt.Sprintf("[needs %s]", desc.Permission))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, c := range idx.Conflicts() {
		b.WriteString(permissionStyle.Render("conflict: " + c.String()))
		b.WriteString("\n")
	}
	return b.String()
}

func setPrefixes(configPath, provider string, prefixes []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if _, ok := cfg.Providers[provider]; !ok {
		return fmt.Errorf("provider %s not configured", provider)
	}
	if err := cfg.SetPrefixes(provider, prefixes); err != nil {
		return fmt.Errorf("setting prefixes: %w", err)
	}
	if err := cfg.SaveConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	if len(prefixes) == 0 {
		fmt.Printf("Prefixes of %s reset to default\n", provider)
	} else {
		fmt.Printf("Prefixes of %s set to %s\n", provider, strings.Join(prefixes, ", "))
	}
	return nil
}
