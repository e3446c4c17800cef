package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/omnibox/pkg/core"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Run a single query, e.g. 'omnibox search w golang generics'",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.Join(c.Args().Slice(), " ")
			return runSearch(ctx, c.String("config"), query, c.Bool("json"))
		},
	}
}

type jsonResult struct {
	Key      string                 `json:"key"`
	Kind     core.ResultKind        `json:"kind"`
	Title    string                 `json:"title"`
	Metadata map[string]interface{} `json:"metadata"`
}

func runSearch(ctx context.Context, configPath, query string, asJSON bool) error {
	rt, err := openRuntime(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	res := rt.dispatcher.Search(ctx, query)

	if asJSON {
		out := make([]jsonResult, len(res.Results))
		for i, r := range res.Results {
			out[i] = jsonResult{Key: r.Key(), Kind: r.Kind(), Title: r.Title(), Metadata: r.Metadata()}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(formatHeader(query, res.Provider))
	fmt.Print(formatResults(res.Results))
	fmt.Println(metaStyle.Render(fmt.Sprintf("%d results in %s", len(res.Results), res.Took)))
	return nil
}
