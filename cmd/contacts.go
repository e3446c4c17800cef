package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/storage"
)

// ContactsCommand creates the contacts command
func ContactsCommand() *cli.Command {
	return &cli.Command{
		Name:  "contacts",
		Usage: "Manage the address book searched by the contacts provider",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a contact",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Full name", Required: true},
					&cli.StringFlag{Name: "phone", Usage: "Phone number"},
					&cli.StringFlag{Name: "email", Usage: "Email address"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c.String("config"), func(store *storage.Store) error {
						contact, err := store.AddContact(ctx, core.ContactResult{
							Name:  c.String("name"),
							Phone: c.String("phone"),
							Email: c.String("email"),
						})
						if err != nil {
							return err
						}
						fmt.Printf("Added %s (%s)\n", contact.Name, contact.ID)
						return nil
					})
				},
			},
			{
				Name:  "list",
				Usage: "List contacts",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(c.String("config"), func(store *storage.Store) error {
						contacts, err := store.ListContacts(ctx)
						if err != nil {
							return err
						}
						results := make([]core.Result, len(contacts))
						for i, contact := range contacts {
							results[i] = contact
						}
						fmt.Print(formatResults(results))
						return nil
					})
				},
			},
			{
				Name:      "import",
				Usage:     "Import contacts from a YAML file ('-' reads stdin)",
				ArgsUsage: "<file.yaml>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("file is required")
					}
					return importContacts(ctx, c.String("config"), c.Args().First())
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a contact",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("contact id is required")
					}
					return withStore(c.String("config"), func(store *storage.Store) error {
						return store.DeleteContact(ctx, c.Args().First())
					})
				},
			},
		},
	}
}

// contactFile is the YAML address book format:
//
//	contacts:
//	  - name: Alice Smith
//	    email: alice@example.com
//	    phone: "+34 600 000 000"
type contactFile struct {
	Contacts []struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Phone string `yaml:"phone"`
		Email string `yaml:"email"`
	} `yaml:"contacts"`
}

func parseContacts(r io.Reader) ([]core.ContactResult, error) {
	var f contactFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding contacts: %w", err)
	}

	contacts := make([]core.ContactResult, 0, len(f.Contacts))
	for i, c := range f.Contacts {
		if c.Name == "" {
			return nil, fmt.Errorf("contact %d: name is required", i+1)
		}
		contacts = append(contacts, core.ContactResult{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email})
	}
	return contacts, nil
}

func importContacts(ctx context.Context, configPath, path string) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	contacts, err := parseContacts(r)
	if err != nil {
		return err
	}

	return withStore(configPath, func(store *storage.Store) error {
		n, err := store.AddContacts(ctx, contacts)
		if err != nil {
			return err
		}
		total, err := store.CountContacts(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d contacts (%d total)\n", n, total)
		return nil
	})
}
