// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   formatUsage(),
			Value:   "table",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to a file instead of stdout",
		},
	}
}

// setupCommand creates the config file and session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the session database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in to the catalog service and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email (prompted when omitted)",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (prompted without echo when omitted)",
			},
		},
		Action: r.Login,
	}
}

func registerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account on the catalog service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email",
			},
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Display name",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password, at least 6 characters",
			},
		},
		Action: r.Register,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored session",
		Action: r.Logout,
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the logged-in user and token expiry",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: r.WhoAmI,
	}
}

// catalogCommand handles catalog browsing
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"music"},
		Usage:   "Browse the music catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List catalog albums, one page at a time",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "pages",
						Usage: "Number of pages to fetch",
						Value: 1,
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Fetch every page",
					},
				}, formatFlags()...),
				Action: r.CatalogList,
			},
			{
				Name:  "search",
				Usage: "Filter the catalog by title, artist, album or year",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Title contains"},
					&cli.StringFlag{Name: "artist", Usage: "Artist contains"},
					&cli.StringFlag{Name: "album", Usage: "Album contains"},
					&cli.StringFlag{Name: "year", Usage: "Release year"},
				}, formatFlags()...),
				Action: r.CatalogSearch,
			},
			{
				Name:  "export",
				Usage: "Write the full catalog and subscriptions to a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Output directory (default: crate_export_{epoch})",
					},
					&cli.StringSliceFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Formats to write, repeatable: json, csv, markdown, text (default: json)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent file writers",
						Value: 4,
					},
				},
				Action: r.CatalogExport,
			},
		},
	}
}

// subsCommand handles the subscription list
func subsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "subs",
		Aliases: []string{"subscriptions"},
		Usage:   "Manage album subscriptions",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List subscribed albums",
				Flags:  formatFlags(),
				Action: r.SubsList,
			},
			{
				Name:  "toggle",
				Usage: "Subscribe to or unsubscribe from an album",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "composite_id"},
				},
				Action: r.SubsToggle,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive catalog browser",
		Action:  r.TUI,
	}
}

// mockServerCommand runs the local catalog double used for development.
func mockServerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "mock-server",
		Usage: "Serve an in-memory catalog for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host"},
			&cli.IntFlag{Name: "port", Usage: "Listen port"},
			&cli.StringFlag{Name: "secret", Usage: "Token signing secret"},
		},
		Action: r.MockServer,
	}
}
