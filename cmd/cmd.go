// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func providerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "provider",
		Aliases: []string{"p"},
		Usage:   "Provider to query (saavn, gaana, qobuz, tidal); defaults to the configured provider",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (text, json, csv, markdown)",
		Value:   "text",
	}
}

func linkFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "link",
		Aliases: []string{"l"},
		Usage:   "Provider web link instead of an id",
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of items to return (1-100)",
			Value: 10,
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Number of items to skip",
		},
	}
}

func exportFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "export-dir",
		Usage: "Write a Markdown export with cover image to this directory",
	}
}

// serveCommand starts the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the catalog over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (overrides [server].host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides [server].port)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout",
			},
		},
		Action: r.Serve,
	}
}

// songCommand fetches songs by id or link
func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "song",
		Aliases:   []string{"songs"},
		Usage:     "Fetch one or more songs",
		ArgsUsage: "[id...]",
		Flags: []cli.Flag{
			providerFlag(), formatFlag(), linkFlag(),
			&cli.StringFlag{
				Name:  "stream",
				Usage: "Resolve a stream URL at this quality (qobuz and tidal)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the song page in the browser",
			},
		},
		Action: r.Song,
	}
}

// albumCommand fetches an album by id or link
func albumCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "album",
		Usage:     "Fetch an album with its songs",
		ArgsUsage: "[id]",
		Flags:     []cli.Flag{providerFlag(), formatFlag(), linkFlag(), exportFlag()},
		Action:    r.Album,
	}
}

// artistCommand fetches an artist and optionally its songs or albums
func artistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "artist",
		Usage:     "Fetch an artist",
		ArgsUsage: "[id]",
		Flags: append([]cli.Flag{
			providerFlag(), formatFlag(), linkFlag(),
			&cli.BoolFlag{
				Name:  "songs",
				Usage: "List the artist's songs",
			},
			&cli.BoolFlag{
				Name:  "albums",
				Usage: "List the artist's albums",
			},
		}, pageFlags()...),
		Action: r.Artist,
	}
}

// playlistCommand fetches a playlist page
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "playlist",
		Usage:     "Fetch a playlist with one page of songs",
		ArgsUsage: "[id]",
		Flags:     append([]cli.Flag{providerFlag(), formatFlag(), linkFlag(), exportFlag()}, pageFlags()...),
		Action:    r.Playlist,
	}
}

// searchCommand searches one kind or every kind at once
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the catalog",
		ArgsUsage: "<query>",
		Flags: append([]cli.Flag{
			providerFlag(), formatFlag(),
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "Restrict to songs, albums, artists or playlists",
			},
		}, pageFlags()...),
		Action: r.Search,
	}
}

// exportCommand bulk-exports albums or playlists
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export several albums or playlists to files",
		ArgsUsage: "<id...>",
		Flags: []cli.Flag{
			providerFlag(),
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "What the ids name: album or playlist",
				Value:   "playlist",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (json, csv, markdown, text)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: tunex_export_{epoch})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent writers",
				Value: 5,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Fetches per second",
				Value: 5,
			},
		},
		Action: r.Export,
	}
}

// authCommand handles provider user sessions
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage provider user sessions",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with a username and password, a token, or a captured cURL request",
				Flags: []cli.Flag{
					providerFlag(),
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Account email or username",
					},
					&cli.StringFlag{
						Name:    "password",
						Usage:   "Account password",
						Sources: cli.EnvVars("TUNEX_PASSWORD"),
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "User token captured from a browser session",
					},
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Drop the provider's user session",
				Flags:  []cli.Flag{providerFlag()},
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show user sessions",
				Flags: []cli.Flag{
					providerFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// cacheCommand resets process-wide provider state
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage cached tokens and credentials",
		Commands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Drop access tokens and extracted app credentials",
				Action: r.CacheClear,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example configuration file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the credential store and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}
