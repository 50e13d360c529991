// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand verifies credentials and stores them in the config file.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Verify server credentials and save them to config.toml",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "Subsonic server URL",
			},
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Server username",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Server password",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Save credentials even when verification fails",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the server UI in the browser afterwards",
			},
		},
		Action: r.Auth,
	}
}

// devicesCommand handles removable device discovery and the registry.
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "devices",
		Aliases: []string{"dev"},
		Usage:   "List removable devices",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "detailed",
				Usage: "Include filesystem and capacity columns",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Stream hotplug add/remove events until interrupted",
			},
		},
		Action: r.Devices,
		Commands: []*cli.Command{
			{
				Name:  "rename",
				Usage: "Assign a friendly name to a registered device",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "name"},
				},
				Action: r.DevicesRename,
			},
		},
	}
}

// browseCommand launches the interactive browser and hosts the plain listings.
func browseCommand(r *Runner) *cli.Command {
	listFlags := func(defaultFormat string) []cli.Flag {
		return []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: csv, md, or txt",
				Value:   defaultFormat,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file or directory path",
			},
		}
	}

	return &cli.Command{
		Name:  "browse",
		Usage: "Interactively browse the catalog and build a sync selection",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "playlists",
				Usage: "Start on the playlist view",
			},
		},
		Action: r.Browse,
		Commands: []*cli.Command{
			{
				Name:   "artists",
				Usage:  "List all artists",
				Flags:  listFlags(""),
				Action: r.BrowseArtists,
			},
			{
				Name:  "albums",
				Usage: "List albums, or export one with --id",
				Flags: append(listFlags(""), &cli.StringFlag{
					Name:  "id",
					Usage: "Album ID to export with full track listing",
				}),
				Action: r.BrowseAlbums,
			},
			{
				Name:  "playlists",
				Usage: "List playlists, or export one with --id",
				Flags: append(listFlags(""), &cli.StringFlag{
					Name:  "id",
					Usage: "Playlist ID to export with full track listing",
				}),
				Action: r.BrowsePlaylists,
			},
		},
	}
}

// syncCommand runs a non-interactive sync against a device.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Mirror the saved selection onto a device",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "device"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the reconciliation plan without writing anything",
			},
			&cli.IntFlag{
				Name:    "parallel",
				Aliases: []string{"p"},
				Usage:   "Concurrent track downloads",
			},
			&cli.BoolFlag{
				Name:  "no-playlists",
				Usage: "Sync albums only",
			},
			&cli.BoolFlag{
				Name:  "playlists-only",
				Usage: "Sync playlists only",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run summary as JSON",
			},
		},
		Action: r.Sync,
	}
}

// statusCommand reports device manifests and sync history.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show synced content and recent sync history",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "device"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

// apiCommand handles raw Subsonic REST calls for debugging.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct Subsonic REST calls with auth params injected",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to a REST endpoint, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "endpoint"},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "param",
						Aliases: []string{"d"},
						Usage:   "Query parameter as key=value (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct form-encoded POST to a REST endpoint",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "endpoint"},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "param",
						Aliases: []string{"d"},
						Usage:   "Form parameter as key=value (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}
