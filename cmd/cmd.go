// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the local cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the cache database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with username and password",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Password (prompted when omitted)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Discard the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in user",
				Action: r.AuthStatus,
			},
		},
	}
}

// conversationsCommand handles roster operations
func conversationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "conversations",
		Aliases: []string{"conv"},
		Usage:   "Conversation roster operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List conversations, newest activity first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ConversationsList,
			},
			{
				Name:  "start",
				Usage: "Start (or reuse) a conversation with a user",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "user-id"},
				},
				Action: r.ConversationStart,
			},
			{
				Name:  "mark-read",
				Usage: "Mark a conversation as read",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ConversationMarkRead,
			},
			{
				Name:  "watch",
				Usage: "Stream a conversation's live messages to the terminal",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ConversationWatch,
			},
		},
	}
}

// messagesCommand handles message operations
func messagesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "messages",
		Aliases: []string{"msg"},
		Usage:   "Message operations",
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "Show a conversation's message history",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "conversation-id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.MessagesHistory,
			},
			{
				Name:  "send",
				Usage: "Send a text message",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Receiver user ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "content",
						Aliases:  []string{"m"},
						Usage:    "Message text",
						Required: true,
					},
				},
				Action: r.MessageSend,
			},
			{
				Name:  "share-song",
				Usage: "Share a song",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Receiver user ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "song-id",
						Usage:    "Song ID to share",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "note",
						Usage: "Optional note",
					},
				},
				Action: r.MessageShareSong,
			},
			{
				Name:  "share-playlist",
				Usage: "Share a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Receiver user ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "playlist-id",
						Usage:    "Playlist ID to share",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "note",
						Usage: "Optional note",
					},
				},
				Action: r.MessageSharePlaylist,
			},
			{
				Name:  "delete",
				Usage: "Delete a message (irreversible)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
				Action: r.MessageDelete,
			},
		},
	}
}

// searchCommand finds users by name
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search users by name (3+ characters)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "term"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.UserSearch,
	}
}

// recordCommand captures and sends voice notes
func recordCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Record a voice note from stdin and send it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Receiver user ID",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Recording limit in seconds (0 = configured default)",
			},
		},
		Action: r.RecordVoiceNote,
	}
}

// cacheCommand inspects and clears the offline cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the offline cache",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show cached conversations (or one conversation's messages)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "conversation",
						Usage: "Conversation ID to show cached messages for",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.CacheShow,
			},
			{
				Name:  "clear",
				Usage: "Empty the offline cache",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive chat.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive chat TUI",
		Action:  r.TUI,
	}
}
