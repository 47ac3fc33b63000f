package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lmbridge/internal/api"
	"lmbridge/internal/store"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Re-run the startup reconciliation pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				if err := host.Reconcile(c); err != nil {
					return fmt.Errorf("reconcile: %w", err)
				}
				source, err := host.MetadataSource(c)
				if err != nil {
					return fmt.Errorf("read metadata source: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reconciled; metadata source: %s\n", describeSource(source))
				return nil
			})
		},
	}
}

func newMetadataSourceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata-source",
		Short: "Print the host's shared metadata source slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				source, err := host.MetadataSource(c)
				if err != nil {
					return fmt.Errorf("read metadata source: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), describeSource(source))
				return nil
			})
		},
	}
}

func describeSource(source string) string {
	if source == "" {
		return "(host default)"
	}
	return source
}

// albumFile is the document accepted by `albums import`. JSON parses too.
type albumFile struct {
	Albums []store.Album `yaml:"albums"`
}

func newAlbumsCommand(ctx *commandContext) *cobra.Command {
	albumsCmd := &cobra.Command{
		Use:   "albums",
		Short: "Manage the album library used by forced rescans",
	}

	albumsCmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the album library from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read album file: %w", err)
			}
			var file albumFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parse album file: %w", err)
			}
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				count, err := host.ReplaceAlbums(c, file.Albums)
				if err != nil {
					return fmt.Errorf("replace albums: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %d albums\n", count)
				return nil
			})
		},
	})

	return albumsCmd
}

func newCommandsCommand(ctx *commandContext) *cobra.Command {
	commandsCmd := &cobra.Command{
		Use:   "commands",
		Short: "Inspect queued album refresh commands",
	}

	var status string
	var jsonOutput bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List refresh commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				commands, err := host.ListCommands(c, strings.TrimSpace(status))
				if err != nil {
					return fmt.Errorf("list commands: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, commands)
				}
				out := cmd.OutOrStdout()
				if len(commands) == 0 {
					fmt.Fprintln(out, "No refresh commands")
					return nil
				}
				fmt.Fprintln(out, renderCommandTable(commands))
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&status, "status", string(store.CommandQueued), "Filter by status (queued, completed, or empty for all)")
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output commands as JSON")

	completeCmd := &cobra.Command{
		Use:   "complete <id>...",
		Short: "Mark refresh commands as completed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHost(cmd, func(c context.Context, host api.Host) error {
				for _, id := range args {
					if err := host.CompleteCommand(c, strings.TrimSpace(id)); err != nil {
						return fmt.Errorf("complete command %s: %w", id, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %d commands\n", len(args))
				return nil
			})
		},
	}

	commandsCmd.AddCommand(listCmd, completeCmd)
	return commandsCmd
}

func renderCommandTable(commands []api.Command) string {
	headers := []string{"ID", "Name", "Album", "Status", "Created"}
	rows := make([][]string, 0, len(commands))
	for _, c := range commands {
		rows = append(rows, []string{
			c.ID,
			c.Name,
			strconv.FormatInt(c.AlbumID, 10),
			titleCase(c.Status),
			c.CreatedAt,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
}
