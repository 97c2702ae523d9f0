package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mandantenanalyse/internal/cli"
	"github.com/Veraticus/mandantenanalyse/internal/storage"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage database checkpoints",
		Long: `Create, list, restore, and delete database checkpoints.

Checkpoints save the current state of the database before an import, so a
wrong import can be undone by restoring the checkpoint.`,
		Example: `  # Create a checkpoint before importing a new year
  mandant checkpoint create --tag vor-import-2024

  # List all checkpoints
  mandant checkpoint list

  # Restore from a checkpoint
  mandant checkpoint restore vor-import-2024`,
	}

	cmd.AddCommand(createCheckpointCmd())
	cmd.AddCommand(listCheckpointsCmd())
	cmd.AddCommand(restoreCheckpointCmd())
	cmd.AddCommand(deleteCheckpointCmd())

	return cmd
}

// withCheckpoints opens the database and its checkpoint manager.
func withCheckpoints(ctx context.Context, fn func(store *storage.SQLiteStorage, manager *storage.CheckpointManager) error) error {
	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manager, err := storage.NewCheckpointManager(store)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	return fn(store, manager)
}

func createCheckpointCmd() *cobra.Command {
	var tag string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withCheckpoints(ctx, func(_ *storage.SQLiteStorage, manager *storage.CheckpointManager) error {
				info, err := manager.Create(ctx, tag, description)
				if err != nil {
					return fmt.Errorf("failed to create checkpoint: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created checkpoint %s (%s)", info.ID, formatFileSize(info.FileSize))))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "checkpoint name (generated if empty)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description of the checkpoint")

	return cmd
}

func listCheckpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withCheckpoints(ctx, func(_ *storage.SQLiteStorage, manager *storage.CheckpointManager) error {
				checkpoints, err := manager.List(ctx)
				if err != nil {
					return fmt.Errorf("failed to list checkpoints: %w", err)
				}
				return printCheckpoints(cmd.OutOrStdout(), checkpoints, time.Now())
			})
		},
	}
}

func printCheckpoints(w io.Writer, checkpoints []storage.CheckpointInfo, now time.Time) error {
	if len(checkpoints) == 0 {
		_, err := fmt.Fprintln(w, cli.SubtleStyle.Render("No checkpoints found."))
		return err
	}

	rows := make([][]string, len(checkpoints))
	for i, cp := range checkpoints {
		typeLabel := "manual"
		if cp.IsAuto {
			typeLabel = "auto"
		}
		rows[i] = []string{
			cp.ID,
			formatRelativeTime(cp.CreatedAt, now),
			formatFileSize(cp.FileSize),
			strconv.Itoa(cp.Clients()),
			strconv.Itoa(cp.Transactions()),
			typeLabel,
		}
	}
	_, err := fmt.Fprintln(w, cli.RenderTable([]string{"Name", "Created", "Size", "Clients", "Transactions", "Type"}, rows))
	return err
}

func restoreCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <checkpoint-id>",
		Short: "Restore database from a checkpoint",
		Long:  `Replace the current database with a checkpoint. The current state is backed up first.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			return withCheckpoints(ctx, func(_ *storage.SQLiteStorage, manager *storage.CheckpointManager) error {
				if !force {
					ok, err := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).
						Confirm(ctx, "Replace the current database with checkpoint "+id+"?", false)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("Restore cancelled."))
						return nil
					}
				}

				if err := manager.Restore(ctx, id); err != nil {
					return fmt.Errorf("failed to restore checkpoint: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Restored from checkpoint "+id))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}

func deleteCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <checkpoint-id>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			return withCheckpoints(ctx, func(_ *storage.SQLiteStorage, manager *storage.CheckpointManager) error {
				if !force {
					ok, err := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).
						Confirm(ctx, "Permanently delete checkpoint "+id+"?", false)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("Deletion cancelled."))
						return nil
					}
				}

				if err := manager.Delete(ctx, id); err != nil {
					return fmt.Errorf("failed to delete checkpoint: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted checkpoint "+id))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}
