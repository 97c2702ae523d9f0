package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mandantenanalyse/internal/cli"
	"github.com/Veraticus/mandantenanalyse/internal/common"
	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/service"
)

func clientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clients",
		Aliases: []string{"mandanten"},
		Short:   "List and manage imported clients",
		Example: `  # Search clients by company name or city
  mandant clients list --search berlin

  # Move a client to the trash and bring it back
  mandant clients delete 6f1c...
  mandant clients restore 6f1c...`,
	}

	cmd.AddCommand(listClientsCmd())
	cmd.AddCommand(trashClientsCmd())
	cmd.AddCommand(deleteClientCmd())
	cmd.AddCommand(restoreClientCmd())

	return cmd
}

func listClientsCmd() *cobra.Command {
	var filter service.ClientFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withOwnerStorage(cmd.Context(), func(store service.Storage, owner string) error {
				clients, err := store.ListClients(cmd.Context(), owner, filter)
				if err != nil {
					return fmt.Errorf("failed to list clients: %w", err)
				}
				return printClients(cmd.OutOrStdout(), clients, "No clients found.")
			})
		},
	}

	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "filter by company name or city")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum number of clients")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "number of clients to skip")

	return cmd
}

func trashClientsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trash",
		Short: "List deleted clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withOwnerStorage(cmd.Context(), func(store service.Storage, owner string) error {
				clients, err := store.ListDeletedClients(cmd.Context(), owner)
				if err != nil {
					return fmt.Errorf("failed to list deleted clients: %w", err)
				}
				return printClients(cmd.OutOrStdout(), clients, "The trash is empty.")
			})
		},
	}
}

func deleteClientCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <client-id>",
		Short: "Move a client to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOwnerStorage(cmd.Context(), func(store service.Storage, owner string) error {
				if err := store.SoftDeleteClient(cmd.Context(), owner, args[0]); err != nil {
					return clientNotFound(args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Moved client "+args[0]+" to the trash"))
				return nil
			})
		},
	}
}

func restoreClientCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <client-id>",
		Short: "Restore a client from the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOwnerStorage(cmd.Context(), func(store service.Storage, owner string) error {
				if err := store.RestoreClient(cmd.Context(), owner, args[0]); err != nil {
					return clientNotFound(args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Restored client "+args[0]))
				return nil
			})
		},
	}
}

// withOwnerStorage opens the database for the configured owner.
func withOwnerStorage(ctx context.Context, fn func(store service.Storage, owner string) error) error {
	owner, err := currentOwner()
	if err != nil {
		return err
	}
	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store, owner)
}

func clientNotFound(id string, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError("No client with id "+id, err)
	}
	return err
}

func printClients(w io.Writer, clients []model.Client, empty string) error {
	if len(clients) == 0 {
		_, err := fmt.Fprintln(w, cli.SubtleStyle.Render(empty))
		return err
	}

	rows := make([][]string, len(clients))
	for i, c := range clients {
		rows[i] = []string{
			c.ID,
			c.CompanyName,
			c.LegalForm,
			c.PostalCode + " " + c.City,
			strconv.Itoa(c.EmployeeCount),
		}
	}
	_, err := fmt.Fprintln(w, cli.RenderTable([]string{"ID", "Company", "Legal form", "City", "Employees"}, rows))
	return err
}
