package main

import (
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/db"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/store"
)

func initCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and the admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Server.DB
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("database %s already exists", path)
			}
			database, password, err := initDatabase(path, a.cfg.Server.AdminUser)
			if err != nil {
				return err
			}
			defer database.Close()
			printInitResult(cmd.OutOrStdout(), path, a.cfg.Server.AdminUser, password)
			return nil
		},
	}
}

func userCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts in the local database",
	}

	var role string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account with a generated password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !model.ValidRole(role) {
				return fmt.Errorf("invalid role %q", role)
			}
			database, err := openExisting(a.cfg.Server.DB)
			if err != nil {
				return err
			}
			defer database.Close()

			password, err := generatePassword(16)
			if err != nil {
				return fmt.Errorf("generating password: %w", err)
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			user, err := store.CreateUser(cmd.Context(), database, args[0], hash, role)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s (%s)\n", user.Username, user.Role)
			fmt.Fprintf(out, "  Password: %s\n", password)
			return nil
		},
	}
	add.Flags().StringVar(&role, "role", model.RoleUser, "account role (user or admin)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openExisting(a.cfg.Server.DB)
			if err != nil {
				return err
			}
			defer database.Close()

			users, err := store.ListUsers(cmd.Context(), database)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tCREATED")
			for _, u := range users {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, humanize.Time(u.CreatedAt))
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

// openExisting opens a database created by init or serve.
func openExisting(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s not found, run init first", path)
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return database, nil
}
