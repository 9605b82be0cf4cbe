package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/shopboard/internal/repository"
	"github.com/creamcroissant/shopboard/internal/service"
)

func init() {
	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "User management",
	}

	var listRole, listQuery string
	var listLimit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Services.AdminUser.List(cmd.Context(), service.AdminUserListInput{
				Query: listQuery,
				Role:  listRole,
				Page:  service.Page{Page: 1, PageSize: listLimit},
			})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tEmail\tName\tRole\tBanned")
			for _, u := range result.Users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%v\n", u.ID, u.Email, u.Name, u.Role, u.Banned)
			}
			fmt.Fprintf(w, "\t\t\t\t(%d of %d)\n", len(result.Users), result.Total)
			return w.Flush()
		},
	}
	listCmd.Flags().StringVar(&listRole, "role", "", "Filter by role (customer, staff, admin)")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Search email or name")
	listCmd.Flags().IntVar(&listLimit, "limit", 100, "Maximum rows to print")
	userCmd.AddCommand(listCmd)

	var createEmail, createPassword, createName, createRole string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if createEmail == "" || createPassword == "" {
				return fmt.Errorf("email and password are required")
			}
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			user, err := app.Services.AdminUser.Create(cmd.Context(), service.AdminUserCreateInput{
				Email:    createEmail,
				Password: createPassword,
				Name:     createName,
				Role:     strings.ToLower(createRole),
			})
			if err != nil {
				return fmt.Errorf("create user failed: %w", err)
			}
			fmt.Printf("User %s created with id %d and role %s.\n", user.Email, user.ID, user.Role)
			return nil
		},
	}
	createCmd.Flags().StringVar(&createEmail, "email", "", "User email")
	createCmd.Flags().StringVar(&createPassword, "password", "", "User password")
	createCmd.Flags().StringVar(&createName, "name", "", "Display name")
	createCmd.Flags().StringVar(&createRole, "role", repository.RoleCustomer, "Role: customer, staff or admin")
	userCmd.AddCommand(createCmd)

	var unban bool
	banCmd := &cobra.Command{
		Use:   "ban <email>",
		Short: "Ban a user (or lift a ban with --unban)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			user, err := app.Store.Users().FindByEmail(cmd.Context(), strings.ToLower(strings.TrimSpace(args[0])))
			if err != nil {
				return fmt.Errorf("find user failed: %w", err)
			}
			if _, err := app.Services.AdminUser.SetBanned(cmd.Context(), 0, user.ID, !unban); err != nil {
				return fmt.Errorf("update user failed: %w", err)
			}
			action := "banned"
			if unban {
				action = "unbanned"
			}
			fmt.Printf("User %s %s.\n", user.Email, action)
			return nil
		},
	}
	banCmd.Flags().BoolVar(&unban, "unban", false, "Lift the ban instead")
	userCmd.AddCommand(banCmd)

	rootCmd.AddCommand(userCmd)
}
