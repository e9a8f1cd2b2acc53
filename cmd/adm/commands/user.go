package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"codetech/internal/models"
	contextutils "codetech/internal/utils"

	"github.com/spf13/cobra"
)

// PasswordReader reads a password without echoing it
type PasswordReader func(prompt string) (string, error)

// TerminalPasswordReader prompts on stdout and reads from the stdin terminal
func TerminalPasswordReader(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UserCommands returns the user management commands
func UserCommands(env *Env, readPassword PasswordReader) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long: `User management commands for CodeTech.

Available commands:
  list          - List all users
  create-admin  - Create an admin account
  delete        - Delete a user and their progress`,
	}

	userCmd.AddCommand(listCmd(env))
	userCmd.AddCommand(createAdminCmd(env, readPassword))
	userCmd.AddCommand(deleteUserCmd(env))

	return userCmd
}

func listCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			env.Logger.Info(ctx, "Admin command diagnostics", map[string]interface{}{
				"database_url": maskDatabaseURL(env.Config.Database.URL),
			})

			userService, err := env.UserService(ctx)
			if err != nil {
				return err
			}
			users, err := userService.ListUsers(ctx)
			if err != nil {
				return contextutils.WrapError(err, "failed to list users")
			}

			printUsers(cmd.OutOrStdout(), users)
			return nil
		},
	}
}

func printUsers(out io.Writer, users []models.User) {
	if len(users) == 0 {
		fmt.Fprintln(out, "No users found")
		return
	}

	fmt.Fprintf(out, "%-5s %-30s %-25s %-8s %-10s\n", "ID", "Email", "Name", "Role", "Created")
	fmt.Fprintln(out, strings.Repeat("-", 82))
	for _, u := range users {
		fmt.Fprintf(out, "%-5d %-30s %-25s %-8s %-10s\n",
			u.ID, u.Email, u.Name, u.Role, u.CreatedAt.Format("2006-01-02"))
	}
}

func createAdminCmd(env *Env, readPassword PasswordReader) *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		Long:  `Create an admin account. The password is read from the terminal and never passed as a flag.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			email = strings.TrimSpace(email)
			if email == "" {
				return contextutils.ErrorWithContextf("--email is required")
			}
			if name == "" {
				name = contextutils.DisplayNameFromEmail(email)
			}

			password, err := readPassword("Enter password: ")
			if err != nil {
				return contextutils.WrapError(err, "failed to read password")
			}
			if password == "" {
				return contextutils.ErrorWithContextf("password cannot be empty")
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return contextutils.WrapError(err, "failed to read password confirmation")
			}
			if password != confirm {
				return contextutils.ErrorWithContextf("passwords do not match")
			}

			adminService, err := env.AdminService(ctx)
			if err != nil {
				return err
			}
			user, err := adminService.CreateAdmin(ctx, email, password, name)
			if err != nil {
				return contextutils.WrapError(err, "failed to create admin")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created (ID: %d)\n", user.Email, user.ID)
			env.Logger.Info(ctx, "Admin created from CLI", map[string]interface{}{
				"user_id": user.ID,
				"email":   contextutils.MaskEmail(user.Email),
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email of the new admin")
	cmd.Flags().StringVar(&name, "name", "", "Display name (derived from the email when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func deleteUserCmd(env *Env) *cobra.Command {
	var id int

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user and their progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if id <= 0 {
				return contextutils.ErrorWithContextf("--id must be a positive user id")
			}

			adminService, err := env.AdminService(ctx)
			if err != nil {
				return err
			}
			// The CLI has no account of its own, so actor 0 never matches a user
			if err := adminService.DeleteUser(ctx, 0, id); err != nil {
				return contextutils.WrapErrorf(err, "failed to delete user %d", id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "User %d deleted\n", id)
			return nil
		},
	}

	cmd.Flags().IntVar(&id, "id", 0, "ID of the user to delete")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
