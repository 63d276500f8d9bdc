package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/faceattend/faceattend/internal/config"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List and manage enrolled users",
	Long:  `List enrolled users from the attendance store. Use subcommands to add or remove users.`,
	RunE:  runUsersList,
}

var usersAddCmd = &cobra.Command{
	Use:   "add <id> <name...>",
	Short: "Add or rename a user",
	Long: `Add a user under a numeric id, or rename the user if the id already
exists. The id must match the label the recognizer reports for this person.

Example:
  faceattend users add 7 Ana Kovac`,
	Args: cobra.MinimumNArgs(2),
	RunE: runUsersAdd,
}

var usersRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a user from recognition",
	Long: `Remove a user so future sessions no longer log them. Historical
attendance rows are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersRemove,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersRemoveCmd)

	usersRemoveCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
}

func runUsersList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	users, err := store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users enrolled.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	fmt.Fprintln(w, "--\t----")
	for _, user := range users {
		fmt.Fprintf(w, "%d\t%s\n", user.ID, user.Name)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d users\n", len(users))
	return nil
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	settings := config.LoadSettings(resolveSettingsPath(cfg))
	if settings.PrivacyMode {
		return errors.New("privacy mode is on: enrollment changes are disabled")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}
	name := strings.Join(args[1:], " ")

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.UpsertUser(ctx, id, name); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	fmt.Printf("Saved user %d (%s).\n", id, strings.TrimSpace(name))
	return nil
}

func runUsersRemove(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	settings := config.LoadSettings(resolveSettingsPath(cfg))
	if settings.PrivacyMode {
		return errors.New("privacy mode is on: enrollment changes are disabled")
	}
	skipConfirm := mustGetBool(cmd, "yes")

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	users, err := store.UserMap(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	name, ok := users[id]
	if !ok {
		return fmt.Errorf("user %d not found", id)
	}

	if !skipConfirm {
		fmt.Printf("Remove %s (id %d)? Attendance history is kept. [y/N]: ", name, id)
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}

	fmt.Printf("Removed user %d (%s).\n", id, name)
	return nil
}
