package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/database"
	"github.com/spf13/cobra"
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List and manage enrollment requests",
	Long:  `List enrollment requests left at the kiosk. Use subcommands to file or resolve them.`,
	RunE:  runRequestsList,
}

var requestsAddCmd = &cobra.Command{
	Use:   "add <name> <contact> <message...>",
	Short: "File an enrollment request",
	Long: `File an enrollment request on behalf of someone the camera does not
recognize yet.

Example:
  faceattend requests add "Ana Kovac" ana@example.com Please enroll me`,
	Args: cobra.MinimumNArgs(3),
	RunE: runRequestsAdd,
}

var requestsStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Set the status of a request",
	Long: `Set the status of an enrollment request.

Example:
  faceattend requests status 3 approved`,
	Args: cobra.ExactArgs(2),
	RunE: runRequestsStatus,
}

func init() {
	rootCmd.AddCommand(requestsCmd)
	requestsCmd.AddCommand(requestsAddCmd)
	requestsCmd.AddCommand(requestsStatusCmd)
}

func runRequestsList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	requests, err := store.ListRequests(ctx)
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}

	if len(requests) == 0 {
		fmt.Println("No enrollment requests.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCONTACT\tSTATUS\tFILED")
	fmt.Fprintln(w, "--\t----\t-------\t------\t-----")
	for _, request := range requests {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			request.ID, request.Name, request.Contact, request.Status, request.Timestamp)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d requests\n", len(requests))
	return nil
}

func runRequestsAdd(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	message := strings.Join(args[2:], " ")
	id, err := store.AddRequest(ctx, args[0], args[1], message, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}

	fmt.Printf("Filed request %d (%s).\n", id, database.RequestPending)
	return nil
}

func runRequestsStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid request id %q", args[0])
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.UpdateRequestStatus(ctx, id, args[1]); err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}

	fmt.Printf("Request %d is now %s.\n", id, strings.TrimSpace(args[1]))
	return nil
}
