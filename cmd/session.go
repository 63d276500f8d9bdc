package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/recognize"
	"github.com/faceattend/faceattend/internal/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Run a capture session in the foreground",
	Long: `Run one attendance capture session and print status lines as they
happen. This is the kiosk flow without the web UI: the session watches the
camera feed, logs stable matches to the attendance store, and exits when
the time window closes or Ctrl+C is pressed.

A recorded observation script can stand in for the camera with --replay.`,
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(sessionCmd)

	sessionCmd.Flags().String("source", "", "Camera source identifier (defaults to RECOGNIZER_SOURCE, then the settings camera index)")
	sessionCmd.Flags().String("replay", "", "Replay a recorded observation script instead of opening a camera")
	sessionCmd.Flags().Duration("interval", 200*time.Millisecond, "Frame interval for --replay")
	sessionCmd.Flags().Int("seconds", 0, "Session length in seconds (overrides settings)")
	sessionCmd.Flags().Float64("threshold", 0, "Match threshold in percent (overrides settings)")
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	settings := config.LoadSettings(resolveSettingsPath(cfg))

	params := session.ParamsFromSettings(settings)
	if cmd.Flags().Changed("seconds") {
		params.SessionSeconds = mustGetInt(cmd, "seconds")
	}
	if cmd.Flags().Changed("threshold") {
		params.Threshold = mustGetFloat64(cmd, "threshold")
	}

	source := mustGetString(cmd, "source")
	if source == "" {
		source = cfg.Recognizer.Source
	}
	if source == "" {
		source = strconv.Itoa(settings.CameraIndex)
	}

	opener, err := buildOpener(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manager := session.NewManager(session.NewController(store, opener))
	sess, err := manager.Start(ctx, source, params)
	if err != nil {
		return err
	}

	events := sess.AddListener()
	defer sess.RemoveListener(events)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		sess.Stop()
	}()

	printSessionEvents(sess, events)

	snap := sess.Snapshot()
	if snap.State == session.StateAborted && snap.Error != "" {
		return errors.New(snap.Error)
	}
	fmt.Printf("Logged %d event(s).\n", len(snap.Logged))
	return nil
}

// buildOpener picks the frame source: a recorded script for --replay, the
// recognizer service otherwise.
func buildOpener(cmd *cobra.Command, cfg *config.Config) (recognize.Opener, error) {
	if script := mustGetString(cmd, "replay"); script != "" {
		observations, err := recognize.LoadScript(script)
		if err != nil {
			return nil, fmt.Errorf("failed to load replay script: %w", err)
		}
		return &recognize.ScriptOpener{
			Observations: observations,
			Interval:     mustGetDuration(cmd, "interval"),
		}, nil
	}

	if cfg.Recognizer.URL == "" {
		return nil, errors.New("RECOGNIZER_URL environment variable is required")
	}
	client, err := recognize.NewClient(cfg.Recognizer.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to configure recognizer client: %w", err)
	}
	return client, nil
}

// printSessionEvents prints status lines until the session ends. The capture
// loop may emit its first lines before the listener attaches, so it catches
// up from the snapshot first.
func printSessionEvents(sess *session.Session, events chan session.Event) {
	skip := ""
	if snap := sess.Snapshot(); snap.LastStatus != "" {
		fmt.Println(snap.LastStatus)
		skip = snap.LastStatus
	}

	for {
		select {
		case event := <-events:
			if printSessionEvent(event, &skip) {
				return
			}
		case <-sess.Done():
			// Drain whatever the loop sent before it finished.
			for {
				select {
				case event := <-events:
					printSessionEvent(event, &skip)
				default:
					return
				}
			}
		}
	}
}

// printSessionEvent prints one event and reports whether it was terminal.
// The skip string suppresses a status line already printed from the
// snapshot catch-up.
func printSessionEvent(event session.Event, skip *string) bool {
	if event.Type == "status" {
		if event.Message != *skip {
			fmt.Println(event.Message)
		}
		*skip = ""
	}
	return session.State(event.Type).Terminal()
}
