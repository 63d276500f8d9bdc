package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faceattend/faceattend/internal/announce"
	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/recognize"
	"github.com/faceattend/faceattend/internal/session"
	"github.com/faceattend/faceattend/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kiosk web server",
	Long: `Start the FaceAttend web server.
The server exposes the kiosk API: capture sessions with live event streams,
user enrollment, attendance reports, and settings.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST, default all interfaces)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	cfg.SettingsPath = resolveSettingsPath(cfg)
	if cmd.Flags().Changed("port") {
		cfg.Web.Port = mustGetInt(cmd, "port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Web.Host = mustGetString(cmd, "host")
	}

	if cfg.Recognizer.URL == "" {
		return errors.New("RECOGNIZER_URL environment variable is required")
	}
	recognizer, err := recognize.NewClient(cfg.Recognizer.URL)
	if err != nil {
		return fmt.Errorf("failed to configure recognizer client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	fmt.Printf("Using %s backend\n", cfg.Storage.Backend)

	controller := session.NewController(store, recognizer)

	var announcer *announce.MQTT
	if cfg.MQTT.BrokerURL != "" {
		announcer = announce.NewMQTT(&cfg.MQTT)
		if err := announcer.Connect(ctx); err != nil {
			slog.Warn("mqtt connect failed, announcements disabled", "error", err)
			announcer = nil
		} else {
			controller.SetAnnouncer(announcer)
			fmt.Printf("Announcing attendance on %s\n", cfg.MQTT.Topic)
		}
	}

	manager := session.NewManager(controller)
	server := web.NewServer(cfg, store, manager)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		if announcer != nil {
			stats := announcer.Stats()
			announcer.Disconnect()
			slog.Info("mqtt announcer closed", "published", stats.Published, "errors", stats.Errors)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	displayHost := cfg.Web.Host
	if displayHost == "" {
		displayHost = "0.0.0.0"
	}
	fmt.Printf("Starting FaceAttend kiosk API on http://%s:%d\n", displayHost, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
