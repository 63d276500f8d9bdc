package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/faceattend/faceattend/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var settingsPath string

var rootCmd = &cobra.Command{
	Use:   "faceattend",
	Short: "Face-recognition attendance for the office kiosk",
	Long: `FaceAttend logs office attendance from a camera feed.
It watches a recognizer service for enrolled faces, writes accepted
identities to the attendance store, and serves the kiosk web API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Path to the kiosk settings file (overrides SETTINGS_PATH)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	setupLogging()
}

func setupLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// resolveSettingsPath prefers the --settings flag over the environment.
func resolveSettingsPath(cfg *config.Config) string {
	if settingsPath != "" {
		return settingsPath
	}
	return cfg.SettingsPath
}
