package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings are the operator-editable recognition tunables. They live in a
// YAML file next to the data directory so a kiosk can be retuned without
// rebuilding or redeploying.
type Settings struct {
	CameraIndex            int     `yaml:"camera_index" json:"camera_index"`
	SessionSeconds         int     `yaml:"session_seconds" json:"session_seconds"`
	MatchThreshold         float64 `yaml:"match_threshold" json:"match_threshold"`
	DuplicateWindowMinutes int     `yaml:"duplicate_window_minutes" json:"duplicate_window_minutes"`
	OnePerDay              bool    `yaml:"one_per_day" json:"one_per_day"`
	StableFrames           int     `yaml:"stable_frames" json:"stable_frames"`
	StableWindow           int     `yaml:"stable_window" json:"stable_window"`
	IdleHintSeconds        int     `yaml:"idle_hint_seconds" json:"idle_hint_seconds"`
	StopOnSuccess          bool    `yaml:"stop_on_success" json:"stop_on_success"`
	PrivacyMode            bool    `yaml:"privacy_mode" json:"privacy_mode"`
	ConsentAccepted        bool    `yaml:"consent_accepted" json:"consent_accepted"`
}

// DefaultSettings returns the tunables a fresh kiosk starts with.
func DefaultSettings() Settings {
	return Settings{
		CameraIndex:            0,
		SessionSeconds:         90,
		MatchThreshold:         90.0,
		DuplicateWindowMinutes: 10,
		OnePerDay:              true,
		StableFrames:           4,
		StableWindow:           8,
		IdleHintSeconds:        20,
		StopOnSuccess:          true,
	}
}

// LoadSettings reads the settings file at path. A missing, unreadable or
// malformed file yields the defaults: a broken settings file must never keep
// the kiosk from starting. Values are clamped into their valid ranges.
func LoadSettings(path string) Settings {
	s := DefaultSettings()
	if path == "" {
		return s
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("could not read settings file, using defaults", "path", path, "error", err)
		}
		return s
	}

	// Unmarshal over the defaults so absent keys keep their default values.
	if err := yaml.Unmarshal(raw, &s); err != nil {
		slog.Warn("could not parse settings file, using defaults", "path", path, "error", err)
		return DefaultSettings()
	}

	s.clamp()
	return s
}

// SaveSettings writes the settings file, creating parent directories.
func SaveSettings(path string, s Settings) error {
	if path == "" {
		return errors.New("settings path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create settings directory: %w", err)
		}
	}

	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("could not marshal settings: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("could not write settings file: %w", err)
	}
	return nil
}

// clamp forces every tunable into its valid range. Sessions shorter than ten
// seconds cannot complete a stable match; a non-positive threshold would make
// the quality mapping meaningless.
func (s *Settings) clamp() {
	if s.CameraIndex < 0 {
		s.CameraIndex = 0
	}
	if s.SessionSeconds < 10 {
		s.SessionSeconds = 10
	}
	if s.MatchThreshold < 1.0 {
		s.MatchThreshold = 1.0
	}
	if s.DuplicateWindowMinutes < 0 {
		s.DuplicateWindowMinutes = 0
	}
	if s.StableWindow < 1 {
		s.StableWindow = 1
	}
	if s.StableFrames < 1 {
		s.StableFrames = 1
	}
	if s.IdleHintSeconds < 0 {
		s.IdleHintSeconds = 0
	}
}
