// Package config loads persistent CLI defaults from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds persistent CLI defaults loaded from a config file.
type Settings struct {
	TestsDir       string        `yaml:"tests_dir"`
	FilePattern    string        `yaml:"file_pattern"` // regular expression matched against full file paths
	EvaluateURL    string        `yaml:"evaluate_url"`
	ReportFile     string        `yaml:"report_file"`
	TCKReportFile  string        `yaml:"tck_report_file"`
	JSONReportFile string        `yaml:"json_report_file,omitempty"`
	StopOnFailure  bool          `yaml:"stop_on_failure"`
	Workers        int           `yaml:"workers"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	HistoryDB      string        `yaml:"history_db,omitempty"`
	Display        string        `yaml:"display,omitempty"` // auto, full, minimal, off

	// Watch mode tuning
	Watch *WatchConfig `yaml:"watch,omitempty"`
}

// WatchConfig holds settings for the watch command.
type WatchConfig struct {
	Poll         bool          `yaml:"poll,omitempty"`
	Debounce     time.Duration `yaml:"debounce,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
}

// LoadSettings reads a YAML config file into Settings.
// If the file does not exist, it returns zero-value Settings and nil error.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &s, nil
}
