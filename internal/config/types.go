// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// Config is shovel's complete configuration.
	Config struct {
		Sources SourcesConfig `json:"sources" mapstructure:"sources"`
		Help    HelpConfig    `json:"help" mapstructure:"help"`
		Tasks   TasksConfig   `json:"tasks" mapstructure:"tasks"`
		UI      UIConfig      `json:"ui" mapstructure:"ui"`
		Log     LogConfig     `json:"log" mapstructure:"log"`
		Watch   WatchConfig   `json:"watch" mapstructure:"watch"`
	}

	// SourcesConfig controls where tasks are loaded from.
	SourcesConfig struct {
		// IncludeHome loads ~/.shovel.<ext> and ~/.shovel/ before the project.
		IncludeHome bool `json:"include_home" mapstructure:"include_home"`
		// Exclude lists doublestar patterns of task files to skip.
		Exclude []string `json:"exclude" mapstructure:"exclude"`
	}

	// HelpConfig controls `shovel help`.
	HelpConfig struct {
		// DocWidth truncates docstrings in group listings.
		DocWidth int `json:"doc_width" mapstructure:"doc_width"`
	}

	// TasksConfig controls `shovel tasks`.
	TasksConfig struct {
		// Width is used when the terminal width cannot be detected. Zero
		// disables truncation.
		Width int `json:"width" mapstructure:"width"`
	}

	// UIConfig controls output.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// MarkdownDocs renders docstrings in single-task help as Markdown.
		MarkdownDocs bool `json:"markdown_docs" mapstructure:"markdown_docs"`
		// Style is the glamour style used for Markdown.
		Style string `json:"style" mapstructure:"style"`
	}

	// LogConfig controls diagnostics. File, when set, receives every
	// record at Level or above, rotated by size.
	LogConfig struct {
		Level      string `json:"level" mapstructure:"level"`
		File       string `json:"file" mapstructure:"file"`
		MaxSize    int    `json:"max_size" mapstructure:"max_size"`
		MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
		MaxAge     int    `json:"max_age" mapstructure:"max_age"`
		Compress   bool   `json:"compress" mapstructure:"compress"`
	}

	// WatchConfig controls --watch.
	WatchConfig struct {
		Debounce string   `json:"debounce" mapstructure:"debounce"`
		Ignore   []string `json:"ignore" mapstructure:"ignore"`
	}

	// InvalidConfigError reports a value that passed the schema but cannot
	// be used, such as a negative width set through the environment.
	InvalidConfigError struct {
		Key    string
		Value  any
		Reason string
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{IncludeHome: true, Exclude: []string{}},
		Help:    HelpConfig{DocWidth: 50},
		Tasks:   TasksConfig{Width: 80},
		UI:      UIConfig{Style: "notty"},
		Log: LogConfig{
			Level:      "warn",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
		Watch: WatchConfig{Debounce: "500ms", Ignore: []string{}},
	}
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%s = %v: %s", e.Key, e.Value, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DebounceDuration parses Watch.Debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, &InvalidConfigError{Key: "watch.debounce", Value: c.Watch.Debounce, Reason: err.Error()}
	}
	return d, nil
}

// Validate checks constraints on values that may bypass the schema through
// environment variables.
func (c *Config) Validate() error {
	var errs []error
	if c.Help.DocWidth < 0 {
		errs = append(errs, &InvalidConfigError{Key: "help.doc_width", Value: c.Help.DocWidth, Reason: "must not be negative"})
	}
	if c.Tasks.Width < 0 {
		errs = append(errs, &InvalidConfigError{Key: "tasks.width", Value: c.Tasks.Width, Reason: "must not be negative"})
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, &InvalidConfigError{Key: "log.level", Value: c.Log.Level, Reason: "must be debug, info, warn or error"})
	}
	if _, err := c.DebounceDuration(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
