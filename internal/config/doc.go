// Package config provides configuration structures and utilities for raygrid.
// It defines the run options shared by every command, per-board overrides
// loaded from the .raygrid YAML file, and report output preferences.
package config
