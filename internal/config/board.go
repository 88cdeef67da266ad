package config

import "path/filepath"

// BoardConfig holds settings for a single input file.
type BoardConfig struct {
	// Workers overrides the number of concurrent loop trials.
	// If zero, the global value is used.
	Workers int `yaml:"workers,omitempty"`

	// SkipLoops disables the obstacle search for this board.
	SkipLoops bool `yaml:"skipLoops,omitempty"`

	// Label is a display name used in reports instead of the file path.
	Label string `yaml:"label,omitempty"`
}

// File represents the structure of the .raygrid configuration file.
type File struct {
	// Boards maps input file names to their settings.
	// Keys are matched against the full path first, then the base name.
	Boards map[string]BoardConfig `yaml:"boards,omitempty"`

	// Defaults apply to every board unless overridden.
	Defaults BoardConfig `yaml:"defaults,omitempty"`
}

// GetBoardConfig returns the configuration for an input path,
// merging the board entry over the defaults.
func (cf *File) GetBoardConfig(path string) BoardConfig {
	result := cf.Defaults

	bc, ok := cf.Boards[path]
	if !ok {
		bc, ok = cf.Boards[filepath.Base(path)]
	}
	if !ok {
		return result
	}

	if bc.Workers != 0 {
		result.Workers = bc.Workers
	}
	if bc.SkipLoops {
		result.SkipLoops = true
	}
	if bc.Label != "" {
		result.Label = bc.Label
	}
	return result
}
