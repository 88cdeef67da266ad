package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with the expected defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 10 minutes", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 10*time.Minute {
			t.Errorf("expected Timeout to be 10m, got %v", cfg.Timeout)
		}
	})

	t.Run("default BatchSize is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 4 {
			t.Errorf("expected BatchSize to be 4, got %d", cfg.BatchSize)
		}
	})

	t.Run("default Workers is positive", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers <= 0 {
			t.Errorf("expected positive Workers, got %d", cfg.Workers)
		}
	})

	t.Run("history is saved by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.DBDir == "" {
			t.Error("expected DBDir to be set")
		}
	})

	t.Run("tracing is off by default", func(t *testing.T) {
		t.Parallel()
		if cfg.Trace {
			t.Error("expected Trace to be false")
		}
		if cfg.TraceDir == "" {
			t.Error("expected TraceDir to be set")
		}
	})
}

// TestConfigValidate tests the Validate method. Each case breaks one rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		return &Config{
			Inputs:    []string{"day6.txt"},
			Timeout:   time.Minute,
			BatchSize: 2,
			Workers:   2,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "valid config", mutate: func(*Config) {}, wantErr: nil},
		{name: "no inputs", mutate: func(c *Config) { c.Inputs = nil }, wantErr: ErrNoInput},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: ErrInvalidTimeout},
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: ErrInvalidBatchSize},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: ErrInvalidWorkers},
		{
			name:    "json and markdown both enabled",
			mutate:  func(c *Config) { c.JSONReport, c.MarkdownReport = true, true },
			wantErr: ErrConflictingReportFormats,
		},
		{name: "markdown only", mutate: func(c *Config) { c.MarkdownReport = true }, wantErr: nil},
		{name: "trace without directory", mutate: func(c *Config) { c.Trace = true }, wantErr: ErrNoTraceDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestFileGetBoardConfig tests merging of board entries over defaults.
func TestFileGetBoardConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: BoardConfig{Workers: 2},
		Boards: map[string]BoardConfig{
			"day6.txt":         {Label: "patrol sample", SkipLoops: true},
			"inputs/big.txt":   {Workers: 16},
			"inputs/label.txt": {Label: "by path"},
			"label.txt":        {Label: "by name"},
		},
	}

	t.Run("returns defaults when board not found", func(t *testing.T) {
		t.Parallel()

		got := cf.GetBoardConfig("other.txt")
		if got.Workers != 2 || got.SkipLoops || got.Label != "" {
			t.Errorf("expected defaults, got %+v", got)
		}
	})

	t.Run("matches by base name", func(t *testing.T) {
		t.Parallel()

		got := cf.GetBoardConfig("/tmp/aoc/day6.txt")
		if got.Label != "patrol sample" || !got.SkipLoops {
			t.Errorf("expected board entry, got %+v", got)
		}
		if got.Workers != 2 {
			t.Errorf("zero workers should keep the default, got %d", got.Workers)
		}
	})

	t.Run("matches by full path", func(t *testing.T) {
		t.Parallel()

		got := cf.GetBoardConfig("inputs/big.txt")
		if got.Workers != 16 {
			t.Errorf("expected 16 workers, got %d", got.Workers)
		}
	})

	t.Run("full path wins over base name", func(t *testing.T) {
		t.Parallel()

		if got := cf.GetBoardConfig("inputs/label.txt"); got.Label != "by path" {
			t.Errorf("expected path entry, got %q", got.Label)
		}
	})

	t.Run("nil boards map", func(t *testing.T) {
		t.Parallel()

		empty := &File{Defaults: BoardConfig{Label: "x"}}
		if got := empty.GetBoardConfig("a.txt"); got.Label != "x" {
			t.Errorf("expected defaults, got %+v", got)
		}
	})
}

// TestConfigBoardSettings tests resolution of flags plus config file.
func TestConfigBoardSettings(t *testing.T) {
	t.Parallel()

	t.Run("without a config file", func(t *testing.T) {
		t.Parallel()

		cfg := &Config{Workers: 3}
		got := cfg.BoardSettings("a.txt")
		if got.Workers != 3 || got.SkipLoops {
			t.Errorf("unexpected settings %+v", got)
		}
	})

	t.Run("config file overrides workers and label", func(t *testing.T) {
		t.Parallel()

		cfg := &Config{
			Workers: 3,
			BoardConfigs: &File{Boards: map[string]BoardConfig{
				"a.txt": {Workers: 9, Label: "A"},
			}},
		}
		got := cfg.BoardSettings("a.txt")
		if got.Workers != 9 || got.Label != "A" {
			t.Errorf("unexpected settings %+v", got)
		}
	})

	t.Run("skip flag cannot be turned off by the file", func(t *testing.T) {
		t.Parallel()

		cfg := &Config{
			Workers:      1,
			SkipLoops:    true,
			BoardConfigs: &File{Boards: map[string]BoardConfig{"a.txt": {}}},
		}
		if !cfg.BoardSettings("a.txt").SkipLoops {
			t.Error("expected SkipLoops to stay true")
		}
	})
}

// TestLoadConfigFile tests loading YAML configuration files.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".raygrid")
		content := `defaults:
  workers: 4
boards:
  day6.txt:
    label: "Guard patrol"
    skipLoops: true
  day8.txt:
    workers: 1
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Defaults.Workers != 4 {
			t.Errorf("expected default workers 4, got %d", cf.Defaults.Workers)
		}
		if len(cf.Boards) != 2 {
			t.Fatalf("expected 2 boards, got %d", len(cf.Boards))
		}
		if got := cf.Boards["day6.txt"]; got.Label != "Guard patrol" || !got.SkipLoops {
			t.Errorf("unexpected day6 entry %+v", got)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".raygrid")
		if err := os.WriteFile(path, []byte("boards: [unterminated"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Boards map", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".raygrid")
		if err := os.WriteFile(path, []byte("defaults:\n  workers: 2\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Boards == nil {
			t.Error("expected Boards to be initialized")
		}
	})
}

// TestFindConfigFile tests config file discovery.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope")); got != "" {
			t.Errorf("expected empty path, got %s", got)
		}
	})
}

// TestXDGDirs tests that XDG directories end with the application name.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		if filepath.Base(dir) != AppName {
			t.Errorf("%s dir %q does not end with %q", name, dir, AppName)
		}
	}
}
