package config

import (
	"os"
	"path/filepath"
)

// Loader handles loading the configuration.
type Loader struct {
	Version      string // Build version, used to determine dev mode
	OverridePath string // Explicit path from --config

	getenv func(string) string
	home   func() (string, error)
	wd     func() (string, error)
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
		getenv:       os.Getenv,
		home:         os.UserHomeDir,
		wd:           os.Getwd,
	}
}

// Load reads the configuration file, if any, and applies environment
// overrides on top.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.loadFile(l.GetConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(l.getenv)
	return cfg, nil
}

func (l *Loader) loadFile(path string) (*Config, error) {
	if path == "" {
		return New(), nil
	}
	return readFile(path)
}

// GetConfigPath returns the path to the configuration file, or empty string if not found.
func (l *Loader) GetConfigPath() string {
	for _, p := range l.candidates() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultPath is where a new configuration file should be written.
func (l *Loader) DefaultPath() string {
	if l.OverridePath != "" {
		return l.OverridePath
	}
	home, _ := l.home()
	return filepath.Join(home, ".config", "inkcalc", "config.rc")
}

func (l *Loader) candidates() []string {
	var out []string
	if l.OverridePath != "" {
		out = append(out, l.OverridePath)
	}
	if l.Version == "dev" {
		if wd, err := l.wd(); err == nil {
			out = append(out, filepath.Join(wd, ".inkcalcrc"))
		}
	}
	if home, err := l.home(); err == nil {
		out = append(out,
			filepath.Join(home, ".config", "inkcalc", "config.rc"),
			filepath.Join(home, ".config", "inkcalc", "inkcalc.rc"),
		)
	}
	return out
}
