package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/inkcalc/internal/config"
)

type configCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	c := &configCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}

	loader := config.NewLoader(version, c.configPath)
	switch subCmd := args[0]; subCmd {
	case "print":
		fmt.Fprint(c.stdout, c.config.String())
		return nil
	case "path":
		path := loader.GetConfigPath()
		if path == "" {
			fmt.Fprintf(c.stdout, "no configuration file (would write %s)\n", loader.DefaultPath())
			return nil
		}
		fmt.Fprintln(c.stdout, path)
		return nil
	case "save":
		return c.runSave(loader)
	default:
		return fmt.Errorf("unknown config command: %s", subCmd)
	}
}

func (c *configCmd) runSave(loader *config.Loader) error {
	// Save over the file in use, or create one at the default location.
	path := loader.GetConfigPath()
	if path == "" {
		path = loader.DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(c.config.String()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(c.stderr, "Configuration saved to %s\n", path)
	return nil
}
