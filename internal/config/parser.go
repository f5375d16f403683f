package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/inkcalc/internal/session"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			continue
		}

		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch section {
		case "":
			err = setRootField(cfg, key, value)
		case "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case "palette":
			err = addSwatch(cfg, key, value)
		}
		if err != nil {
			if section == "" {
				return nil, fmt.Errorf("line %d: error in root section: %w", lineNo, err)
			}
			return nil, fmt.Errorf("line %d: error in section [%s]: %w", lineNo, section, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "endpoint":
		cfg.Endpoint = value
	case "timeout":
		cfg.Timeout, err = parseDuration(key, value)
	case "retries":
		cfg.Retries, err = parseCount(key, value)
	case "max_upload":
		cfg.MaxUpload, err = parseCount(key, value)
	case "background":
		cfg.Background, err = session.ParseColor(value)
	case "ink":
		cfg.Ink, err = session.ParseColor(value)
	case "width":
		cfg.Width, err = parseCount(key, value)
		if err == nil && cfg.Width < 1 {
			err = fmt.Errorf("width must be at least 1")
		}
	case "label_interval":
		cfg.LabelInterval, err = parseDuration(key, value)
	case "history_limit":
		cfg.HistoryLimit, err = parseCount(key, value)
	case "clear_after_eval":
		cfg.ClearAfterEval, err = parseBool(key, value)
	case "save_dir":
		cfg.SaveDir = value
	}
	return err
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := parseBool(key, value)
	if err != nil {
		return err
	}
	switch strings.ToLower(key) {
	case "result":
		n.Result = b
	case "error":
		n.Error = b
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	}
	return nil
}

func addSwatch(cfg *Config, name, value string) error {
	col, err := session.ParseColor(value)
	if err != nil {
		return fmt.Errorf("invalid color for %s: %w", name, err)
	}
	for i := range cfg.Palette {
		if strings.EqualFold(cfg.Palette[i].Name, name) {
			cfg.Palette[i].Color = col
			return nil
		}
	}
	cfg.Palette = append(cfg.Palette, Swatch{Name: name, Color: col})
	return nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	return b, nil
}

func parseCount(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid number for key %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s cannot be negative", key)
	}
	return n, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for key %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s cannot be negative", key)
	}
	return d, nil
}
