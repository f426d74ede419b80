package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
	"github.com/mind-engage/mindengage-assembly/internal/itembank"
)

// loadBank reads items from a .csv or JSON file and validates them.
func loadBank(path string) ([]assembly.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []assembly.Item
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		items, err = itembank.ParseCSV(f)
	} else {
		items, err = itembank.ParseJSON(f)
	}
	if err != nil {
		return nil, fmt.Errorf("read bank %s: %w", path, err)
	}
	if err := itembank.Normalize(items); err != nil {
		return nil, fmt.Errorf("read bank %s: %w", path, err)
	}
	return items, nil
}

// loadConfig reads an assembly config from YAML (JSON is accepted too).
func loadConfig(path string) (assembly.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return assembly.Config{}, err
	}
	var cfg assembly.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return assembly.Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return assembly.Config{}, err
	}
	return cfg, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
