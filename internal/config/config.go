// ABOUTME: Sortable configuration management with backend selection
// ABOUTME: Handles table definitions, the data directory, and the storage backend factory

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/sortable/internal/models"
	"github.com/harper/sortable/internal/sortable"
	"github.com/harper/sortable/internal/storage"
	"github.com/natefinch/atomic"
)

// DefaultTable is the table used when none is named.
const DefaultTable = "items"

// Config stores sortable configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default) or "badger".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for data storage.
	// SQLite puts sortable.db here. Badger puts its files under badger/.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/sortable.
	DataDir string `json:"data_dir,omitempty"`

	// Tables maps a table name to its ordering definition.
	Tables map[string]TableConfig `json:"tables,omitempty"`

	path string
}

// TableConfig describes one ordered table.
type TableConfig struct {
	Field   string   `json:"field"`
	Group   []string `json:"group,omitempty"`
	Columns []string `json:"columns,omitempty"`
	Start   int      `json:"start"`
	Step    int      `json:"step"`
}

// DefaultTableConfig is a list-grouped table of titled rows.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		Field:   "position",
		Group:   []string{"list"},
		Columns: []string{"list", "title"},
		Start:   1,
		Step:    1,
	}
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		Backend: "sqlite",
		Tables:  map[string]TableConfig{DefaultTable: DefaultTableConfig()},
	}
}

// Engine converts the table definition to an engine configuration.
func (t TableConfig) Engine() sortable.Config {
	return sortable.Config{
		Field: t.Field,
		Group: append([]string(nil), t.Group...),
		Start: t.Start,
		Step:  t.Step,
	}
}

// Schema returns the physical layout of table name.
func (t TableConfig) Schema(name string) models.Schema {
	cols := append([]string(nil), t.Columns...)
	for _, g := range t.Group {
		if !slices.Contains(cols, g) {
			cols = append(cols, g)
		}
	}
	return models.Schema{Table: name, Field: t.Field, Columns: cols}
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return "sqlite"
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// Table returns the definition of name. The default table falls back to
// DefaultTableConfig when the file does not define it.
func (c *Config) Table(name string) (TableConfig, error) {
	if name == "" {
		name = DefaultTable
	}
	if t, ok := c.Tables[name]; ok {
		return t, nil
	}
	if name == DefaultTable {
		return DefaultTableConfig(), nil
	}
	return TableConfig{}, fmt.Errorf("unknown table %q (known: %s)", name, strings.Join(c.TableNames(), ", "))
}

// TableNames returns the configured table names in sorted order.
func (c *Config) TableNames() []string {
	names := make([]string, 0, len(c.Tables))
	for name := range c.Tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// defaultDataDir returns the default XDG data directory for sortable.
func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "sortable")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// StoragePath returns where backend keeps its data under the data directory.
func (c *Config) StoragePath(backend string) (string, error) {
	switch backend {
	case "sqlite":
		return filepath.Join(c.GetDataDir(), "sortable.db"), nil
	case "badger":
		return filepath.Join(c.GetDataDir(), "badger"), nil
	default:
		return "", fmt.Errorf("unknown backend: %q", backend)
	}
}

// OpenStorage creates a Repository for table on the configured backend.
func (c *Config) OpenStorage(table string, logger *log.Logger) (storage.Repository, error) {
	return c.OpenBackend(c.GetBackend(), table, logger)
}

// OpenBackend creates a Repository for table on the named backend.
func (c *Config) OpenBackend(backend, table string, logger *log.Logger) (storage.Repository, error) {
	if table == "" {
		table = DefaultTable
	}
	t, err := c.Table(table)
	if err != nil {
		return nil, err
	}
	path, err := c.StoragePath(backend)
	if err != nil {
		return nil, err
	}

	schema := t.Schema(table)
	switch backend {
	case "sqlite":
		return storage.NewSQLiteStore(path, schema)
	case "badger":
		if err := os.MkdirAll(path, 0750); err != nil {
			return nil, fmt.Errorf("create badger directory: %w", err)
		}
		return storage.NewBadgerStore(path, schema, logger)
	}
	return nil, fmt.Errorf("unknown backend: %q", backend)
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "sortable", "config.json")
}

// Load reads config from the default path.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom reads config from path. A missing file yields the defaults,
// which are written to path for next time.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.path = path
			if saveErr := cfg.Save(); saveErr != nil {
				fmt.Fprintf(os.Stderr, "warning: could not save default config: %v\n", saveErr)
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the backend name and every table definition.
func (c *Config) Validate() error {
	if _, err := c.StoragePath(c.GetBackend()); err != nil {
		return err
	}
	for _, name := range c.TableNames() {
		t := c.Tables[name]
		if err := t.Engine().Validate(); err != nil {
			return fmt.Errorf("table %q: %w", name, err)
		}
		if err := t.Schema(name).Validate(); err != nil {
			return fmt.Errorf("table %q: %w", name, err)
		}
	}
	return nil
}

// Path returns the file this config was loaded from, or the default path.
func (c *Config) Path() string {
	if c.path == "" {
		return GetConfigPath()
	}
	return c.path
}

// Save writes config to Path.
func (c *Config) Save() error {
	path := c.Path()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
