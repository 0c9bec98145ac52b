package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Engines that can back the property dispatcher.
const (
	EngineTagLib = "taglib"
	EngineMemory = "memory"
)

// Config contains the program configuration
type Config struct {
	Verbose      bool     `yaml:"verbose"`
	Engine       string   `yaml:"engine"`
	ParallelJobs int      `yaml:"parallel_jobs"`
	Extensions   []string `yaml:"extensions"`
	LibraryRoot  string   `yaml:"library_root"`
	WebPort      int      `yaml:"web_port"`
	LogDir       string   `yaml:"log_dir"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Verbose:      false,
		Engine:       EngineTagLib,
		ParallelJobs: 4,
		Extensions:   []string{".mp3", ".m4a", ".mp4", ".flac", ".ogg", ".opus"},
		LibraryRoot:  filepath.Join(homeDir(), "Music"),
		WebPort:      8080,
		LogDir:       GetDefaultLogPath(),
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.LibraryRoot = ExpandHome(cfg.LibraryRoot)
	cfg.LogDir = ExpandHome(cfg.LogDir)

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./mediaprops.yaml",
		"./mediaprops.yml",
		filepath.Join(home, ".config", "mediaprops", "config.yaml"),
		filepath.Join(home, ".config", "mediaprops", "config.yml"),
		filepath.Join(home, ".mediaprops.yaml"),
		filepath.Join(home, ".mediaprops.yml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "mediaprops", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "mediaprops", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// HasExtension reports whether path ends in one of the configured
// extensions. Comparison ignores case.
func (c *Config) HasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Engine != EngineTagLib && c.Engine != EngineMemory {
		return fmt.Errorf("unknown engine '%s', valid engines: %s, %s", c.Engine, EngineTagLib, EngineMemory)
	}

	if c.ParallelJobs < 1 {
		return fmt.Errorf("parallel jobs must be at least 1, got %d", c.ParallelJobs)
	}
	if c.ParallelJobs > 32 {
		return fmt.Errorf("parallel jobs cannot exceed 32, got %d", c.ParallelJobs)
	}

	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions cannot be empty")
	}
	for _, e := range c.Extensions {
		if !strings.HasPrefix(e, ".") || len(e) < 2 {
			return fmt.Errorf("extension %q must start with a dot", e)
		}
	}

	if c.WebPort < 1 || c.WebPort > 65535 {
		return fmt.Errorf("web_port must be between 1 and 65535, got %d", c.WebPort)
	}

	return nil
}

// ValidateLibrary checks the settings the web server needs on top of Validate.
func (c *Config) ValidateLibrary() error {
	if c.LibraryRoot == "" {
		return fmt.Errorf("library_root cannot be empty")
	}
	info, err := os.Stat(c.LibraryRoot)
	if err != nil {
		return fmt.Errorf("library_root %s is not accessible: %w", c.LibraryRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("library_root %s is not a directory", c.LibraryRoot)
	}
	return nil
}
