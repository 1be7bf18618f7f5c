package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"compotube/internal/auth"
	"compotube/internal/db"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".compotube"
	configFileName = "config.yaml"
	logFileName    = "compotube.log"
	apiKeyEnv      = "YOUTUBE_API_KEY"
)

// Config holds the resolved CLI configuration.
type Config struct {
	Dir        string
	ConfigPath string
	DBPath     string
	Store      string
	APIKey     string
	LogLevel   string
	Accounts   []auth.Account
	Scopes     []string
	Search     SearchConfig
}

// SearchConfig tunes the YouTube client.
type SearchConfig struct {
	MaxResults int           `yaml:"max_results"`
	CacheSize  int           `yaml:"cache_size"`
	Retries    int           `yaml:"retries"`
	Timeout    time.Duration `yaml:"timeout"`
	BaseURL    string        `yaml:"base_url,omitempty"`
}

// fileConfig is the layout of config.yaml.
type fileConfig struct {
	APIKey   string          `yaml:"api_key,omitempty"`
	Store    string          `yaml:"store,omitempty"`
	DBPath   string          `yaml:"db_path,omitempty"`
	LogLevel string          `yaml:"log_level,omitempty"`
	Accounts []accountConfig `yaml:"accounts,omitempty"`
	Scopes   []string        `yaml:"scopes,omitempty"`
	Search   SearchConfig    `yaml:"search,omitempty"`
}

type accountConfig struct {
	Name  string `yaml:"name"`
	Token string `yaml:"token,omitempty"`
}

// flagValues are the persistent flags of the root command.
type flagValues struct {
	configPath string
	dbPath     string
	store      string
	apiKey     string
	logLevel   string
}

func defaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxResults: 25,
		CacheSize:  64,
		Retries:    3,
		Timeout:    10 * time.Second,
	}
}

// resolveConfig merges flags, environment, config file and defaults, in that order.
func resolveConfig(flags flagValues) (*Config, error) {
	// Load .env files first so env-based defaults work with flag parsing.
	loadDotEnv(".env")
	loadDotEnv(".env.local")

	config := &Config{ConfigPath: flags.configPath}

	if config.ConfigPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		config.Dir = filepath.Join(home, configDirName)
		config.ConfigPath = filepath.Join(config.Dir, configFileName)
	} else {
		config.Dir = filepath.Dir(config.ConfigPath)
	}
	if err := os.MkdirAll(config.Dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := loadFileConfig(config.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	config.Store = firstNonEmpty(flags.store, file.Store, db.BackendSQLite)
	config.DBPath = firstNonEmpty(flags.dbPath, file.DBPath, filepath.Join(config.Dir, defaultStoreFile(config.Store)))
	config.APIKey = firstNonEmpty(flags.apiKey, os.Getenv(apiKeyEnv), file.APIKey)
	config.LogLevel = firstNonEmpty(flags.logLevel, file.LogLevel, "info")
	config.Scopes = file.Scopes
	if len(config.Scopes) == 0 {
		config.Scopes = []string{auth.ScopeYouTubeReadonly}
	}
	for _, a := range file.Accounts {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		config.Accounts = append(config.Accounts, auth.Account{Name: name, Token: strings.TrimSpace(a.Token)})
	}

	config.Search = defaultSearchConfig()
	if file.Search.MaxResults > 0 {
		config.Search.MaxResults = file.Search.MaxResults
	}
	if file.Search.CacheSize != 0 {
		config.Search.CacheSize = file.Search.CacheSize
	}
	if file.Search.Retries > 0 {
		config.Search.Retries = file.Search.Retries
	}
	if file.Search.Timeout > 0 {
		config.Search.Timeout = file.Search.Timeout
	}
	config.Search.BaseURL = strings.TrimSpace(file.Search.BaseURL)

	if config.APIKey == "" {
		secureKey, err := loadSecureAPIKey(config.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to load secure API key: %w", err)
		}
		config.APIKey = secureKey
	}

	return config, nil
}

func defaultStoreFile(backend string) string {
	if backend == db.BackendBolt {
		return "compotube.bolt"
	}
	return "compotube.db"
}

func loadFileConfig(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileConfig{}, nil
		}
		return fileConfig{}, err
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return file, nil
}

func saveFileConfig(path string, file fileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return err
	}
	// Account tokens may be stored here.
	return os.WriteFile(path, data, 0600)
}

func configExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func secureAPIKeyPath(configDir string) string {
	return filepath.Join(configDir, "api_key")
}

func saveSecureAPIKey(configDir, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}
	// Owner read/write only.
	return os.WriteFile(secureAPIKeyPath(configDir), []byte(strings.TrimSpace(key)+"\n"), 0600)
}

func loadSecureAPIKey(configDir string) (string, error) {
	data, err := os.ReadFile(secureAPIKeyPath(configDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		if key == "" {
			continue
		}

		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}

// newLogger opens the log file in the config directory. The terminal belongs
// to the UI, so records never go to stderr.
func newLogger(config *Config) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", config.LogLevel, err)
	}

	f, err := os.OpenFile(filepath.Join(config.Dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, f, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
