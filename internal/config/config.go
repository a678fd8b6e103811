package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// OpenAI contains settings for OpenAI-compatible chat completion backends.
type OpenAI struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Prompt         string `toml:"prompt"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// Microsoft contains settings for the anonymous Edge translator endpoint.
type Microsoft struct {
	AuthURL        string `toml:"auth_url"`
	Endpoint       string `toml:"endpoint"`
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Translation contains target language, engine selection, and scheduling knobs.
type Translation struct {
	TargetLanguage string    `toml:"target_language"`
	Engine         string    `toml:"engine"`
	Mode           string    `toml:"mode"`
	HorizonSeconds float64   `toml:"horizon_seconds"`
	MaxCues        int       `toml:"max_cues"`
	OpenAI         OpenAI    `toml:"openai"`
	Microsoft      Microsoft `toml:"microsoft"`
}

// Cache contains configuration for the persistent translation cache.
type Cache struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
}

// Punctuation contains the model asset locators for punctuation restoration.
// The three paths are host provided; nothing in the pipeline hard-codes them.
type Punctuation struct {
	Enabled        bool     `toml:"enabled"`
	Runtime        string   `toml:"runtime"`
	Model          string   `toml:"model"`
	Vocab          string   `toml:"vocab"`
	WindowTokens   int      `toml:"window_tokens"`
	OverlapTokens  int      `toml:"overlap_tokens"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Languages      []string `toml:"languages"`
}

// Segmentation controls how punctuated ASR tracks become cues.
type Segmentation struct {
	ASRStrategy string `toml:"asr_strategy"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for bilingualtube.
//
// Configuration sections by subsystem:
//   - Translation: target language, engine, scheduling window, engine credentials
//   - Cache: translation cache backend and location
//   - Punctuation: restoration model assets and windowing
//   - Segmentation: cue building strategy for punctuated ASR tracks
//   - Logging: log format, level, and optional file output
type Config struct {
	Translation  Translation  `toml:"translation"`
	Cache        Cache        `toml:"cache"`
	Punctuation  Punctuation  `toml:"punctuation"`
	Segmentation Segmentation `toml:"segmentation"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bilingualtube.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories when configured.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Cache.Dir, c.Logging.Dir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CachePath returns the file backing the configured cache backend. The memory
// backend has no file and yields an empty path.
func (c *Config) CachePath() string {
	switch c.Cache.Backend {
	case CacheBackendSQLite:
		return filepath.Join(c.Cache.Dir, "translations.db")
	case CacheBackendJSON:
		return filepath.Join(c.Cache.Dir, "translations.json")
	default:
		return ""
	}
}

// PunctuationEnabledFor reports whether restoration should run for lang.
func (c *Config) PunctuationEnabledFor(lang string) bool {
	if !c.Punctuation.Enabled {
		return false
	}
	for _, candidate := range c.Punctuation.Languages {
		if candidate == lang {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "bilingualtube")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/bilingualtube"
	}
	return filepath.Join(home, ".cache", "bilingualtube")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
