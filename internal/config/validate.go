package config

import (
	"errors"
	"fmt"

	"bilingualtube/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validatePunctuation(); err != nil {
		return err
	}
	if err := c.validateSegmentation(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTranslation() error {
	t := c.Translation
	if !language.Valid(t.TargetLanguage) {
		return fmt.Errorf("translation.target_language: %q is not a valid language tag", t.TargetLanguage)
	}
	switch t.Engine {
	case EngineMicrosoft:
	case EngineOpenAI:
		if t.OpenAI.APIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("translation.openai.api_key is required for the openai engine. Set OPENAI_API_KEY or edit %s (create with 'bilingualtube config init')", defaultPath)
		}
	default:
		return fmt.Errorf("translation.engine: unsupported value %q", t.Engine)
	}
	switch t.Mode {
	case ModeWindow, ModeNext:
	default:
		return fmt.Errorf("translation.mode: unsupported value %q", t.Mode)
	}
	if t.HorizonSeconds < 0 {
		return errors.New("translation.horizon_seconds must be positive")
	}
	if t.MaxCues < 0 {
		return errors.New("translation.max_cues must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheBackendSQLite, CacheBackendJSON, CacheBackendMemory:
		return nil
	default:
		return fmt.Errorf("cache.backend: unsupported value %q", c.Cache.Backend)
	}
}

func (c *Config) validatePunctuation() error {
	p := c.Punctuation
	if p.WindowTokens < 0 || p.OverlapTokens < 0 {
		return errors.New("punctuation.window_tokens and punctuation.overlap_tokens must be positive")
	}
	if !p.Enabled {
		return nil
	}
	if p.Runtime == "" {
		return errors.New("punctuation.runtime must be set when punctuation is enabled")
	}
	if p.Model == "" {
		return errors.New("punctuation.model must be set when punctuation is enabled")
	}
	if p.Vocab == "" {
		return errors.New("punctuation.vocab must be set when punctuation is enabled")
	}
	return nil
}

func (c *Config) validateSegmentation() error {
	switch c.Segmentation.ASRStrategy {
	case StrategyDefragment, StrategySegment:
		return nil
	default:
		return fmt.Errorf("segmentation.asr_strategy: unsupported value %q", c.Segmentation.ASRStrategy)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
