package config

import (
	"fmt"
	"os"
	"strings"

	"bilingualtube/internal/language"
)

func (c *Config) normalize() error {
	c.normalizeTranslation()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	if err := c.normalizePunctuation(); err != nil {
		return err
	}
	c.Segmentation.ASRStrategy = lowerOr(c.Segmentation.ASRStrategy, StrategyDefragment)
	return c.normalizeLogging()
}

func (c *Config) normalizeTranslation() {
	t := &c.Translation
	if value, ok := os.LookupEnv("BILINGUALTUBE_TARGET_LANGUAGE"); ok && strings.TrimSpace(value) != "" {
		t.TargetLanguage = value
	}
	t.TargetLanguage = strings.TrimSpace(t.TargetLanguage)
	if t.TargetLanguage == "" {
		t.TargetLanguage = defaultTargetLanguage
	}
	t.TargetLanguage = language.Normalize(t.TargetLanguage)
	t.Engine = lowerOr(t.Engine, EngineMicrosoft)
	t.Mode = lowerOr(t.Mode, ModeWindow)
	if t.HorizonSeconds == 0 {
		t.HorizonSeconds = defaultHorizonSeconds
	}
	if t.MaxCues == 0 {
		t.MaxCues = defaultMaxCues
	}

	if t.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			t.OpenAI.APIKey = value
		}
	}
	t.OpenAI.APIKey = strings.TrimSpace(t.OpenAI.APIKey)
	t.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(t.OpenAI.BaseURL), "/")
	if t.OpenAI.BaseURL == "" {
		t.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	t.OpenAI.Model = strings.TrimSpace(t.OpenAI.Model)
	if t.OpenAI.Model == "" {
		t.OpenAI.Model = defaultOpenAIModel
	}
	if strings.TrimSpace(t.OpenAI.Prompt) == "" {
		t.OpenAI.Prompt = DefaultTranslationPrompt
	}
	if t.OpenAI.TimeoutSeconds <= 0 {
		t.OpenAI.TimeoutSeconds = defaultOpenAITimeoutSeconds
	}
	if t.OpenAI.RetryAttempts <= 0 {
		t.OpenAI.RetryAttempts = defaultOpenAIRetryAttempts
	}

	t.Microsoft.AuthURL = strings.TrimSpace(t.Microsoft.AuthURL)
	if t.Microsoft.AuthURL == "" {
		t.Microsoft.AuthURL = defaultMicrosoftAuthURL
	}
	t.Microsoft.Endpoint = strings.TrimSpace(t.Microsoft.Endpoint)
	if t.Microsoft.Endpoint == "" {
		t.Microsoft.Endpoint = defaultMicrosoftEndpoint
	}
	t.Microsoft.UserAgent = strings.TrimSpace(t.Microsoft.UserAgent)
	if t.Microsoft.UserAgent == "" {
		t.Microsoft.UserAgent = defaultMicrosoftUserAgent
	}
	if t.Microsoft.TimeoutSeconds <= 0 {
		t.Microsoft.TimeoutSeconds = defaultMicrosoftTimeoutSeconds
	}
}

func (c *Config) normalizeCache() error {
	c.Cache.Backend = lowerOr(c.Cache.Backend, CacheBackendSQLite)
	if strings.TrimSpace(c.Cache.Dir) == "" {
		c.Cache.Dir = defaultCacheDir()
	}
	var err error
	if c.Cache.Dir, err = expandPath(c.Cache.Dir); err != nil {
		return fmt.Errorf("cache.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePunctuation() error {
	p := &c.Punctuation
	var err error
	if p.Runtime, err = expandPath(strings.TrimSpace(p.Runtime)); err != nil {
		return fmt.Errorf("punctuation.runtime: %w", err)
	}
	if p.Model, err = expandPath(strings.TrimSpace(p.Model)); err != nil {
		return fmt.Errorf("punctuation.model: %w", err)
	}
	if p.Vocab, err = expandPath(strings.TrimSpace(p.Vocab)); err != nil {
		return fmt.Errorf("punctuation.vocab: %w", err)
	}
	if p.WindowTokens == 0 {
		p.WindowTokens = defaultPunctuationWindow
	}
	if p.OverlapTokens == 0 {
		p.OverlapTokens = defaultPunctuationOverlap
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaultPunctuationTimeout
	}
	p.Languages = language.NormalizeList(p.Languages)
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = lowerOr(c.Logging.Format, "console")
	c.Logging.Level = lowerOr(c.Logging.Level, "info")
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}

func lowerOr(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
