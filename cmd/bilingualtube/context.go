package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"bilingualtube/internal/config"
	"bilingualtube/internal/logging"
	"bilingualtube/internal/services/llm"
	"bilingualtube/internal/services/mstranslator"
	"bilingualtube/internal/transcache"
)

// translatorFactory builds the configured translation engine. Tests replace it
// with an in-memory fake.
var translatorFactory = newTranslator

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		copyCfg := *cfg
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			copyCfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		logger, err := logging.NewFromConfig(&copyCfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openCache opens the configured translation cache. Callers close it.
func (c *commandContext) openCache(ctx context.Context) (*transcache.Cache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return transcache.Open(ctx, cfg.Cache, logger)
}

func newTranslator(cfg *config.Config) (transcache.Translator, error) {
	t := cfg.Translation
	switch t.Engine {
	case config.EngineOpenAI:
		return llm.NewClient(llm.Config{
			APIKey:         t.OpenAI.APIKey,
			BaseURL:        t.OpenAI.BaseURL,
			Model:          t.OpenAI.Model,
			Prompt:         t.OpenAI.Prompt,
			TimeoutSeconds: t.OpenAI.TimeoutSeconds,
		}, llm.WithRetryMaxAttempts(t.OpenAI.RetryAttempts)), nil
	case config.EngineMicrosoft:
		return mstranslator.New(t.Microsoft), nil
	default:
		return nil, fmt.Errorf("translation.engine: unsupported value %q", t.Engine)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
