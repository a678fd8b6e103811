package config

const (
	defaultConfigPath = "~/.config/bilingualtube/config.toml"

	defaultTargetLanguage = "en"
	defaultHorizonSeconds = 60
	defaultMaxCues        = 10

	defaultOpenAIBaseURL        = "https://api.openai.com/v1"
	defaultOpenAIModel          = "gpt-4.1-mini"
	defaultOpenAITimeoutSeconds = 60
	defaultOpenAIRetryAttempts  = 3

	defaultMicrosoftAuthURL        = "https://edge.microsoft.com/translate/auth"
	defaultMicrosoftEndpoint       = "https://api.cognitive.microsofttranslator.com/translate"
	defaultMicrosoftUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0"
	defaultMicrosoftTimeoutSeconds = 15

	defaultPunctuationWindow  = 180
	defaultPunctuationOverlap = 30
	defaultPunctuationTimeout = 30
)

// Supported translation engines.
const (
	EngineMicrosoft = "microsoft"
	EngineOpenAI    = "openai"
)

// Translation selection modes. ModeWindow selects every untranslated cue inside
// the look-ahead horizon; ModeNext selects the next MaxCues untranslated cues.
const (
	ModeWindow = "window"
	ModeNext   = "next"
)

// Cache backends.
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendJSON   = "json"
	CacheBackendMemory = "memory"
)

// Strategies for punctuated ASR tracks.
const (
	StrategyDefragment = "defragment"
	StrategySegment    = "segment"
)

// DefaultTranslationPrompt is the chat prompt used by the OpenAI engine. The
// {{Target Language}} and {{Text to Translate}} placeholders are substituted
// per request.
const DefaultTranslationPrompt = `You are a professional subtitle translator. Translate every segment below into {{Target Language}}.

Rules:
1. Segments are separated by a line containing only %%. Keep exactly the same number of segments, in the same order.
2. Output only the translated segments separated by %% lines. No numbering, no commentary, no quotes.
3. Keep speaker markers such as ">>" and sound tags such as [Music] unchanged.
4. Translate each segment on its own even when a sentence continues in the next segment.

Input:
{{Text to Translate}}`

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Translation: Translation{
			TargetLanguage: defaultTargetLanguage,
			Engine:         EngineMicrosoft,
			Mode:           ModeWindow,
			HorizonSeconds: defaultHorizonSeconds,
			MaxCues:        defaultMaxCues,
			OpenAI: OpenAI{
				BaseURL:        defaultOpenAIBaseURL,
				Model:          defaultOpenAIModel,
				Prompt:         DefaultTranslationPrompt,
				TimeoutSeconds: defaultOpenAITimeoutSeconds,
				RetryAttempts:  defaultOpenAIRetryAttempts,
			},
			Microsoft: Microsoft{
				AuthURL:        defaultMicrosoftAuthURL,
				Endpoint:       defaultMicrosoftEndpoint,
				UserAgent:      defaultMicrosoftUserAgent,
				TimeoutSeconds: defaultMicrosoftTimeoutSeconds,
			},
		},
		Cache: Cache{
			Backend: CacheBackendSQLite,
			Dir:     defaultCacheDir(),
		},
		Punctuation: Punctuation{
			Enabled:        false,
			WindowTokens:   defaultPunctuationWindow,
			OverlapTokens:  defaultPunctuationOverlap,
			TimeoutSeconds: defaultPunctuationTimeout,
			Languages:      []string{"en"},
		},
		Segmentation: Segmentation{
			ASRStrategy: StrategyDefragment,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
