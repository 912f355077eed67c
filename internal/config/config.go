// Package config turns flags, INPUT_* variables and config files into a
// validated run configuration.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/viper"

	"github.com/pavelanni/prquiz/internal/llm"
)

// Defaults for optional inputs.
const (
	DefaultLinesChangedThreshold = 100
	DefaultMaxAttempts           = 3
	DefaultTimeLimitMinutes      = 15
	DefaultAddr                  = ":3000"
)

// ConfigurationError names the input that is missing or invalid.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %q: %s", e.Field, e.Reason)
}

// Config is everything one run needs.
type Config struct {
	GitHubToken  string
	GitHubAPIURL string

	Provider string
	APIKey   string
	Model    string
	BaseURL  string

	NgrokAuthtoken string
	Local          bool

	LinesChangedThreshold int
	MaxAttempts           int // 0 means unlimited
	TimeLimit             time.Duration
	ExcludeFilePatterns   []string
	SystemPrompt          string

	Addr          string
	PublicDir     string
	SecureCookies bool

	Owner      string
	Repo       string
	PullNumber int
}

// Load reads the configuration from v. Repository and pull request number
// fall back to the workflow event in gh when not set explicitly; gh may be nil.
func Load(v *viper.Viper, gh *githubactions.GitHubContext) (*Config, error) {
	cfg := &Config{
		GitHubToken:           v.GetString("github-token"),
		GitHubAPIURL:          v.GetString("github-api-url"),
		Provider:              strings.ToLower(strings.TrimSpace(v.GetString("provider"))),
		APIKey:                v.GetString("api-key"),
		Model:                 v.GetString("model"),
		BaseURL:               v.GetString("base-url"),
		NgrokAuthtoken:        v.GetString("ngrok-authtoken"),
		Local:                 v.GetBool("local"),
		LinesChangedThreshold: v.GetInt("lines-changed-threshold"),
		MaxAttempts:           v.GetInt("max-attempts"),
		TimeLimit:             time.Duration(v.GetInt("time-limit-minutes")) * time.Minute,
		SystemPrompt:          v.GetString("system-prompt"),
		Addr:                  v.GetString("addr"),
		PublicDir:             v.GetString("public-dir"),
		SecureCookies:         v.GetBool("secure-cookies"),
		PullNumber:            v.GetInt("pull-number"),
	}
	if cfg.Provider == "" {
		cfg.Provider = llm.ProviderOpenAI
	}
	if cfg.APIKey == "" {
		cfg.APIKey = v.GetString("openai-api-key")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	patterns, err := ParsePatterns(v.GetString("exclude-file-patterns"))
	if err != nil {
		return nil, &ConfigurationError{Field: "exclude-file-patterns", Reason: err.Error()}
	}
	cfg.ExcludeFilePatterns = patterns

	if repo := v.GetString("repository"); repo != "" {
		owner, name, ok := strings.Cut(repo, "/")
		if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			return nil, &ConfigurationError{Field: "repository", Reason: "must be owner/name"}
		}
		cfg.Owner, cfg.Repo = owner, name
	}
	if gh != nil {
		if cfg.Owner == "" {
			cfg.Owner, cfg.Repo = gh.Repo()
		}
		if cfg.PullNumber == 0 {
			cfg.PullNumber = eventPullNumber(gh.Event)
		}
		if cfg.GitHubAPIURL == "" && gh.APIURL != "" && gh.APIURL != "https://api.github.com" {
			cfg.GitHubAPIURL = gh.APIURL
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required inputs and value ranges.
func (c *Config) Validate() error {
	switch {
	case c.GitHubToken == "":
		return &ConfigurationError{Field: "github-token", Reason: "GitHub token is required"}
	case c.APIKey == "":
		return &ConfigurationError{Field: "api-key", Reason: "LLM API key is required"}
	case !c.Local && c.NgrokAuthtoken == "":
		return &ConfigurationError{Field: "ngrok-authtoken", Reason: "ngrok authtoken is required unless running with --local"}
	case c.LinesChangedThreshold < 0:
		return &ConfigurationError{Field: "lines-changed-threshold", Reason: "must not be negative"}
	case c.MaxAttempts < 0:
		return &ConfigurationError{Field: "max-attempts", Reason: "must not be negative (0 means unlimited)"}
	case c.TimeLimit <= 0:
		return &ConfigurationError{Field: "time-limit-minutes", Reason: "must be positive"}
	case c.Owner == "" || c.Repo == "":
		return &ConfigurationError{Field: "repository", Reason: "repository is required outside a workflow run"}
	case c.PullNumber <= 0:
		return &ConfigurationError{Field: "pull-number", Reason: "pull request number is required outside a pull_request event"}
	}
	switch c.Provider {
	case llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGemini:
	default:
		return &ConfigurationError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", c.Provider)}
	}
	return nil
}

// ParsePatterns accepts a JSON array of globs or a comma separated list.
// Blank input yields no patterns.
func ParsePatterns(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "[") {
		var patterns []string
		if err := json.Unmarshal([]byte(s), &patterns); err != nil {
			return nil, fmt.Errorf("parse JSON array: %w", err)
		}
		return compact(patterns), nil
	}
	return compact(strings.Split(s, ",")), nil
}

func compact(in []string) []string {
	var out []string
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func eventPullNumber(event map[string]any) int {
	for _, key := range []string{"pull_request", "issue"} {
		obj, ok := event[key].(map[string]any)
		if !ok {
			continue
		}
		if n, ok := obj["number"].(float64); ok {
			return int(n)
		}
	}
	if n, ok := event["number"].(float64); ok {
		return int(n)
	}
	return 0
}
