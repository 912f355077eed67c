package config

import (
	"errors"
	"testing"
	"time"

	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseViper() *viper.Viper {
	v := viper.New()
	v.Set("github-token", "ghp")
	v.Set("api-key", "sk")
	v.Set("ngrok-authtoken", "ngrok")
	v.Set("lines-changed-threshold", DefaultLinesChangedThreshold)
	v.Set("max-attempts", DefaultMaxAttempts)
	v.Set("time-limit-minutes", DefaultTimeLimitMinutes)
	v.Set("repository", "octo/repo")
	v.Set("pull-number", 12)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(baseViper(), nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, 15*time.Minute, cfg.TimeLimit)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 100, cfg.LinesChangedThreshold)
	assert.Equal(t, "octo", cfg.Owner)
	assert.Equal(t, "repo", cfg.Repo)
	assert.Equal(t, 12, cfg.PullNumber)
	assert.Nil(t, cfg.ExcludeFilePatterns)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		set   map[string]any
		field string
	}{
		{"missing github token", map[string]any{"github-token": ""}, "github-token"},
		{"missing api key", map[string]any{"api-key": ""}, "api-key"},
		{"missing ngrok token", map[string]any{"ngrok-authtoken": ""}, "ngrok-authtoken"},
		{"negative threshold", map[string]any{"lines-changed-threshold": -1}, "lines-changed-threshold"},
		{"negative attempts", map[string]any{"max-attempts": -2}, "max-attempts"},
		{"zero time limit", map[string]any{"time-limit-minutes": 0}, "time-limit-minutes"},
		{"bad repository", map[string]any{"repository": "just-a-name"}, "repository"},
		{"missing pull number", map[string]any{"pull-number": 0}, "pull-number"},
		{"unknown provider", map[string]any{"provider": "llama"}, "provider"},
		{"mock provider is test-only", map[string]any{"provider": "mock"}, "provider"},
		{"bad patterns", map[string]any{"exclude-file-patterns": `["*.lock"`}, "exclude-file-patterns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := baseViper()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := Load(v, nil)
			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce), "expected ConfigurationError, got %v", err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestLoadRelaxedRequirements(t *testing.T) {
	v := baseViper()
	v.Set("ngrok-authtoken", "")
	v.Set("local", true)
	v.Set("max-attempts", 0)
	_, err := Load(v, nil)
	assert.NoError(t, err)

	v = baseViper()
	v.Set("provider", " Anthropic ")
	cfg, err := Load(v, nil)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)

	v = baseViper()
	v.Set("api-key", "")
	v.Set("openai-api-key", "legacy")
	cfg, err = Load(v, nil)
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.APIKey)
}

func TestLoadFromWorkflowEvent(t *testing.T) {
	v := baseViper()
	v.Set("repository", "")
	v.Set("pull-number", 0)
	gh := &githubactions.GitHubContext{
		Repository: "acme/widgets",
		APIURL:     "https://ghe.example.com/api/v3",
		Event: map[string]any{
			"pull_request": map[string]any{"number": float64(77)},
		},
	}
	cfg, err := Load(v, gh)
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.Owner)
	assert.Equal(t, "widgets", cfg.Repo)
	assert.Equal(t, 77, cfg.PullNumber)
	assert.Equal(t, "https://ghe.example.com/api/v3", cfg.GitHubAPIURL)
}

func TestExplicitValuesBeatEvent(t *testing.T) {
	gh := &githubactions.GitHubContext{
		Repository: "acme/widgets",
		Event:      map[string]any{"pull_request": map[string]any{"number": float64(77)}},
	}
	cfg, err := Load(baseViper(), gh)
	require.NoError(t, err)
	assert.Equal(t, "octo", cfg.Owner)
	assert.Equal(t, 12, cfg.PullNumber)
}

func TestParsePatterns(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"[]", nil},
		{`["*.lock", "dist/**"]`, []string{"*.lock", "dist/**"}},
		{"*.lock, dist/** ,,", []string{"*.lock", "dist/**"}},
		{"package-lock.json", []string{"package-lock.json"}},
	}
	for _, tt := range tests {
		got, err := ParsePatterns(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
