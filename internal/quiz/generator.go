package quiz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/prquiz/internal/llm"
	"github.com/pavelanni/prquiz/internal/llm/prompts"
	"github.com/pavelanni/prquiz/internal/pullrequest"
	"github.com/pavelanni/prquiz/internal/retry"
)

// Request parameters sent with every generation call.
const (
	Temperature = 0.7
	MaxTokens   = 1024
)

// DefaultSystemPrompt is used when no custom prompt is configured.
var DefaultSystemPrompt = prompts.DefaultSystem()

// Generator asks an LLM for a quiz about a pull request.
type Generator struct {
	provider     llm.Provider
	systemPrompt string
	policy       retry.Policy
}

// Option configures a Generator.
type Option func(*Generator)

// WithSystemPrompt overrides the default system prompt. Blank values
// keep the default.
func WithSystemPrompt(p string) Option {
	return func(g *Generator) {
		g.systemPrompt = prompts.System(p)
	}
}

// WithRetryPolicy replaces retry.DefaultPolicy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(g *Generator) {
		g.policy = p
	}
}

// NewGenerator creates a Generator backed by provider.
func NewGenerator(provider llm.Provider, opts ...Option) *Generator {
	g := &Generator{
		provider:     provider,
		systemPrompt: DefaultSystemPrompt,
		policy:       retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type generated struct {
	quiz  *Quiz
	usage llm.Usage
}

// GenerateFor produces a validated quiz for snap. Every failure,
// including exhausted retries, is a *GenerationError.
func (g *Generator) GenerateFor(ctx context.Context, snap *pullrequest.Snapshot) (*Quiz, llm.Usage, error) {
	user, err := prompts.BuildUser(prompts.UserData{
		PullRequest:  snap.Serialize(),
		MinQuestions: 3,
		MaxQuestions: MaxQuestions,
	})
	if err != nil {
		return nil, llm.Usage{}, &GenerationError{Err: fmt.Errorf("build prompt: %w", err)}
	}

	req := llm.Request{
		System:      g.systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: user}},
		Schema:      &llm.Schema{Name: "quiz", Description: "Multiple choice quiz", Definition: Schema},
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
	}

	attempt := 0
	out, err := retry.Do(ctx, g.policy, func(ctx context.Context) (generated, error) {
		attempt++
		resp, err := g.provider.Generate(ctx, req)
		if err != nil {
			slog.Warn("quiz generation attempt failed", "attempt", attempt, "error", err)
			return generated{}, &GenerationError{Err: err}
		}
		q, err := Parse(resp.Content)
		if err != nil {
			slog.Warn("quiz generation attempt failed", "attempt", attempt, "error", err)
			return generated{}, err
		}
		return generated{quiz: q, usage: resp.Usage}, nil
	})
	if err != nil {
		return nil, llm.Usage{}, &GenerationError{Err: err}
	}

	slog.Info("quiz generated",
		"model", g.provider.ModelID(),
		"questions", len(out.quiz.Questions),
		"attempts", attempt,
	)
	return out.quiz, out.usage, nil
}
