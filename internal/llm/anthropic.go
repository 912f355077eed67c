package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider using the Anthropic SDK.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(baseURL, apiKey, modelName string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{client: &client, model: modelName}, nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	params := p.buildParams(req)
	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, mapAnthropicError(err)
	}

	var content string
	for _, block := range msg.Content {
		if block.Type == "text" {
			content = block.Text
			break
		}
	}
	if content == "" {
		return nil, &ErrInvalidResponse{Err: errors.New("no text content in Anthropic response")}
	}

	return &Response{
		Content: content,
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
		Model: string(msg.Model),
	}, nil
}

func (p *AnthropicProvider) ModelID() string {
	return p.model
}

func (p *AnthropicProvider) buildParams(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  buildAnthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.Schema != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{
				Schema: buildAnthropicSchema(req.Schema.Definition),
			},
		}
	}
	return params
}

// anthropicDropped lists keywords structured outputs reject. The caller
// still validates the reply against the full schema.
var anthropicDropped = map[string]bool{
	"minLength": true,
	"maxLength": true,
	"maxItems":  true,
	"pattern":   true,
	"format":    true,
}

// buildAnthropicSchema copies def without the keywords in anthropicDropped.
// minItems is kept only when it is 0 or 1.
func buildAnthropicSchema(def map[string]any) map[string]any {
	out := make(map[string]any, len(def))
	for k, v := range def {
		if anthropicDropped[k] {
			continue
		}
		if k == "minItems" {
			if n, ok := v.(int); !ok || n > 1 {
				continue
			}
		}
		if props, ok := v.(map[string]any); ok && k == "properties" {
			named := make(map[string]any, len(props))
			for name, prop := range props {
				named[name] = buildAnthropicValue(prop)
			}
			out[k] = named
			continue
		}
		out[k] = buildAnthropicValue(v)
	}
	return out
}

func buildAnthropicValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return buildAnthropicSchema(t)
	case []any:
		items := make([]any, len(t))
		for i, e := range t {
			items[i] = buildAnthropicValue(e)
		}
		return items
	default:
		return v
	}
}

func buildAnthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, len(msgs))
	for i, m := range msgs {
		role := anthropic.MessageParamRoleUser
		if m.Role == RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		out[i] = anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		}
	}
	return out
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}
