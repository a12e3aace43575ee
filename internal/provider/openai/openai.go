// Package openai implements the model conversation capability on any
// OpenAI-compatible chat completion endpoint.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/stellarlink/repochat/internal/provider"
)

// Provider implements provider.Conversation via the chat completions API.
type Provider struct {
	client *goopenai.Client
	model  string
}

// NewProvider creates a new OpenAI-compatible provider. baseURL may be empty
// for the default endpoint.
func NewProvider(apiKey, baseURL, model string) *Provider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Provider{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "openai"
}

// Send issues one chat completion round with the tool schema attached.
func (p *Provider) Send(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	var tools []goopenai.Tool
	for _, t := range req.Tools {
		tools = append(tools, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Schema,
			},
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0]

	out := &provider.Response{
		Text:  choice.Message.Content,
		Model: resp.Model,
		Usage: provider.Usage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
	}
	if resp.Usage.PromptTokensDetails != nil {
		out.Usage.CacheReadTokens = int64(resp.Usage.PromptTokensDetails.CachedTokens)
	}

	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, provider.ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}

	return out, nil
}
