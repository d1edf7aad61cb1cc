package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const analysisTemperature = 0.2

// AnthropicCompleter sends prompts to the Anthropic Messages API.
type AnthropicCompleter struct {
	client anthropic.Client
}

// NewAnthropicCompleter builds a completer from cfg. SDK retries are
// disabled; the analyzer owns the retry policy.
func NewAnthropicCompleter(cfg Config) *AnthropicCompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicCompleter{client: anthropic.NewClient(opts...)}
}

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(analysisTemperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &StatusError{StatusCode: apiErr.StatusCode, Err: err}
		}
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return &Response{
		Text:         text.String(),
		Model:        string(msg.Model),
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}, nil
}
