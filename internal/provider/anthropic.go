package provider

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/stellarlinkco/anova/internal/config"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicAdapter calls the Anthropic messages API through the official SDK.
type AnthropicAdapter struct {
	client    anthropic.Client
	model     string
	tier      Tier
	maxTokens int
	timeout   time.Duration
}

func NewAnthropicAdapter(cfg config.ProviderConfig, timeout time.Duration) *AnthropicAdapter {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxTokens
	}
	return &AnthropicAdapter{
		client:    anthropic.NewClient(opts...),
		model:     model,
		tier:      ParseTier(cfg.Tier),
		maxTokens: maxTokens,
		timeout:   timeout,
	}
}

func (a *AnthropicAdapter) Name() string { return NameAnthropic }
func (a *AnthropicAdapter) Tier() Tier   { return a.tier }

func (a *AnthropicAdapter) Invoke(ctx context.Context, prompt string) Response {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return failedResponse(Tag(NameAnthropic, a.tier), start, classifyError(err), err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	in := int(msg.Usage.InputTokens)
	out := int(msg.Usage.OutputTokens)
	return finalize(NameAnthropic, a.tier, start, sb.String(), in, out, in+out)
}
