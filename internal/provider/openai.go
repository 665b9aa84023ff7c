package provider

import (
	"context"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/stellarlinkco/anova/internal/config"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIAdapter calls the OpenAI chat completions API through the official SDK.
type OpenAIAdapter struct {
	client    openai.Client
	model     string
	tier      Tier
	maxTokens int
	timeout   time.Duration
}

func NewOpenAIAdapter(cfg config.ProviderConfig, timeout time.Duration) *OpenAIAdapter {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxTokens
	}
	return &OpenAIAdapter{
		client:    openai.NewClient(opts...),
		model:     model,
		tier:      ParseTier(cfg.Tier),
		maxTokens: maxTokens,
		timeout:   timeout,
	}
}

func (a *OpenAIAdapter) Name() string { return NameOpenAI }
func (a *OpenAIAdapter) Tier() Tier   { return a.tier }

func (a *OpenAIAdapter) Invoke(ctx context.Context, prompt string) Response {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(a.model),
		MaxTokens: openai.Int(int64(a.maxTokens)),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return failedResponse(Tag(NameOpenAI, a.tier), start, classifyError(err), err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	return finalize(NameOpenAI, a.tier, start, text,
		int(resp.Usage.PromptTokens),
		int(resp.Usage.CompletionTokens),
		int(resp.Usage.TotalTokens))
}
