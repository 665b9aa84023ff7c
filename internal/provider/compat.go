package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stellarlinkco/anova/internal/config"
)

// CompatAdapter calls any OpenAI-compatible chat completions endpoint (groq,
// deepseek, a local inference server). Its identifier comes from config so
// routing policy can weight it like a first-class provider.
type CompatAdapter struct {
	httpClient *http.Client
	name       string
	baseURL    string
	apiKey     string
	model      string
	tier       Tier
	maxTokens  int
}

func NewCompatAdapter(cfg config.CompatConfig, timeout time.Duration) *CompatAdapter {
	name := cfg.Name
	if name == "" {
		name = "compat"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxTokens
	}
	return &CompatAdapter{
		httpClient: &http.Client{Timeout: timeout},
		name:       name,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		tier:       ParseTier(cfg.Tier),
		maxTokens:  maxTokens,
	}
}

func (a *CompatAdapter) Name() string { return a.name }
func (a *CompatAdapter) Tier() Tier   { return a.tier }

type compatRequest struct {
	Model     string          `json:"model"`
	Messages  []compatMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type compatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type compatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *CompatAdapter) Invoke(ctx context.Context, prompt string) Response {
	start := time.Now()
	tag := Tag(a.name, a.tier)

	body, err := json.Marshal(compatRequest{
		Model:     a.model,
		Messages:  []compatMessage{{Role: "user", Content: prompt}},
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return failedResponse(tag, start, ErrUnknown, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return failedResponse(tag, start, ErrUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return failedResponse(tag, start, classifyError(err), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failedResponse(tag, start, ErrHTTP, err)
	}
	if resp.StatusCode != http.StatusOK {
		return failedResponse(tag, start, ErrProvider,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(data)))
	}

	var parsed compatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return failedResponse(tag, start, ErrParse, err)
	}
	if parsed.Error != nil {
		return failedResponse(tag, start, ErrProvider, fmt.Errorf("%s", parsed.Error.Message))
	}

	var text string
	if len(parsed.Choices) > 0 {
		text = parsed.Choices[0].Message.Content
	}
	return finalize(a.name, a.tier, start, text,
		parsed.Usage.PromptTokens,
		parsed.Usage.CompletionTokens,
		parsed.Usage.TotalTokens)
}
