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

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.0-flash"
)

// GeminiAdapter calls the Gemini generateContent REST API directly.
type GeminiAdapter struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	tier       Tier
	maxTokens  int
}

func NewGeminiAdapter(cfg config.ProviderConfig, timeout time.Duration) *GeminiAdapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxTokens
	}
	return &GeminiAdapter{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      model,
		tier:       ParseTier(cfg.Tier),
		maxTokens:  maxTokens,
	}
}

func (a *GeminiAdapter) Name() string { return NameGemini }
func (a *GeminiAdapter) Tier() Tier   { return a.tier }

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig geminiGenConfig  `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (a *GeminiAdapter) Invoke(ctx context.Context, prompt string) Response {
	start := time.Now()
	tag := Tag(NameGemini, a.tier)

	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{MaxOutputTokens: a.maxTokens},
	})
	if err != nil {
		return failedResponse(tag, start, ErrUnknown, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.baseURL, a.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return failedResponse(tag, start, ErrUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

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

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return failedResponse(tag, start, ErrParse, err)
	}

	var sb strings.Builder
	if len(parsed.Candidates) > 0 {
		for _, part := range parsed.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return finalize(NameGemini, a.tier, start, sb.String(),
		parsed.UsageMetadata.PromptTokenCount,
		parsed.UsageMetadata.CandidatesTokenCount,
		parsed.UsageMetadata.TotalTokenCount)
}

func truncateBody(data []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
