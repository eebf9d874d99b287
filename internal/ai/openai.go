package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type chatConfig struct {
	APIKey      string   `json:"api_key"`
	BaseURL     string   `json:"base_url"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	// JSONMode asks the server for a json_object response. Not every
	// openai compatible server supports it.
	JSONMode *bool `json:"json_mode"`
}

// chatProvider speaks the /chat/completions protocol shared by openai and
// openrouter.
type chatProvider struct {
	name        string
	apiKey      string
	baseURL     string
	temperature *float64
	maxTokens   int
	jsonMode    bool
	headers     map[string]string
	client      *http.Client
}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Stream         bool                `json:"stream"`
	Temperature    *float64            `json:"temperature,omitempty"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *chatProvider) Name() string {
	return p.name
}

func (p *chatProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	body := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}
	if p.jsonMode {
		body.ResponseFormat = &chatResponseFormat{Type: "json_object"}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &OracleError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s request failed: %s: %s", p.name, resp.Status, strings.TrimSpace(string(raw))),
		}
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode %s response: %w", p.name, err)
	}
	// some upstreams report failures inside a 200 body
	if out.Error != nil {
		return "", &OracleError{StatusCode: out.Error.Code, Message: out.Error.Message}
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s response has no choices", p.name)
	}
	// a length cut still returns the partial text, the parser salvages what it can
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func newChatProvider(name, defaultBaseURL string, jsonMode bool, args interface{}) (*chatProvider, error) {
	cfg := &chatConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if cfg.JSONMode != nil {
		jsonMode = *cfg.JSONMode
	}
	return &chatProvider{
		name:        name,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     baseURL,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		jsonMode:    jsonMode,
		headers:     map[string]string{},
		client:      http.DefaultClient,
	}, nil
}

func createOpenAIFactory(args interface{}) (IProvider, error) {
	return newChatProvider("openai", defaultOpenAIBaseURL, true, args)
}

func init() {
	Register("openai", createOpenAIFactory)
}
