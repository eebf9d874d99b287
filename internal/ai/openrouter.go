package ai

import "strings"

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

type openrouterConfig struct {
	HTTPReferer string `json:"http_referer"`
	XTitle      string `json:"x_title"`
}

func createOpenRouterFactory(args interface{}) (IProvider, error) {
	p, err := newChatProvider("openrouter", defaultOpenRouterBaseURL, false, args)
	if err != nil {
		return nil, err
	}
	extra := &openrouterConfig{}
	if err := decodeConfig(args, extra); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(extra.HTTPReferer); v != "" {
		p.headers["HTTP-Referer"] = v
	}
	if v := strings.TrimSpace(extra.XTitle); v != "" {
		p.headers["X-Title"] = v
	}
	return p, nil
}

func init() {
	Register("openrouter", createOpenRouterFactory)
}
