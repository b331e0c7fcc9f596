package external

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultGeminiModel model mặc định
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient chat qua Gemini API
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiClient tạo mới GeminiClient, client được tạo một lần và dùng lại
func NewGeminiClient(ctx context.Context, cfg ChatConfig, httpClient *http.Client, logger *zap.Logger) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("tạo Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiClient{client: client, model: model, logger: logger}, nil
}

// Complete gửi một request generateContent, temperature 0
func (c *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	c.logger.Debug("Gemini response", zap.String("model", c.model))
	return result.Text(), nil
}
