package external

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultOpenAIModel model mặc định
const DefaultOpenAIModel = "gpt-4o"

// OpenAIClient chat completion qua OpenAI
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClient tạo mới OpenAIClient dùng http.Client được inject
func NewOpenAIClient(cfg ChatConfig, httpClient *http.Client, logger *zap.Logger) *OpenAIClient {
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		conf.HTTPClient = httpClient
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(conf),
		model:  model,
		logger: logger,
	}
}

// Complete gửi một request chat completion, temperature 0
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		// 0 bị omitempty bỏ qua, server sẽ dùng mặc định 1
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai trả về không có choice nào")
	}

	c.logger.Debug("OpenAI response",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}
