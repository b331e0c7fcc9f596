// Package external client gọi dịch vụ LLM bên ngoài
package external

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Provider hỗ trợ
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ChatClient một lượt chat: system prompt + user prompt → text
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ChatConfig cấu hình client LLM
type ChatConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewChatClient tạo client theo provider. Không có API key thì trả về nil, nil
// để caller bỏ qua bước hỏi LLM mà không gọi mạng.
func NewChatClient(ctx context.Context, cfg ChatConfig, httpClient *http.Client, logger *zap.Logger) (ChatClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Info("Không có LLM API key, tắt disambiguation fallback")
		return nil, nil
	}

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAIClient(cfg, httpClient, logger), nil
	case ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg, httpClient, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("LLM provider không hỗ trợ: %q", cfg.Provider)
	}
}
