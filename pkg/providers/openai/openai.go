package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/translation"
	openai "github.com/sashabaranov/go-openai"
)

// Config OpenAI配置
type Config struct {
	providers.BaseConfig
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   4096,
	}
}

// Provider OpenAI提供商，通过聊天补全接口翻译
type Provider struct {
	config Config
	client *openai.Client
}

// New 创建新的OpenAI提供商
func New(config Config) *Provider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.APIEndpoint != "" {
		clientConfig.BaseURL = config.APIEndpoint
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &Provider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// systemPrompt 批量翻译系统提示词。分隔标记必须原样保留，
// 否则响应无法按位置切回各个文本块。
func systemPrompt() string {
	return fmt.Sprintf(`You are a professional translator. Translate accurately while preserving the original meaning and tone.

CRITICAL: the input may contain the literal marker %q on its own line. This marker separates independent text parts:
- Translate each part independently.
- Keep every marker exactly as it appears, in the same position between parts.
- Do NOT translate, remove, merge or reorder markers.
- Output ONLY the translation, no explanations.`, translation.PartBreak)
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(),
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Translate the following text from %s to %s:\n\n%s",
					req.SourceLanguage, req.TargetLanguage, req.Text),
			},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, providers.NewError("server_error", fmt.Sprintf("openai request failed: %v", err))
	}

	if len(resp.Choices) == 0 {
		return nil, providers.NewError("invalid_response", "openai returned no choices")
	}

	return &providers.Response{
		Text:      resp.Choices[0].Message.Content,
		Model:     resp.Model,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
	}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "openai"
}
