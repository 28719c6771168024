package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers/retry"
)

// Config Google Translate配置
type Config struct {
	providers.BaseConfig
	RetryConfig retry.Config `json:"retry_config"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	config := Config{
		BaseConfig:  providers.DefaultConfig(),
		RetryConfig: retry.DefaultConfig(),
	}
	config.APIEndpoint = "https://translation.googleapis.com/language/translate/v2"
	return config
}

// Provider Google Translate提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	retrier    *retry.Retrier
}

// New 创建新的Google Translate提供商
func New(config Config) *Provider {
	if config.APIEndpoint == "" {
		config.APIEndpoint = "https://translation.googleapis.com/language/translate/v2"
	}

	return &Provider{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retrier: retry.New(config.RetryConfig),
	}
}

// translateResponse API响应结构
type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	form := url.Values{}
	form.Set("q", req.Text)
	form.Set("source", normalizeLanguageCode(req.SourceLanguage))
	form.Set("target", normalizeLanguageCode(req.TargetLanguage))
	form.Set("format", "text")
	form.Set("key", p.config.APIKey)

	resp, err := p.retrier.Do(ctx, func() (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			p.config.APIEndpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for k, v := range p.config.Headers {
			httpReq.Header.Set(k, v)
		}
		return p.httpClient.Do(httpReq)
	})
	if err != nil {
		return nil, providers.NewError("server_error", fmt.Sprintf("google translate request failed: %v", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providers.NewError("server_error", fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		code := "server_error"
		if resp.StatusCode == http.StatusTooManyRequests {
			code = "rate_limit"
		}
		return nil, providers.NewError(code,
			fmt.Sprintf("google translate returned %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var parsed translateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, providers.NewError("invalid_response", fmt.Sprintf("failed to parse response: %v", err))
	}

	if len(parsed.Data.Translations) == 0 {
		return nil, providers.NewError("invalid_response", "no translation returned")
	}

	return &providers.Response{
		Text:  parsed.Data.Translations[0].TranslatedText,
		Model: "google-translate-v2",
	}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "google"
}

// normalizeLanguageCode 归一化语言代码（zh-CN -> zh-CN, english -> en 等常见写法）
func normalizeLanguageCode(code string) string {
	switch strings.ToLower(code) {
	case "chinese", "zh", "zh-cn", "zh-hans":
		return "zh-CN"
	case "chinese-traditional", "zh-tw", "zh-hant":
		return "zh-TW"
	case "english", "en":
		return "en"
	case "japanese", "ja", "jp":
		return "ja"
	case "korean", "ko":
		return "ko"
	default:
		return code
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
