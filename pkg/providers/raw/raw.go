package raw

import (
	"context"

	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers"
)

// Provider Raw 提供商实现（跳过翻译，直接返回原文）。
// 用于测试、预演模式，以及排查分隔标记协议问题。
type Provider struct{}

// New 创建新的 Raw 提供商
func New() *Provider {
	return &Provider{}
}

// Translate 执行翻译（直接返回原文）
func (p *Provider) Translate(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	return &providers.Response{
		Text:  req.Text,
		Model: "raw",
		Metadata: map[string]string{
			"type": "raw_passthrough",
		},
	}, nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return "raw"
}
