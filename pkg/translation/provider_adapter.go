package translation

import (
	"context"

	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers"
)

// providerAdapter 将提供商接口适配为 Translator
type providerAdapter struct {
	provider providers.TranslationProvider
}

// NewProviderAdapter 创建提供商适配器
func NewProviderAdapter(p providers.TranslationProvider) Translator {
	return &providerAdapter{provider: p}
}

// Translate 执行翻译
func (a *providerAdapter) Translate(ctx context.Context, req *Request) (*Response, error) {
	presp, err := a.provider.Translate(ctx, &providers.Request{
		Text:           req.Text,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		return nil, WrapError(err, ErrCodeProvider, "provider "+a.provider.GetName()+" failed")
	}

	return &Response{
		Text:           presp.Text,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		Model:          presp.Model,
		Usage: Usage{
			InputTokens:  presp.TokensIn,
			OutputTokens: presp.TokensOut,
		},
	}, nil
}
