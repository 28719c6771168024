package breaker

import (
	"context"
	"time"

	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Provider 熔断装饰器：包装任意提供商，连续失败后快速失败，
// 避免在上游已经不可用时继续按节奏发送整批请求。
// 熔断打开期间的请求照常作为批次错误处理，调度循环不受影响。
type Provider struct {
	inner  providers.TranslationProvider
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// Settings 熔断配置
type Settings struct {
	// ConsecutiveFailures 连续失败多少次后打开熔断
	ConsecutiveFailures uint32

	// OpenTimeout 熔断打开后多久进入半开状态
	OpenTimeout time.Duration
}

// DefaultSettings 返回默认熔断配置
func DefaultSettings() Settings {
	return Settings{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// Wrap 用熔断器包装一个提供商
func Wrap(inner providers.TranslationProvider, settings Settings, logger *zap.Logger) *Provider {
	st := gobreaker.Settings{
		Name:        inner.GetName(),
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("translation provider circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Provider{
		inner:  inner,
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
	}
}

// Translate 执行翻译
func (p *Provider) Translate(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	result, err := p.cb.Execute(func() (interface{}, error) {
		return p.inner.Translate(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*providers.Response), nil
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return p.inner.GetName()
}
