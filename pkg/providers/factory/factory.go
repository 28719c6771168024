package factory

import (
	"fmt"
	"time"

	"github.com/nerdneilsfield/go-vocab-annotator/internal/config"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers/breaker"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers/google"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/providers/raw"
	"github.com/nerdneilsfield/go-vocab-annotator/pkg/translation"
	"go.uber.org/zap"
)

// Build 根据配置构建当前启用的翻译器。
// 没有配置启用的引擎时返回 (nil, nil)：调度器对 nil 翻译器的
// 处理方式是中止派发循环并保留队列。
func Build(cfg *config.Config, logger *zap.Logger) (translation.Translator, error) {
	if cfg.ActiveEngine == "" {
		return nil, nil
	}

	engineCfg := cfg.Engine(cfg.ActiveEngine)
	if engineCfg == nil {
		return nil, fmt.Errorf("active engine %q not found", cfg.ActiveEngine)
	}
	if !engineCfg.Enabled {
		return nil, fmt.Errorf("active engine %q is disabled", cfg.ActiveEngine)
	}

	provider, err := buildProvider(engineCfg)
	if err != nil {
		return nil, err
	}

	// raw 是本地提供商，不需要熔断
	if cfg.Breaker.Enabled && engineCfg.Type != "raw" {
		settings := breaker.DefaultSettings()
		if cfg.Breaker.ConsecutiveFailures > 0 {
			settings.ConsecutiveFailures = uint32(cfg.Breaker.ConsecutiveFailures)
		}
		if cfg.Breaker.OpenTimeoutSeconds > 0 {
			settings.OpenTimeout = time.Duration(cfg.Breaker.OpenTimeoutSeconds) * time.Second
		}
		provider = breaker.Wrap(provider, settings, logger)
	}

	return translation.NewProviderAdapter(provider), nil
}

// BuildAll 构建所有启用的引擎并注册到注册表，供诊断命令枚举。
// 构建失败的引擎让整个调用失败：配置坏了要立刻暴露。
func BuildAll(cfg *config.Config) (*providers.Registry, error) {
	registry := providers.NewRegistry()
	for i := range cfg.Engines {
		engineCfg := &cfg.Engines[i]
		if !engineCfg.Enabled {
			continue
		}
		provider, err := buildProvider(engineCfg)
		if err != nil {
			return nil, fmt.Errorf("engine %q: %w", engineCfg.Name, err)
		}
		if err := registry.Register(engineCfg.Name, provider); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// buildProvider 根据引擎类型创建提供商
func buildProvider(engineCfg *config.EngineConfig) (providers.TranslationProvider, error) {
	switch engineCfg.Type {
	case "openai":
		providerCfg := openai.DefaultConfig()
		providerCfg.APIKey = engineCfg.APIKey
		providerCfg.APIEndpoint = engineCfg.BaseURL
		providerCfg.Timeout = engineCfg.Timeout()
		if engineCfg.Model != "" {
			providerCfg.Model = engineCfg.Model
		}
		if engineCfg.Temperature > 0 {
			providerCfg.Temperature = engineCfg.Temperature
		}
		if engineCfg.MaxTokens > 0 {
			providerCfg.MaxTokens = engineCfg.MaxTokens
		}
		return openai.New(providerCfg), nil

	case "google":
		providerCfg := google.DefaultConfig()
		providerCfg.APIKey = engineCfg.APIKey
		if engineCfg.BaseURL != "" {
			providerCfg.APIEndpoint = engineCfg.BaseURL
		}
		providerCfg.Timeout = engineCfg.Timeout()
		return google.New(providerCfg), nil

	case "raw":
		return raw.New(), nil

	default:
		return nil, fmt.Errorf("unknown engine type: %s", engineCfg.Type)
	}
}
