package config

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// EngineConfig 翻译引擎配置
type EngineConfig struct {
	Name           string  `mapstructure:"name"`
	Type           string  `mapstructure:"type"` // openai / google / raw
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	Temperature    float32 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	Enabled        bool    `mapstructure:"enabled"`
}

// Timeout 返回请求超时时间
func (e *EngineConfig) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// SchedulerConfig 批量翻译调度配置
type SchedulerConfig struct {
	// MaxBatchBlocks 一个批次最多包含多少个文本块
	MaxBatchBlocks int `mapstructure:"max_batch_blocks"`

	// MaxBatchChars 一个批次的字符预算
	MaxBatchChars int `mapstructure:"max_batch_chars"`

	// MinBlockChars 小于该长度的文本块不参与翻译
	MinBlockChars int `mapstructure:"min_block_chars"`

	// FlushDelayMs 缓冲去抖延迟，相邻发现的块在该窗口内合并进同一批次
	FlushDelayMs int `mapstructure:"flush_delay_ms"`

	// RequestIntervalMs 相邻两次请求之间的最小间隔，唯一的限流手段
	RequestIntervalMs int `mapstructure:"request_interval_ms"`
}

// FlushDelay 返回去抖延迟
func (s *SchedulerConfig) FlushDelay() time.Duration {
	return time.Duration(s.FlushDelayMs) * time.Millisecond
}

// RequestInterval 返回请求间隔
func (s *SchedulerConfig) RequestInterval() time.Duration {
	return time.Duration(s.RequestIntervalMs) * time.Millisecond
}

// MatchConfig 词汇匹配配置
type MatchConfig struct {
	// Morphology 是否启用词形变化匹配
	Morphology bool `mapstructure:"morphology"`

	// Fuzzy 精确匹配失败时是否回退到模糊匹配
	Fuzzy bool `mapstructure:"fuzzy"`

	// FuzzyThreshold 模糊匹配的最低相似度（1 - 编辑距离/最大长度）
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`
}

// TriggerConfig 弹窗触发配置
type TriggerConfig struct {
	Event       string `mapstructure:"event"`    // hover / click / dblclick / contextmenu
	Modifier    string `mapstructure:"modifier"` // 空 / alt / ctrl / shift / meta
	ShowDelayMs int    `mapstructure:"show_delay_ms"`
	HideDelayMs int    `mapstructure:"hide_delay_ms"`
	MultiBubble bool   `mapstructure:"multi_bubble"`
}

// BreakerConfig 提供商熔断配置
type BreakerConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	ConsecutiveFailures int  `mapstructure:"consecutive_failures"`
	OpenTimeoutSeconds  int  `mapstructure:"open_timeout_seconds"`
}

// Config 全局配置
type Config struct {
	// SourceLang 页面语言
	SourceLang string `mapstructure:"source_lang"`

	// TargetLang 翻译目标语言（学习语言）
	TargetLang string `mapstructure:"target_lang"`

	// SourceScript 源语言文字系统（han/japanese/hangul/latin/cyrillic），
	// 为空时根据 SourceLang 推断
	SourceScript string `mapstructure:"source_script"`

	// ActiveEngine 当前启用的翻译引擎名称
	ActiveEngine string `mapstructure:"active_engine"`

	// Engines 引擎列表
	Engines []EngineConfig `mapstructure:"engines"`

	// Bilingual 是否在原文块下插入译文块
	Bilingual bool `mapstructure:"bilingual"`

	// MainContent 是否只扫描正文区域
	MainContent bool `mapstructure:"main_content"`

	// VocabPath 词汇库路径
	VocabPath string `mapstructure:"vocab_path"`

	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Match     MatchConfig     `mapstructure:"match"`
	Trigger   TriggerConfig   `mapstructure:"trigger"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`

	Debug bool `mapstructure:"debug"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		SourceLang:   "zh-CN",
		TargetLang:   "en",
		ActiveEngine: "",
		Engines: []EngineConfig{
			{
				Name:    "openai",
				Type:    "openai",
				Model:   "gpt-4o-mini",
				Enabled: false,
			},
			{
				Name:    "raw",
				Type:    "raw",
				Enabled: true,
			},
		},
		VocabPath: "vocab.db",
		Scheduler: SchedulerConfig{
			MaxBatchBlocks:    8,
			MaxBatchChars:     4000,
			MinBlockChars:     2,
			FlushDelayMs:      500,
			RequestIntervalMs: 1500,
		},
		Match: MatchConfig{
			Morphology:     true,
			Fuzzy:          true,
			FuzzyThreshold: 0.75,
		},
		Trigger: TriggerConfig{
			Event:       "hover",
			ShowDelayMs: 200,
			HideDelayMs: 300,
		},
		Breaker: BreakerConfig{
			Enabled:             true,
			ConsecutiveFailures: 5,
			OpenTimeoutSeconds:  30,
		},
	}
}

// Engine 按名称查找引擎配置
func (c *Config) Engine(name string) *EngineConfig {
	for i := range c.Engines {
		if c.Engines[i].Name == name {
			return &c.Engines[i]
		}
	}
	return nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if _, err := language.Parse(c.SourceLang); err != nil {
		return fmt.Errorf("invalid source language %q: %w", c.SourceLang, err)
	}
	if _, err := language.Parse(c.TargetLang); err != nil {
		return fmt.Errorf("invalid target language %q: %w", c.TargetLang, err)
	}

	if c.Scheduler.MaxBatchBlocks <= 0 {
		return fmt.Errorf("scheduler.max_batch_blocks must be positive")
	}
	if c.Scheduler.MaxBatchChars <= 0 {
		return fmt.Errorf("scheduler.max_batch_chars must be positive")
	}
	if c.Match.FuzzyThreshold < 0 || c.Match.FuzzyThreshold > 1 {
		return fmt.Errorf("match.fuzzy_threshold must be in [0, 1]")
	}

	if c.ActiveEngine != "" {
		engine := c.Engine(c.ActiveEngine)
		if engine == nil {
			return fmt.Errorf("active engine %q not found", c.ActiveEngine)
		}
		if !engine.Enabled {
			return fmt.Errorf("active engine %q is disabled", c.ActiveEngine)
		}
	}

	return nil
}
