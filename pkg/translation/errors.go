package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// 预定义错误
var (
	// ErrNoEngine 没有配置可用的翻译引擎
	ErrNoEngine = errors.New("no translation engine configured")

	// ErrEmptyText 空文本错误
	ErrEmptyText = errors.New("empty text provided")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTimeout 超时错误
	ErrTimeout = errors.New("translation timeout")

	// ErrRateLimited 速率限制错误
	ErrRateLimited = errors.New("rate limited")
)

// TranslationError 翻译错误
type TranslationError struct {
	Code    string // 错误代码
	Message string // 错误消息
	Cause   error  // 原因
	Retry   bool   // 是否可重试
}

// Error 实现error接口
func (e *TranslationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回原因错误
func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// IsRetryable 是否可重试
func (e *TranslationError) IsRetryable() bool {
	return e.Retry
}

// 错误代码常量
const (
	ErrCodeConfig    = "CONFIG_ERROR"
	ErrCodeNetwork   = "NETWORK_ERROR"
	ErrCodeTimeout   = "TIMEOUT_ERROR"
	ErrCodeRateLimit = "RATE_LIMIT_ERROR"
	ErrCodeProvider  = "PROVIDER_ERROR"
	ErrCodeResponse  = "RESPONSE_ERROR"
	ErrCodeUnknown   = "UNKNOWN_ERROR"
)

// WrapError 包装错误
func WrapError(err error, code, message string) *TranslationError {
	if err == nil {
		return nil
	}

	// 如果已经是TranslationError，保留原有信息
	var te *TranslationError
	if errors.As(err, &te) {
		te.Message = message + ": " + te.Message
		return te
	}

	return &TranslationError{
		Code:    code,
		Message: message,
		Cause:   err,
		Retry:   isRetryableError(err),
	}
}

// isRetryableError 判断错误是否可重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"temporary failure",
		"rate limit",
		"429",
		"503",
		"504",
		"broken pipe",
		"no such host",
		"i/o timeout",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
