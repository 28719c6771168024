package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"time"
)

// Config 重试配置
type Config struct {
	// 最大重试次数
	MaxRetries int `json:"max_retries"`

	// 初始延迟时间
	InitialDelay time.Duration `json:"initial_delay"`

	// 最大延迟时间
	MaxDelay time.Duration `json:"max_delay"`

	// 退避因子（指数退避）
	BackoffFactor float64 `json:"backoff_factor"`
}

// DefaultConfig 返回默认重试配置
func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Retrier 网络重试器
type Retrier struct {
	config Config
}

// New 创建网络重试器
func New(config Config) *Retrier {
	return &Retrier{config: config}
}

// RetryableFunc 可重试的函数类型
type RetryableFunc func() (*http.Response, error)

// Do 执行带重试的HTTP请求，只对瞬时网络错误和可重试状态码重试
func (r *Retrier) Do(ctx context.Context, fn RetryableFunc) (*http.Response, error) {
	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := fn()
		if err == nil && resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			if lastResp != nil {
				_ = lastResp.Body.Close()
			}
			lastResp = resp
		}

		if !r.shouldRetry(err, resp) || attempt == r.config.MaxRetries {
			break
		}

		delay := r.backoff(attempt)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, lastErr
}

// shouldRetry 判断是否应该重试
func (r *Retrier) shouldRetry(err error, resp *http.Response) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		// 其他传输层错误按瞬时错误处理
		return true
	}

	if resp == nil {
		return false
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoff 计算第 attempt 次重试前的延迟
func (r *Retrier) backoff(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt))
	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	return time.Duration(delay)
}
