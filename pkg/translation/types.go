package translation

import "context"

// Request 翻译请求
type Request struct {
	// Text 要翻译的文本（可能是多个文本块合并后的结果）
	Text string `json:"text"`

	// SourceLanguage 源语言（页面语言）
	SourceLanguage string `json:"source_language,omitempty"`

	// TargetLanguage 目标语言
	TargetLanguage string `json:"target_language,omitempty"`

	// Metadata 元数据
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Response 翻译响应
type Response struct {
	// Text 翻译后的文本
	Text string `json:"text"`

	// SourceLanguage 源语言
	SourceLanguage string `json:"source_language"`

	// TargetLanguage 目标语言
	TargetLanguage string `json:"target_language"`

	// Model 实际使用的模型
	Model string `json:"model,omitempty"`

	// Usage 使用情况
	Usage Usage `json:"usage,omitempty"`

	// Metadata 元数据
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Usage 使用情况
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Translator 翻译协作方接口，调度器只依赖这一个方法
type Translator interface {
	Translate(ctx context.Context, req *Request) (*Response, error)
}
