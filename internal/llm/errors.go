package llm

import "fmt"

// LLMError 大模型调用错误类型
type LLMError struct {
	Code    int    // 错误码
	Message string // 错误消息
}

// Error 实现error接口
func (e LLMError) Error() string {
	return fmt.Sprintf("llm error (code=%d): %s", e.Code, e.Message)
}

// 错误码常量
const (
	ErrCodeInvalidAPIKey  = 1001 // 无效的API密钥
	ErrCodeInvalidRequest = 1002 // 无效的请求
	ErrCodeNetworkError   = 1003 // 网络连接错误
	ErrCodeRateLimited    = 1004 // 请求频率超限
	ErrCodeServerError    = 1005 // 服务器错误
	ErrCodeTimeout        = 1006 // 请求超时
	ErrCodeEmptyPrompt    = 1007 // 提示词为空
	ErrCodeParseFailure   = 1008 // 模型输出无法解析
	ErrCodeUnavailable    = 1009 // 客户端未配置或不可用
)

// 错误消息常量
const (
	ErrMsgInvalidAPIKey = "invalid API key"
	ErrMsgEmptyPrompt   = "prompt cannot be empty"
	ErrMsgUnavailable   = "llm client not configured"
)

// NewLLMError 创建新的大模型错误
func NewLLMError(code int, message string) LLMError {
	return LLMError{
		Code:    code,
		Message: message,
	}
}

// IsParseFailure 判断是否为模型输出解析失败
// 调用方据此回退到统计策略
func IsParseFailure(err error) bool {
	llmErr, ok := err.(LLMError)
	return ok && llmErr.Code == ErrCodeParseFailure
}

// IsUnavailable 判断是否为客户端不可用
func IsUnavailable(err error) bool {
	llmErr, ok := err.(LLMError)
	return ok && llmErr.Code == ErrCodeUnavailable
}
