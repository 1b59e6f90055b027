package model

import (
	"github.com/favbox/flow/callbacks"
	"github.com/favbox/flow/schema"
)

// TokenUsage 模型回调中上报的 token 使用情况。
type TokenUsage struct {
	// PromptTokens 提示部分消耗的 token 数量。
	PromptTokens int
	// CompletionTokens 补全部分消耗的 token 数量。
	CompletionTokens int
	// TotalTokens 总 token 数量。
	TotalTokens int
}

// Config 模型回调中上报的生效配置。
type Config struct {
	// Model 模型名称。
	Model string
	// MaxTokens 最大生成 token 数。
	MaxTokens int
	// Temperature 温度参数。
	Temperature float32
	// TopP 核心采样参数。
	TopP float32
	// Stop 停止词列表。
	Stop []string
}

// CallbackInput 模型回调的输入参数，在 OnStart 回调中使用。
type CallbackInput struct {
	// Messages 输入消息列表。
	Messages []*schema.Message
	// Tools 本次调用可用的工具列表。
	Tools []*schema.ToolInfo
	// Config 本次调用生效的模型配置。
	Config *Config
	// Extra 额外信息。
	Extra map[string]any
}

// CallbackOutput 模型回调的输出结果，在 OnEnd 回调中使用。
type CallbackOutput struct {
	// Message 模型生成的消息。
	Message *schema.Message
	// Config 本次调用生效的模型配置。
	Config *Config
	// TokenUsage 本次调用的 token 使用情况。
	TokenUsage *TokenUsage
	// Extra 额外信息。
	Extra map[string]any
}

// ConvCallbackInput 将通用回调输入转换为模型特定的回调输入。
// 组件内上报的 *CallbackInput 直接返回，
// 编排层注入的消息列表包装为 CallbackInput，其他类型返回 nil。
func ConvCallbackInput(src callbacks.CallbackInput) *CallbackInput {
	switch t := src.(type) {
	case *CallbackInput:
		return t
	case []*schema.Message:
		return &CallbackInput{
			Messages: t,
		}
	default:
		return nil
	}
}

// ConvCallbackOutput 将通用回调输出转换为模型特定的回调输出。
// 组件内上报的 *CallbackOutput 直接返回，
// 编排层注入的单条消息包装为 CallbackOutput，其他类型返回 nil。
func ConvCallbackOutput(src callbacks.CallbackOutput) *CallbackOutput {
	switch t := src.(type) {
	case *CallbackOutput:
		return t
	case *schema.Message:
		return &CallbackOutput{
			Message: t,
		}
	default:
		return nil
	}
}
