package prompt

import (
	"github.com/favbox/flow/callbacks"
	"github.com/favbox/flow/schema"
)

type CallbackInput struct {
	Variables map[string]any
	Templates []schema.MessagesTemplate
	Extra     map[string]any
}

type CallbackOutput struct {
	Result    []*schema.Message
	Templates []schema.MessagesTemplate
	Extra     map[string]any
}

// ConvCallbackInput 将通用回调输入转换为模板特定的回调输入。
// 组件内触发时已是 *CallbackInput，编排层注入时是模板变量。
func ConvCallbackInput(src callbacks.CallbackInput) *CallbackInput {
	switch t := src.(type) {
	case *CallbackInput:
		return t
	case map[string]any:
		return &CallbackInput{Variables: t}
	default:
		return nil
	}
}

// ConvCallbackOutput 将通用回调输出转换为模板特定的回调输出。
// 组件内触发时已是 *CallbackOutput，编排层注入时是格式化出的消息列表。
func ConvCallbackOutput(src callbacks.CallbackOutput) *CallbackOutput {
	switch t := src.(type) {
	case *CallbackOutput:
		return t
	case []*schema.Message:
		return &CallbackOutput{Result: t}
	default:
		return nil
	}
}
