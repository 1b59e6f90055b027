package document

import (
	"github.com/favbox/flow/callbacks"
	"github.com/favbox/flow/schema"
)

// LoaderCallbackInput 定义了文档加载器回调的输入参数。
// 在加载器的 OnStart 回调中使用。
type LoaderCallbackInput struct {
	// Source 是文档的来源定义。
	Source Source

	// Extra 是额外的加载元数据，
	// 如编码格式、认证信息、业务标识等。
	Extra map[string]any
}

// LoaderCallbackOutput 定义了文档加载器回调的输出结果。
// 在加载器的 OnEnd 回调中使用。
type LoaderCallbackOutput struct {
	// Source 是文档的来源，与输入保持一致，便于审计与追踪。
	Source Source

	// Docs 是加载的文档列表。
	Docs []*schema.Document

	// Extra 是额外的输出信息，如加载耗时、文档数量等统计指标。
	Extra map[string]any
}

// ConvLoaderCallbackInput 将通用回调输入转换为加载器特定的回调输入。
// 组件内上报的 *LoaderCallbackInput 直接返回，
// 编排层注入的 Source 包装为 LoaderCallbackInput，其他类型返回 nil。
func ConvLoaderCallbackInput(src callbacks.CallbackInput) *LoaderCallbackInput {
	switch t := src.(type) {
	case *LoaderCallbackInput:
		return t
	case Source:
		return &LoaderCallbackInput{
			Source: t,
		}
	default:
		return nil
	}
}

// ConvLoaderCallbackOutput 将通用回调输出转换为加载器特定的回调输出。
// 组件内上报的 *LoaderCallbackOutput 直接返回，
// 编排层注入的文档列表包装为 LoaderCallbackOutput，其他类型返回 nil。
func ConvLoaderCallbackOutput(src callbacks.CallbackOutput) *LoaderCallbackOutput {
	switch t := src.(type) {
	case *LoaderCallbackOutput:
		return t
	case []*schema.Document:
		return &LoaderCallbackOutput{
			Docs: t,
		}
	default:
		return nil
	}
}
