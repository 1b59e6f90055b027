package callbacks

import (
	"context"

	"github.com/favbox/flow/components"
	"github.com/favbox/flow/schema"
)

// RunInfo 单元执行的运行信息，在回调处理器中传递执行上下文。
type RunInfo struct {
	// Name 用于显示的单元名称，并非唯一标识。
	Name string
	// Type 组件的具体实现类型标识。
	Type string
	// Component 组件的分类类型，如 ChatModel、Retriever、Tool 等。
	Component components.Component

	// RunID 本次执行的唯一标识。
	RunID string
	// ParentRunID 父执行的标识，顶层执行为空字符串。
	ParentRunID string

	// Tags 随执行上下文继承的标签。
	Tags []string
	// Metadata 随执行上下文继承的元数据。
	Metadata map[string]any
}

// CallbackInput 组件输入在回调处理器中的统一类型抽象。
type CallbackInput any

// CallbackOutput 组件输出在回调处理器中的统一类型抽象。
type CallbackOutput any

// Handler 回调处理器接口，覆盖单元执行生命周期的四个时机。
type Handler interface {
	// OnStart 单元开始执行时触发，早于业务逻辑执行。
	OnStart(ctx context.Context, info *RunInfo, input CallbackInput) context.Context

	// OnEnd 单元以值形式成功结束时触发。
	OnEnd(ctx context.Context, info *RunInfo, output CallbackOutput) context.Context

	// OnError 单元执行失败时触发。
	OnError(ctx context.Context, info *RunInfo, err error) context.Context

	// OnEndWithStreamOutput 单元以流形式产出时触发。
	// 处理器获得输出流的独立副本，须自行消费并关闭。
	OnEndWithStreamOutput(ctx context.Context, info *RunInfo,
		output *schema.StreamReader[CallbackOutput]) context.Context
}

// CallbackTiming 回调时机标识。
type CallbackTiming uint8

// TimingChecker 回调时机检查器，动态判断处理器是否关心某个时机。
// 处理器未实现该接口时视为关心所有时机。
type TimingChecker interface {
	Needed(ctx context.Context, info *RunInfo, timing CallbackTiming) bool
}
