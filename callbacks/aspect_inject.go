package callbacks

import (
	"context"

	"github.com/favbox/flow/components"
	"github.com/favbox/flow/internal/callbacks"
	"github.com/favbox/flow/schema"
)

// OnStart 触发单元开始执行的回调切面。
//
// 组件实现在业务逻辑执行前调用，例如：
//
//	ctx = callbacks.OnStart(ctx, input)
func OnStart[T any](ctx context.Context, input T) context.Context {
	ctx, _ = callbacks.On(ctx, input, callbacks.OnStartHandle[T], TimingOnStart, true)

	return ctx
}

// OnEnd 触发单元以值形式结束的回调切面。
func OnEnd[T any](ctx context.Context, output T) context.Context {
	ctx, _ = callbacks.On(ctx, output, callbacks.OnEndHandle[T], TimingOnEnd, false)

	return ctx
}

// OnEndWithStreamOutput 触发单元以流形式产出的回调切面。
//
// 输出流会为每个处理器复制一份，返回的读取器替代原读取器继续向下游传递。
func OnEndWithStreamOutput[T any](ctx context.Context, output *schema.StreamReader[T]) (
	context.Context, *schema.StreamReader[T]) {

	return callbacks.On(ctx, output, callbacks.OnEndWithStreamOutputHandle[T], TimingOnEndWithStreamOutput, false)
}

// OnError 触发单元执行出错的回调切面。
func OnError(ctx context.Context, err error) context.Context {
	ctx, _ = callbacks.On(ctx, err, callbacks.OnErrorHandle, TimingOnError, false)

	return ctx
}

// EnsureRunInfo 确保上下文携带运行信息，组件被直接调用时补充类型与分类。
func EnsureRunInfo(ctx context.Context, typ string, comp components.Component) context.Context {
	return callbacks.EnsureRunInfo(ctx, typ, comp)
}

// ReuseHandlers 保持既有处理器链不变，仅替换运行信息。
func ReuseHandlers(ctx context.Context, info *RunInfo) context.Context {
	return callbacks.ReuseHandlers(ctx, info)
}

// InitCallbacks 以给定运行信息与处理器链重建回调管理器。
func InitCallbacks(ctx context.Context, info *RunInfo, handlers ...Handler) context.Context {
	return callbacks.InitCallbacks(ctx, info, handlers...)
}

// AppendHandlers 在上下文既有处理器链尾部追加处理器。
func AppendHandlers(ctx context.Context, info *RunInfo, handlers ...Handler) context.Context {
	return callbacks.AppendHandlers(ctx, info, handlers...)
}
