package compose

import (
	"time"

	"github.com/favbox/flow/callbacks"
	"github.com/favbox/flow/components/document"
	"github.com/favbox/flow/components/model"
	"github.com/favbox/flow/components/prompt"
	"github.com/favbox/flow/components/retriever"
	"github.com/favbox/flow/components/tool"
)

// Option 是单元调用的函数式选项类型。
//
// 选项在根单元调用时给出，随执行上下文作用于整棵组合树：
// 组件选项由匹配类型的组件在各自边界提取，
// 回调处理器与执行参数（并发上限、超时、标签等）在根部并入执行上下文。
type Option struct {
	options []any
	handler []callbacks.Handler

	maxConcurrency int
	recursionLimit int
	timeout        time.Duration
	tags           []string
	metadata       map[string]any
	bus            *callbacks.Bus
}

// WithChatModelOption 封装聊天模型组件的选项。
//
// 使用示例：
//
//	unit.Invoke(ctx, input, compose.WithChatModelOption(model.WithTemperature(0.7)))
func WithChatModelOption(opts ...model.Option) Option {
	return withComponentOption(opts...)
}

// WithChatTemplateOption 封装聊天模板组件的选项。
func WithChatTemplateOption(opts ...prompt.Option) Option {
	return withComponentOption(opts...)
}

// WithRetrieverOption 封装检索器组件的选项。
//
// 使用示例：
//
//	unit.Invoke(ctx, input, compose.WithRetrieverOption(retriever.WithTopK(3)))
func WithRetrieverOption(opts ...retriever.Option) Option {
	return withComponentOption(opts...)
}

// WithLoaderOption 封装文档加载器组件的选项。
func WithLoaderOption(opts ...document.LoaderOption) Option {
	return withComponentOption(opts...)
}

// WithToolOption 封装工具组件的选项。
func WithToolOption(opts ...tool.Option) Option {
	return withComponentOption(opts...)
}

// WithLambdaOption 封装 Lambda 单元的选项。
// 选项类型需与 Lambda 构造时声明的选项类型一致。
func WithLambdaOption(opts ...any) Option {
	return Option{
		options: opts,
	}
}

// WithCallbacks 为本次调用的所有单元追加回调处理器。
//
// 使用示例：
//
//	unit.Invoke(ctx, input, compose.WithCallbacks(&myCallbacks{}))
func WithCallbacks(cbs ...callbacks.Handler) Option {
	return Option{
		handler: cbs,
	}
}

// WithEventBus 指定本次调用的事件总线。
// 未指定时使用进程级默认总线，均未设置则不发布事件。
func WithEventBus(bus *callbacks.Bus) Option {
	return Option{
		bus: bus,
	}
}

// WithMaxConcurrency 设置本次调用的并发上限。
// 限制 Parallel 与 Batch 同时运行的子任务数，随执行上下文向下继承。
func WithMaxConcurrency(n int) Option {
	return Option{
		maxConcurrency: n,
	}
}

// WithRecursionLimit 设置本次调用允许的最大嵌套深度。
// 超出限制的执行以 ErrorKindRecursionLimit 失败，用于拦截自引用组合。
func WithRecursionLimit(n int) Option {
	return Option{
		recursionLimit: n,
	}
}

// WithTimeout 设置本次调用的整体超时。
// 到期后执行路径上的单元以 ErrorKindTimeout 失败。
func WithTimeout(d time.Duration) Option {
	return Option{
		timeout: d,
	}
}

// WithTags 为本次调用附加标签，随事件与回调运行信息透出。
func WithTags(tags ...string) Option {
	return Option{
		tags: tags,
	}
}

// WithMetadata 为本次调用附加元数据，随事件与回调运行信息透出。
func WithMetadata(metadata map[string]any) Option {
	return Option{
		metadata: metadata,
	}
}

// withComponentOption 将类型化的组件选项统一封装为调用选项。
func withComponentOption[TOption any](opts ...TOption) Option {
	o := make([]any, 0, len(opts))
	for i := range opts {
		o = append(o, opts[i])
	}
	return Option{
		options: o,
	}
}

// extractOptions 从调用选项中取出指定类型的组件选项。
// 其他类型的选项属于别的组件，跳过而不是报错。
func extractOptions[TOption any](opts []Option) []TOption {
	var ret []TOption
	for _, opt := range opts {
		for _, o := range opt.options {
			if to, ok := o.(TOption); ok {
				ret = append(ret, to)
			}
		}
	}
	return ret
}
