package compose

import (
	"context"
	"errors"

	"github.com/favbox/flow/schema"
)

// ====== 三种执行形式的函数类型 ======

// Invoke 同步执行函数：单输入单输出。
// 最基础的执行形式，另外两种形式缺失时由它派生。
type Invoke[I, O, TOption any] func(ctx context.Context, input I, opts ...TOption) (output O, err error)

// Stream 流式执行函数：单输入，产出惰性数据块序列。
// 适用于边生成边消费的场景，典型用法是聊天模型的逐 token 输出。
type Stream[I, O, TOption any] func(ctx context.Context,
	input I, opts ...TOption) (output *schema.StreamReader[O], err error)

// Batch 批量执行函数：一批独立输入对应一批输出，顺序一一对应。
// 单元原生支持批量语义（如向量化推理）时实现此形式，
// 否则框架以受限并发逐元素调用 Invoke 派生。
type Batch[I, O, TOption any] func(ctx context.Context,
	inputs []I, opts ...TOption) (outputs []O, err error)

// ====== 无选项版本的函数类型 ======

// InvokeWOOpt 无选项版本的 Invoke。
type InvokeWOOpt[I, O any] func(ctx context.Context, input I) (output O, err error)

// StreamWOOpt 无选项版本的 Stream。
type StreamWOOpt[I, O any] func(ctx context.Context,
	input I) (output *schema.StreamReader[O], err error)

// BatchWOOpt 无选项版本的 Batch。
type BatchWOOpt[I, O any] func(ctx context.Context, inputs []I) (outputs []O, err error)

// unreachableOption 无选项函数适配时的占位选项类型。
// 空结构体且不导出，调用方无法构造，保证不会意外传入选项。
type unreachableOption struct{}

// ====== Lambda 配置选项 ======

type lambdaOpts struct {
	// enableComponentCallback 为 true 表示 Lambda 函数自行上报回调，
	// 执行外壳不再派发值回调，避免重复触发。
	enableComponentCallback bool

	// componentImplType 实现类型标识，便于日志与事件中识别。
	componentImplType string

	// name 单元名称，用于事件、回调与错误路径中的显示。
	name string
}

// LambdaOpt 创建 Lambda 单元时的选项函数。
type LambdaOpt func(o *lambdaOpts)

// WithLambdaCallbackEnable 声明 Lambda 函数自行处理回调。
func WithLambdaCallbackEnable(y bool) LambdaOpt {
	return func(o *lambdaOpts) {
		o.enableComponentCallback = y
	}
}

// WithLambdaType 设置 Lambda 单元的实现类型标识。
func WithLambdaType(t string) LambdaOpt {
	return func(o *lambdaOpts) {
		o.componentImplType = t
	}
}

// WithLambdaName 设置 Lambda 单元的显示名称。
// 名称出现在事件、回调运行信息与错误的单元路径中。
func WithLambdaName(n string) LambdaOpt {
	return func(o *lambdaOpts) {
		o.name = n
	}
}

// ====== Lambda 工厂函数 ======

// InvokableLambdaWithOption 以带自定义选项的同步函数创建单元。
// TOption 需是具体类型，调用时经 WithLambdaOption 传入的同类型选项会被提取。
func InvokableLambdaWithOption[I, O, TOption any](i Invoke[I, O, TOption], opts ...LambdaOpt) *Unit {
	return anyLambda(i, nil, nil, opts...)
}

// InvokableLambda 以同步函数创建单元。
//
//	unit := compose.InvokableLambda(func(ctx context.Context, input string) (string, error) {
//		return strings.ToUpper(input), nil
//	})
func InvokableLambda[I, O any](i InvokeWOOpt[I, O], opts ...LambdaOpt) *Unit {
	f := func(ctx context.Context, input I, opts_ ...unreachableOption) (output O, err error) {
		return i(ctx, input)
	}

	return anyLambda(f, nil, nil, opts...)
}

// StreamableLambdaWithOption 以带自定义选项的流式函数创建单元。
func StreamableLambdaWithOption[I, O, TOption any](s Stream[I, O, TOption], opts ...LambdaOpt) *Unit {
	return anyLambda(nil, s, nil, opts...)
}

// StreamableLambda 以流式函数创建单元。
func StreamableLambda[I, O any](s StreamWOOpt[I, O], opts ...LambdaOpt) *Unit {
	f := func(ctx context.Context, input I, opts_ ...unreachableOption) (
		output *schema.StreamReader[O], err error) {

		return s(ctx, input)
	}

	return anyLambda(nil, f, nil, opts...)
}

// BatchableLambdaWithOption 以带自定义选项的批量函数创建单元。
func BatchableLambdaWithOption[I, O, TOption any](b Batch[I, O, TOption], opts ...LambdaOpt) *Unit {
	return anyLambda(nil, nil, b, opts...)
}

// BatchableLambda 以原生批量函数创建单元。
// 批量调用直接交给给定函数，不再经过框架的逐元素派生。
func BatchableLambda[I, O any](b BatchWOOpt[I, O], opts ...LambdaOpt) *Unit {
	f := func(ctx context.Context, inputs []I, opts_ ...unreachableOption) (outputs []O, err error) {
		return b(ctx, inputs)
	}

	return anyLambda(nil, nil, f, opts...)
}

// AnyLambda 以任意执行形式组合创建单元。
//
// 三种形式至少实现一种，其余由框架派生：
// 同步缺失时由流式折叠或单元素批量派生，
// 流式缺失时由同步的单块流派生，批量缺失时由受限并发的逐元素调用派生。
//
//	invokeFn := func(ctx context.Context, input string, opts ...myOption) (string, error) { ... }
//	streamFn := func(ctx context.Context, input string, opts ...myOption) (*schema.StreamReader[string], error) { ... }
//
//	unit, err := compose.AnyLambda(invokeFn, streamFn, nil)
func AnyLambda[I, O, TOption any](i Invoke[I, O, TOption], s Stream[I, O, TOption],
	b Batch[I, O, TOption], opts ...LambdaOpt) (*Unit, error) {

	if i == nil && s == nil && b == nil {
		return nil, NewError(ErrorKindConfiguration,
			errors.New("needs to have at least one of three lambda types: invoke/stream/batch, got none"))
	}

	return anyLambda(i, s, b, opts...), nil
}

func anyLambda[I, O, TOption any](i Invoke[I, O, TOption], s Stream[I, O, TOption],
	b Batch[I, O, TOption], opts ...LambdaOpt) *Unit {

	opt := getLambdaOpt(opts...)

	meta := &executorMeta{
		component:                  ComponentOfLambda,
		isComponentCallbackEnabled: opt.enableComponentCallback,
		componentImplType:          opt.componentImplType,
		name:                       opt.name,
	}

	return &Unit{cr: runnableLambda(i, s, b, meta)}
}

func getLambdaOpt(opts ...LambdaOpt) *lambdaOpts {
	opt := &lambdaOpts{}

	for _, optFn := range opts {
		optFn(opt)
	}

	return opt
}

// ====== 常用的预制 Lambda ======

// ToList 创建把单个输入包装为单元素列表的单元。
// 常用于上游产出单值而下游要求列表的类型衔接，
// 比如聊天模型输出单条消息、下游模板要求消息列表。
func ToList[I any](opts ...LambdaOpt) *Unit {
	i := func(ctx context.Context, input I, opts_ ...unreachableOption) (output []I, err error) {
		return []I{input}, nil
	}

	opts = append([]LambdaOpt{WithLambdaType("ToList")}, opts...)

	return anyLambda(i, nil, nil, opts...)
}

