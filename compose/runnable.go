package compose

import (
	"context"
	"fmt"
	"reflect"

	"github.com/favbox/flow/internal/generic"
	"github.com/favbox/flow/schema"
)

// Runnable 可执行对象接口，单元的四种调用形式。
//
//   - Invoke：同步调用，单输入单输出
//   - InvokeAsync：异步调用，立即返回可等待的结果凭据
//   - Batch：批量调用，受限并发地处理一批输入，输出顺序与输入一致
//   - Stream：流式调用，单输入产出惰性数据块序列
//
// 任何 *Unit 都可通过 AsRunnable 绑定输入输出类型得到 Runnable。
type Runnable[I, O any] interface {
	Invoke(ctx context.Context, input I, opts ...Option) (output O, err error)
	InvokeAsync(ctx context.Context, input I, opts ...Option) *schema.Future[O]
	Batch(ctx context.Context, inputs []I, opts ...Option) (outputs []O, err error)
	Stream(ctx context.Context, input I, opts ...Option) (output *schema.StreamReader[O], err error)
}

// invoke 类型擦除后的同步执行函数。
type invoke func(ctx context.Context, input any, opts ...Option) (output any, err error)

// streamRun 类型擦除后的流式执行函数。
type streamRun func(ctx context.Context, input any, opts ...Option) (output streamReader, err error)

// batchRun 类型擦除后的批量执行函数。
type batchRun func(ctx context.Context, inputs []any, opts ...Option) (outputs []any, err error)

// composableRunnable 可组合执行单元的内部载体。
//
// i 与 s 总是就绪：构造时缺失的形式已按默认派生规则补齐。
// b 仅在单元原生实现批量语义时非空，否则由受限并发引擎按输入序派生。
// 三个函数都已裹上执行外壳（执行域派生、深度与取消检查、
// 回调与事件上报、panic 归类），每个操作恰好一层外壳。
type composableRunnable struct {
	i invoke
	s streamRun
	b batchRun

	inputType  reflect.Type
	outputType reflect.Type

	meta *executorMeta
}

// executorMeta 可执行单元的元数据。
type executorMeta struct {
	// component 组件分类，如 ComponentOfSequence、components.ComponentOfChatModel。
	component component

	// isComponentCallbackEnabled 组件实现是否自行上报回调。
	// 为 true 时外壳不再派发值回调，避免重复触发。
	isComponentCallbackEnabled bool

	// componentImplType 具体实现类型标识，如 "DefaultChatTemplate"。
	componentImplType string

	// name 用于显示的单元名称。
	name string
}

// displayName 事件与回调中展示的名称，按 name、实现类型、组件分类依次回退。
func (m *executorMeta) displayName() string {
	if m.name != "" {
		return m.name
	}
	if m.componentImplType != "" {
		return m.componentImplType
	}
	return string(m.component)
}

// runnablePacker 类型化的执行形式打包器。
// 只负责派生补齐，不加执行外壳。
type runnablePacker[I, O, TOption any] struct {
	i Invoke[I, O, TOption]
	s Stream[I, O, TOption]
	b Batch[I, O, TOption]
}

// Invoke 同步执行：ping => pong。
func (rp *runnablePacker[I, O, TOption]) Invoke(ctx context.Context,
	input I, opts ...TOption) (output O, err error) {
	return rp.i(ctx, input, opts...)
}

// Stream 流式执行：ping => stream output。
func (rp *runnablePacker[I, O, TOption]) Stream(ctx context.Context,
	input I, opts ...TOption) (output *schema.StreamReader[O], err error) {
	return rp.s(ctx, input, opts...)
}

// Batch 批量执行：pings => pongs。
func (rp *runnablePacker[I, O, TOption]) Batch(ctx context.Context,
	inputs []I, opts ...TOption) (outputs []O, err error) {
	return rp.b(ctx, inputs, opts...)
}

// InvokeAsync 异步执行：立即返回结果凭据，结果在后台计算。
func (rp *runnablePacker[I, O, TOption]) InvokeAsync(ctx context.Context,
	input I, opts ...TOption) *schema.Future[O] {
	promise, future := schema.NewPromise[O]()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				promise.Reject(toPanicErr(r))
			}
		}()

		out, err := rp.Invoke(ctx, input, opts...)
		if err != nil {
			promise.Reject(err)
			return
		}

		promise.Resolve(out)
	}()

	return future
}

// defaultImplConcatStreamReader 默认的流折叠实现。
func defaultImplConcatStreamReader[T any](
	sr *schema.StreamReader[T]) (T, error) {

	c, err := concatStreamReader(sr)
	if err != nil {
		var t T
		return t, fmt.Errorf("concat stream reader fail: %w", err)
	}

	return c, nil
}

// invokeByStream 通过流式接口派生同步执行：取流后折叠为单值。
func invokeByStream[I, O, TOption any](s Stream[I, O, TOption]) Invoke[I, O, TOption] {
	return func(ctx context.Context, input I, opts ...TOption) (output O, err error) {
		sr, err := s(ctx, input, opts...)
		if err != nil {
			return output, err
		}

		return defaultImplConcatStreamReader(sr)
	}
}

// invokeByBatch 通过批量接口派生同步执行：单元素批量。
func invokeByBatch[I, O, TOption any](b Batch[I, O, TOption]) Invoke[I, O, TOption] {
	return func(ctx context.Context, input I, opts ...TOption) (output O, err error) {
		outs, err := b(ctx, []I{input}, opts...)
		if err != nil {
			return output, err
		}

		if len(outs) != 1 {
			return output, fmt.Errorf("batch over single input returned %d outputs", len(outs))
		}

		return outs[0], nil
	}
}

// streamByInvoke 通过同步接口派生流式执行：一次调用产出单块流。
func streamByInvoke[I, O, TOption any](i Invoke[I, O, TOption]) Stream[I, O, TOption] {
	return func(ctx context.Context, input I, opts ...TOption) (output *schema.StreamReader[O], err error) {
		out, err := i(ctx, input, opts...)
		if err != nil {
			return nil, err
		}

		return schema.StreamReaderFromArray([]O{out}), nil
	}
}

// newRunnablePacker 创建打包器并补齐缺失的执行形式。
// 至少给出一种形式，i 与 s 在此处补齐，b 留待擦除后由并发引擎派生。
func newRunnablePacker[I, O, TOption any](i Invoke[I, O, TOption], s Stream[I, O, TOption],
	b Batch[I, O, TOption]) *runnablePacker[I, O, TOption] {

	r := &runnablePacker[I, O, TOption]{b: b}

	if i != nil {
		r.i = i
	} else if s != nil {
		r.i = invokeByStream(s)
	} else {
		r.i = invokeByBatch(b)
	}

	if s != nil {
		r.s = s
	} else {
		r.s = streamByInvoke(r.i)
	}

	return r
}

// toComposableRunnable 类型擦除：以 any 进出并在边界断言类型，
// 调用选项中按 TOption 类型提取本单元的选项，随后统一加执行外壳。
func (rp *runnablePacker[I, O, TOption]) toComposableRunnable(meta *executorMeta) *composableRunnable {
	inputType := generic.TypeOf[I]()
	outputType := generic.TypeOf[O]()

	c := &composableRunnable{
		inputType:  inputType,
		outputType: outputType,
		meta:       meta,
	}

	extractable := generic.TypeOf[TOption]() != typeOfAny

	i := func(ctx context.Context, input any, opts ...Option) (output any, err error) {
		in, ok := input.(I)
		if !ok {
			// any 承载的无类型 nil 会丢失原始类型信息，断言必然失败。
			// 目标类型是接口时显式构造一个该接口类型的 nil。
			if input == nil && inputType.Kind() == reflect.Interface {
				var i I
				in = i
			} else {
				panic(newUnexpectedInputTypeErr(inputType, reflect.TypeOf(input)))
			}
		}

		var tos []TOption
		if extractable {
			tos = extractOptions[TOption](opts)
		}

		return rp.Invoke(ctx, in, tos...)
	}

	s := func(ctx context.Context, input any, opts ...Option) (output streamReader, err error) {
		in, ok := input.(I)
		if !ok {
			if input == nil && inputType.Kind() == reflect.Interface {
				var i I
				in = i
			} else {
				panic(newUnexpectedInputTypeErr(inputType, reflect.TypeOf(input)))
			}
		}

		var tos []TOption
		if extractable {
			tos = extractOptions[TOption](opts)
		}

		out, err := rp.Stream(ctx, in, tos...)
		if err != nil {
			return nil, err
		}

		return packStreamReader(out), nil
	}

	var b batchRun
	if rp.b != nil {
		b = func(ctx context.Context, inputs []any, opts ...Option) (outputs []any, err error) {
			ins := make([]I, len(inputs))
			for idx, input := range inputs {
				in, ok := input.(I)
				if !ok {
					if input == nil && inputType.Kind() == reflect.Interface {
						var i I
						in = i
					} else {
						panic(newUnexpectedInputTypeErr(inputType, reflect.TypeOf(input)))
					}
				}
				ins[idx] = in
			}

			var tos []TOption
			if extractable {
				tos = extractOptions[TOption](opts)
			}

			outs, err := rp.Batch(ctx, ins, tos...)
			if err != nil {
				return nil, err
			}

			return toAnyList(outs), nil
		}
	}

	c.i = i
	c.s = s
	c.b = b

	return decorateRunnable(c)
}

// runnableLambda 把类型化的执行函数打包为可组合单元。
func runnableLambda[I, O, TOption any](i Invoke[I, O, TOption], s Stream[I, O, TOption],
	b Batch[I, O, TOption], meta *executorMeta) *composableRunnable {
	return newRunnablePacker(i, s, b).toComposableRunnable(meta)
}

// newComposableRunnable 以擦除形式直接构造执行单元，组合单元的构造入口。
// i 与 s 必须给出，b 缺省时由并发引擎派生。
func newComposableRunnable(i invoke, s streamRun, b batchRun,
	inputType, outputType reflect.Type, meta *executorMeta) *composableRunnable {
	c := &composableRunnable{
		i:          i,
		s:          s,
		b:          b,
		inputType:  inputType,
		outputType: outputType,
		meta:       meta,
	}

	return decorateRunnable(c)
}

// toGenericRunnable 把擦除单元还原为类型化的执行面。
// 根入口在各方法内初始化执行上下文，不再加执行外壳。
func toGenericRunnable[I, O any](cr *composableRunnable) *runnablePacker[I, O, Option] {
	i := func(ctx context.Context, input I, opts ...Option) (output O, err error) {
		ctx, cancel := initRunCtx(ctx, opts)
		if cancel != nil {
			defer cancel()
		}

		out, err := cr.i(ctx, input, opts...)
		if err != nil {
			return output, err
		}

		return assertOutput[O](out)
	}

	s := func(ctx context.Context, input I, opts ...Option) (output *schema.StreamReader[O], err error) {
		ctx, cancel := initRunCtx(ctx, opts)

		out, err := cr.s(ctx, input, opts...)
		if err != nil {
			if cancel != nil {
				cancel()
			}
			return nil, err
		}

		sr, ok := unpackStreamReader[O](out)
		if !ok {
			// 擦除层产出 any 元素流（如透传单元）而根声明具体类型时，
			// 退化为逐元素断言，类型不符作为流错误透出。
			sr = schema.StreamReaderWithConvert(out.toAnyStreamReader(), func(v any) (O, error) {
				o, ok := v.(O)
				if !ok {
					return o, newUnexpectedInputTypeErr(generic.TypeOf[O](), reflect.TypeOf(v))
				}
				return o, nil
			})
		}

		if cancel != nil {
			// 整体超时的取消延迟到流终止或被关闭时执行
			sr = streamWithCleanup(sr, cancel)
		}

		return sr, nil
	}

	b := func(ctx context.Context, inputs []I, opts ...Option) (outputs []O, err error) {
		ctx, cancel := initRunCtx(ctx, opts)
		if cancel != nil {
			defer cancel()
		}

		outs, err := cr.b(ctx, toAnyList(inputs), opts...)
		if err != nil {
			return nil, err
		}

		outputs = make([]O, len(outs))
		for idx := range outs {
			outputs[idx], err = assertOutput[O](outs[idx])
			if err != nil {
				return nil, err
			}
		}

		return outputs, nil
	}

	return &runnablePacker[I, O, Option]{i: i, s: s, b: b}
}

// assertOutput 在根边界把 any 输出断言回具体类型。
func assertOutput[O any](out any) (O, error) {
	to, ok := out.(O)
	if !ok {
		// 输出为 nil 且目标是接口类型时，显式构造该接口类型的 nil。
		if out == nil && generic.TypeOf[O]().Kind() == reflect.Interface {
			var o O
			return o, nil
		}

		var o O
		return o, newUnexpectedInputTypeErr(generic.TypeOf[O](), reflect.TypeOf(out))
	}

	return to, nil
}

// composablePassthrough 透传单元，输入原样传递到输出。
func composablePassthrough() *composableRunnable {
	i := func(ctx context.Context, input any, opts ...Option) (output any, err error) {
		return input, nil
	}

	s := func(ctx context.Context, input any, opts ...Option) (output streamReader, err error) {
		sr := schema.StreamReaderFromArray([]any{input})
		return packStreamReader(sr), nil
	}

	return newComposableRunnable(i, s, nil, typeOfAny, typeOfAny, &executorMeta{
		component:         ComponentOfPassthrough,
		componentImplType: "Passthrough",
	})
}
