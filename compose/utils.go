package compose

import (
	"context"
	"io"
	"reflect"
	"runtime/debug"

	"github.com/favbox/flow/callbacks"
	icb "github.com/favbox/flow/internal/callbacks"
	"github.com/favbox/flow/internal/generic"
	"github.com/favbox/flow/internal/safe"
	"github.com/favbox/flow/schema"
)

var typeOfAny = generic.TypeOf[any]()

// ====== 执行外壳 ======

// decorateRunnable 为单元的三种执行形式统一裹上执行外壳。
//
// 外壳承担编排层的横切关注点：
//  1. 派生本次执行的子域（运行标识、深度、继承的标签与元数据）
//  2. 执行前检查取消信号与嵌套深度
//  3. 上报回调与事件（开始、数据块、结束、错误）
//  4. 捕获 panic 并归类，错误统一分类并累积单元路径
//
// 必须先包装 i：批量派生引擎按元素调用包装后的 i，
// 使每个批量元素成为独立的子执行。
func decorateRunnable(cr *composableRunnable) *composableRunnable {
	cr.i = decorateInvoke(cr)
	cr.s = decorateStream(cr)
	cr.b = decorateBatch(cr)

	return cr
}

func decorateInvoke(cr *composableRunnable) invoke {
	run := cr.i
	meta := cr.meta

	return func(ctx context.Context, input any, opts ...Option) (output any, err error) {
		ctx, scope := enterRun(ctx)
		ctx = callbacks.ReuseHandlers(ctx, scope.runInfo(meta.displayName(), meta.componentImplType, meta.component))

		publishStart(scope, meta, input)
		if !meta.isComponentCallbackEnabled {
			ctx = callbacks.OnStart(ctx, input)
		}

		if gErr := scope.guard(ctx); gErr != nil {
			return nil, finishWithError(ctx, scope, meta, gErr)
		}

		output, err = func() (out any, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = toPanicErr(r)
				}
			}()

			return run(ctx, input, opts...)
		}()
		if err != nil {
			return nil, finishWithError(ctx, scope, meta, err)
		}

		publishEnd(scope, meta, output)
		if !meta.isComponentCallbackEnabled {
			callbacks.OnEnd(ctx, output)
		}

		return output, nil
	}
}

func decorateStream(cr *composableRunnable) streamRun {
	run := cr.s
	meta := cr.meta

	return func(ctx context.Context, input any, opts ...Option) (output streamReader, err error) {
		ctx, scope := enterRun(ctx)
		ctx = callbacks.ReuseHandlers(ctx, scope.runInfo(meta.displayName(), meta.componentImplType, meta.component))

		publishStart(scope, meta, input)
		if !meta.isComponentCallbackEnabled {
			ctx = callbacks.OnStart(ctx, input)
		}

		if gErr := scope.guard(ctx); gErr != nil {
			return nil, finishWithError(ctx, scope, meta, gErr)
		}

		output, err = func() (out streamReader, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = toPanicErr(r)
				}
			}()

			return run(ctx, input, opts...)
		}()
		if err != nil {
			return nil, finishWithError(ctx, scope, meta, err)
		}

		// 数据块与终止在泵中上报，本单元的终止先于下游单元可感知
		output = observeUnitStream(scope, meta, output)

		if !meta.isComponentCallbackEnabled {
			ctx, output = genericOnEndWithStreamOutput(ctx, output)
		}

		return output, nil
	}
}

func decorateBatch(cr *composableRunnable) batchRun {
	run := cr.b
	if run == nil {
		run = batchByInvoke(cr)
	}
	meta := cr.meta

	return func(ctx context.Context, inputs []any, opts ...Option) (outputs []any, err error) {
		ctx, scope := enterRun(ctx)
		ctx = callbacks.ReuseHandlers(ctx, scope.runInfo(meta.displayName(), meta.componentImplType, meta.component))

		publishStart(scope, meta, inputs)
		if !meta.isComponentCallbackEnabled {
			ctx = callbacks.OnStart(ctx, inputs)
		}

		if gErr := scope.guard(ctx); gErr != nil {
			return nil, finishWithError(ctx, scope, meta, gErr)
		}

		outputs, err = func() (outs []any, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = toPanicErr(r)
				}
			}()

			return run(ctx, inputs, opts...)
		}()
		if err != nil {
			return nil, finishWithError(ctx, scope, meta, err)
		}

		publishEnd(scope, meta, outputs)
		if !meta.isComponentCallbackEnabled {
			callbacks.OnEnd(ctx, outputs)
		}

		return outputs, nil
	}
}

// finishWithError 统一的失败收尾：分类并累积路径，上报错误事件与错误回调。
func finishWithError(ctx context.Context, scope *runScope, meta *executorMeta, err error) error {
	err = wrapUnitError(meta.displayName(), err)

	publishError(scope, meta, err)
	if !meta.isComponentCallbackEnabled {
		callbacks.OnError(ctx, err)
	}

	return err
}

// toPanicErr 把 recover 到的值归类为错误。
// 边界类型断言等自带错误种类的 panic 原样透出；错误值按执行错误包装；
// 非错误的 panic 载荷无从识别，归入未分类。
func toPanicErr(r any) error {
	if e, ok := r.(error); ok {
		if _, classified := ErrorKindOf(e); classified {
			return e
		}

		return NewError(ErrorKindExecution, safe.NewPanicErr(e, debug.Stack()))
	}

	return NewError(ErrorKindUnclassified, safe.NewPanicErr(r, debug.Stack()))
}

// ====== 事件上报 ======

func publishStart(scope *runScope, meta *executorMeta, input any) {
	if scope.bus == nil {
		return
	}

	ev := scope.newEvent(callbacks.EventKindStart, meta.displayName(), meta.component)
	ev.Input = input
	scope.bus.Publish(ev)
}

func publishEnd(scope *runScope, meta *executorMeta, output any) {
	if scope.bus == nil {
		return
	}

	ev := scope.newEvent(callbacks.EventKindEnd, meta.displayName(), meta.component)
	ev.Output = output
	scope.bus.Publish(ev)
}

func publishError(scope *runScope, meta *executorMeta, err error) {
	if scope.bus == nil {
		return
	}

	ev := scope.newEvent(callbacks.EventKindError, meta.displayName(), meta.component)
	ev.Err = err
	scope.bus.Publish(ev)
}

// observeUnitStream 在单元输出流上插入观察泵。
//
// 数据块事件随块的流动上报，终止（结束或错误）在下游感知之前上报，
// 因此内层单元的终止事件总是先于外层单元的终止事件进入总线。
// 流中途的错误也在这里完成分类与路径累积。
func observeUnitStream(scope *runScope, meta *executorMeta, out streamReader) streamReader {
	name := meta.displayName()

	onChunk := func(chunk any) {
		if scope.bus == nil {
			return
		}

		ev := scope.newEvent(callbacks.EventKindChunk, name, meta.component)
		ev.Chunk = chunk
		scope.bus.Publish(ev)
	}

	onDone := func(err error) error {
		if err != nil {
			err = wrapUnitError(name, err)
			publishError(scope, meta, err)
			return err
		}

		publishEnd(scope, meta, nil)
		return nil
	}

	return out.observe(onChunk, onDone)
}

// ====== 回调分发 ======

// genericOnEndWithStreamOutputHandle 擦除形式的流式输出回调分发。
// 为每个处理器在擦除层复制一份流，保持元素的具体类型不被抹平，
// 末位副本归还调用方继续向下游传递。
func genericOnEndWithStreamOutputHandle(ctx context.Context, output streamReader,
	runInfo *icb.RunInfo, handlers []icb.Handler) (context.Context, streamReader) {

	cpy := output.copy

	handle := func(ctx context.Context, handler icb.Handler, out streamReader) context.Context {
		out_, ok := unpackStreamReader[icb.CallbackOutput](out)
		if !ok {
			panic("不可能的情况")
		}

		return handler.OnEndWithStreamOutput(ctx, runInfo, out_)
	}

	return icb.OnWithStreamHandle(ctx, output, handlers, cpy, handle)
}

func genericOnEndWithStreamOutput(ctx context.Context, output streamReader) (context.Context, streamReader) {
	return icb.On(ctx, output, genericOnEndWithStreamOutputHandle, callbacks.TimingOnEndWithStreamOutput, false)
}

// ====== 流辅助 ======

// streamWithCleanup 在流终止或被下游关闭时执行一次清理动作。
func streamWithCleanup[T any](sr *schema.StreamReader[T], cleanup func()) *schema.StreamReader[T] {
	nsr, nsw := schema.Pipe[T](0)

	go func() {
		defer func() {
			sr.Close()
			nsw.Close()
			cleanup()
		}()

		for {
			chunk, err := sr.Recv()
			if err == io.EOF {
				return
			}

			if closed := nsw.Send(chunk, err); closed || err != nil {
				return
			}
		}
	}()

	return nsr
}

func toAnyList[T any](in []T) []any {
	ret := make([]any, len(in))
	for i := range in {
		ret[i] = in[i]
	}
	return ret
}

// ====== 类型检查 ======

// commonType 全体类型一致时返回该类型，否则回退到 any。
// 组合单元的子单元类型不齐时只能放宽静态约束，留待运行期断言。
func commonType(ts []reflect.Type) reflect.Type {
	if len(ts) == 0 {
		return typeOfAny
	}
	for _, t := range ts[1:] {
		if t != ts[0] {
			return typeOfAny
		}
	}
	return ts[0]
}

// assignableType 上下游类型衔接的三值判定。
type assignableType uint8

const (
	// assignableTypeMustNot 绝对不可衔接，构建期即可拒绝。
	assignableTypeMustNot assignableType = iota

	// assignableTypeMust 绝对可衔接。
	assignableTypeMust

	// assignableTypeMay 可能可衔接，实际值是否满足留待运行期断言。
	// 典型情况是上游输出接口类型（含 any）而下游要求具体类型。
	assignableTypeMay
)

// checkAssignable 检查上游输出类型能否作为下游输入。
func checkAssignable(input, arg reflect.Type) assignableType {
	if arg == nil || input == nil {
		return assignableTypeMustNot
	}

	if arg == input {
		return assignableTypeMust
	}

	if arg.Kind() == reflect.Interface && input.Implements(arg) {
		return assignableTypeMust
	}

	if input.Kind() == reflect.Interface {
		if arg.Implements(input) {
			return assignableTypeMay
		}
		return assignableTypeMustNot
	}

	return assignableTypeMustNot
}
