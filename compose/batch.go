package compose

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/favbox/flow/callbacks"
)

// batchRunItems 受限并发地对一批输入逐元素执行。
//
// 信号量许可按输入序逐个获取：并发受 limit 约束的同时，
// 元素的准入顺序严格等于提交顺序。结果按下标写回，
// 输出顺序与输入顺序一致，与完成先后无关。
//
// 上下文被取消后，尚未准入的元素直接以取消错误记账，不再执行。
func batchRunItems[I, O any](ctx context.Context, inputs []I, limit int,
	runItem func(ctx context.Context, input I) (O, error)) ([]O, []error) {

	if limit <= 0 {
		limit = DefaultMaxConcurrency
	}

	var (
		wg   sync.WaitGroup
		outs = make([]O, len(inputs))
		errs = make([]error, len(inputs))
		sem  = semaphore.NewWeighted(int64(limit))
	)

	for idx := range inputs {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[idx] = err
			continue
		}

		wg.Add(1)
		go func(idx int) {
			defer func() {
				sem.Release(1)
				wg.Done()
			}()

			outs[idx], errs[idx] = runItem(ctx, inputs[idx])
		}(idx)
	}

	wg.Wait()

	return outs, errs
}

// batchByInvoke 批量执行的默认派生：受限并发地逐元素调用同步形式。
//
// 并发上限取执行域的 maxConcurrency。等待全部元素完成后聚合：
// 任一元素失败则整体失败，报告下标最小的首个错误，
// 与哪个元素先完成无关。元素各自经过完整的执行外壳，
// 在事件流中表现为批量执行的子运行。
func batchByInvoke(cr *composableRunnable) batchRun {
	return func(ctx context.Context, inputs []any, opts ...Option) ([]any, error) {
		outs, errs := batchRunItems(ctx, inputs, concurrencyLimit(ctx), func(ctx context.Context, input any) (any, error) {
			return cr.i(ctx, input, opts...)
		})

		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}

		return outs, nil
	}
}

// ItemResult 批量执行中单个元素的结果，值与错误恰有其一。
type ItemResult[O any] struct {
	Output O
	Err    error
}

// BatchItems 以逐元素结果模式批量执行。
//
// 与 Runnable.Batch 的整体成败不同，任何元素的失败都不会使整体失败：
// 每个下标各自携带值或已分类的错误，调用方据此处理部分成功。
//
//	results := compose.BatchItems(ctx, r, []string{"a", "b", "c"})
//	for i, res := range results {
//		if res.Err != nil {
//			log.Printf("第 %d 项失败: %v", i, res.Err)
//			continue
//		}
//		use(res.Output)
//	}
//
// 本次调用整体记为一个运行，每个元素是它的子运行。
func BatchItems[I, O any](ctx context.Context, r Runnable[I, O], inputs []I, opts ...Option) []ItemResult[O] {
	ctx, cancel := initRunCtx(ctx, opts)
	if cancel != nil {
		defer cancel()
	}

	ctx, scope := enterRun(ctx)
	meta := &executorMeta{component: ComponentOfBatch, componentImplType: "BatchItems"}

	ctx = callbacks.ReuseHandlers(ctx, scope.runInfo(meta.displayName(), meta.componentImplType, meta.component))

	publishStart(scope, meta, toAnyList(inputs))
	ctx = callbacks.OnStart(ctx, inputs)

	results := make([]ItemResult[O], len(inputs))

	if gErr := scope.guard(ctx); gErr != nil {
		gErr = wrapUnitError(meta.displayName(), gErr)
		publishError(scope, meta, gErr)
		callbacks.OnError(ctx, gErr)

		for idx := range results {
			results[idx] = ItemResult[O]{Err: gErr}
		}

		return results
	}

	// 执行参数已折叠进执行域，逐元素只透传组件选项，避免标签与元数据重复累积
	itemOpts := make([]Option, 0, len(opts))
	for _, opt := range opts {
		if len(opt.options) > 0 {
			itemOpts = append(itemOpts, Option{options: opt.options})
		}
	}

	outs, errs := batchRunItems(ctx, inputs, scope.maxConcurrency, func(ctx context.Context, input I) (O, error) {
		return r.Invoke(ctx, input, itemOpts...)
	})

	for idx := range results {
		if errs[idx] != nil {
			results[idx] = ItemResult[O]{Err: wrapUnitError(meta.displayName(), errs[idx])}
			continue
		}

		results[idx] = ItemResult[O]{Output: outs[idx]}
	}

	// 逐元素模式没有整体失败，终止事件始终为结束
	publishEnd(scope, meta, results)
	callbacks.OnEnd(ctx, results)

	return results
}
