/*
 * parallel.go - 并发扇出组合，对同一输入并发执行具名子单元并汇聚结果
 *
 * 核心语义：
 *   - 许可控制: 子单元按名称字典序申请许可，许可数取执行域的并发上限
 *   - 完成序失败: 第一个按完成顺序到达的失败作为整体失败，并取消在途兄弟
 *   - 结果丢弃: 取消后仍完成的子单元结果不进入输出，但其事件照常记录
 *   - 流式汇聚: 各子流的数据块按到达顺序交错，以子单元名作为单键 map 标记来源
 */

package compose

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"golang.org/x/sync/semaphore"

	"github.com/favbox/flow/internal/generic"
	"github.com/favbox/flow/schema"
)

// Parallel 创建并发扇出单元：以名称区分的各子单元接收同一输入并发执行，
// 输出为 map[string]any，键为子单元名。
//
// 任一子单元失败（按完成顺序的第一个）即整体失败，在途兄弟被取消；
// 取消前已完成的结果被丢弃。空映射合法，立即返回空结果。
// 子单元为 nil 在构造期以 ErrorKindConfiguration 拒绝。
//
//	p, err := compose.Parallel(map[string]*compose.Unit{
//		"context": retrieveUnit,
//		"input":   compose.Passthrough(),
//	})
func Parallel(units map[string]*Unit) (*Unit, error) {
	names := make([]string, 0, len(units))
	for name, u := range units {
		if u == nil || u.cr == nil {
			return nil, NewError(ErrorKindConfiguration, fmt.Errorf("parallel unit %q is nil", name))
		}
		names = append(names, name)
	}
	// 名称排序，许可申请顺序确定
	sort.Strings(names)

	crs := make([]*composableRunnable, len(names))
	inTypes := make([]reflect.Type, len(names))
	for idx, name := range names {
		crs[idx] = units[name].cr
		inTypes[idx] = units[name].cr.inputType
	}

	i := func(ctx context.Context, input any, opts ...Option) (any, error) {
		if len(names) == 0 {
			return map[string]any{}, nil
		}

		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		type result struct {
			name string
			out  any
			err  error
		}

		// 缓冲容量覆盖全部子单元，发送永不阻塞
		resCh := make(chan result, len(names))
		sem := semaphore.NewWeighted(int64(concurrencyLimit(ctx)))

		go func() {
			for idx, name := range names {
				if err := sem.Acquire(cctx, 1); err != nil {
					// 许可申请被取消，该子单元未启动
					resCh <- result{name: name, err: err}
					continue
				}

				go func(name string, cr *composableRunnable) {
					defer sem.Release(1)

					out, err := cr.i(cctx, input, opts...)
					resCh <- result{name: name, out: out, err: err}
				}(name, crs[idx])
			}
		}()

		outs := make(map[string]any, len(names))
		var firstErr error
		for range names {
			r := <-resCh
			if r.err != nil {
				if firstErr == nil {
					firstErr = r.err
					cancel()
				}
				continue
			}
			outs[r.name] = r.out
		}

		if firstErr != nil {
			return nil, firstErr
		}

		return outs, nil
	}

	s := func(ctx context.Context, input any, opts ...Option) (streamReader, error) {
		if len(names) == 0 {
			return packStreamReader(schema.StreamReaderFromArray([]map[string]any{{}})), nil
		}

		cctx, cancel := context.WithCancel(ctx)

		type result struct {
			idx int
			sr  streamReader
			err error
		}

		resCh := make(chan result, len(names))
		sem := semaphore.NewWeighted(int64(concurrencyLimit(ctx)))

		go func() {
			for idx := range names {
				if err := sem.Acquire(cctx, 1); err != nil {
					resCh <- result{idx: idx, err: err}
					continue
				}

				// 许可只覆盖取流调用本身。
				// 派生流在调用内完成全部计算，天然受限；
				// 原生流返回后的生产由各自内部推进。
				go func(idx int, cr *composableRunnable) {
					defer sem.Release(1)

					sr, err := cr.s(cctx, input, opts...)
					resCh <- result{idx: idx, sr: sr, err: err}
				}(idx, crs[idx])
			}
		}()

		srs := make([]streamReader, len(names))
		var firstErr error
		for range names {
			r := <-resCh
			if r.err != nil {
				if firstErr == nil {
					firstErr = r.err
					cancel()
				}
				continue
			}
			srs[r.idx] = r.sr
		}

		if firstErr != nil {
			for _, sr := range srs {
				if sr != nil {
					sr.close()
				}
			}
			return nil, firstErr
		}

		tagged := make([]streamReader, len(names))
		for idx, name := range names {
			tagged[idx] = srs[idx].withKey(name)
		}

		merged := tagged[0]
		if len(tagged) > 1 {
			merged = tagged[0].merge(tagged[1:])
		}

		// 合并流终止（含出错与下游提前关闭）时取消子单元
		merged = merged.observe(func(any) {}, func(err error) error {
			cancel()
			return err
		})

		return merged, nil
	}

	cr := newComposableRunnable(i, s, nil,
		commonType(inTypes), generic.TypeOf[map[string]any](),
		&executorMeta{component: ComponentOfParallel, componentImplType: "Parallel"})

	return &Unit{cr: cr}, nil
}

// concurrencyLimit 取执行域的并发上限。
func concurrencyLimit(ctx context.Context) int {
	if scope := scopeFromCtx(ctx); scope != nil && scope.maxConcurrency > 0 {
		return scope.maxConcurrency
	}
	return DefaultMaxConcurrency
}
