package compose

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

type fallbackOptions struct {
	fallbackIf func(error) bool
}

// FallbackOpt 调整兜底单元的行为。
type FallbackOpt func(*fallbackOptions)

// WithFallbackIf 设置降级判定：返回 true 表示该失败可尝试下一个备选。
// 默认除取消、递归超限之外的失败均可降级。
func WithFallbackIf(f func(error) bool) FallbackOpt {
	return func(o *fallbackOptions) {
		o.fallbackIf = f
	}
}

func defaultFallbackIf(err error) bool {
	kind, ok := ErrorKindOf(err)
	if !ok {
		return true
	}

	switch kind {
	case ErrorKindCancelled, ErrorKindRecursionLimit:
		return false
	default:
		return true
	}
}

// Fallback 创建兜底单元：按声明顺序逐个尝试备选，首个成功者的输出
// 即整体输出；全部失败时以最后一次失败向上传播。
//
// 失败经降级判定不可降级（默认含取消）时链条立即停止，
// 该失败直接上抛。每个被尝试的备选都是独立的子运行。
// 流式执行下降级只覆盖取流调用本身，流读取中途的失败不再切换备选。
//
//	f, err := compose.Fallback([]*compose.Unit{primaryModel, backupModel})
func Fallback(units []*Unit, opts ...FallbackOpt) (*Unit, error) {
	if len(units) == 0 {
		return nil, NewError(ErrorKindConfiguration, errors.New("fallback needs at least one unit"))
	}

	crs := make([]*composableRunnable, len(units))
	inTypes := make([]reflect.Type, len(units))
	outTypes := make([]reflect.Type, len(units))
	for idx, u := range units {
		if u == nil || u.cr == nil {
			return nil, NewError(ErrorKindConfiguration, fmt.Errorf("fallback unit at index %d is nil", idx))
		}
		crs[idx] = u.cr
		inTypes[idx] = u.cr.inputType
		outTypes[idx] = u.cr.outputType
	}

	o := &fallbackOptions{fallbackIf: defaultFallbackIf}
	for _, opt := range opts {
		opt(o)
	}
	if o.fallbackIf == nil {
		return nil, NewError(ErrorKindConfiguration, errors.New("fallback predicate must not be nil"))
	}

	i := func(ctx context.Context, input any, opts ...Option) (any, error) {
		var lastErr error
		for _, cr := range crs {
			out, err := cr.i(ctx, input, opts...)
			if err == nil {
				return out, nil
			}

			lastErr = err
			if !o.fallbackIf(err) {
				break
			}
		}

		return nil, lastErr
	}

	s := func(ctx context.Context, input any, opts ...Option) (streamReader, error) {
		var lastErr error
		for _, cr := range crs {
			sr, err := cr.s(ctx, input, opts...)
			if err == nil {
				return sr, nil
			}

			lastErr = err
			if !o.fallbackIf(err) {
				break
			}
		}

		return nil, lastErr
	}

	cr := newComposableRunnable(i, s, nil,
		commonType(inTypes), commonType(outTypes),
		&executorMeta{component: ComponentOfFallback, componentImplType: "Fallback"})

	return &Unit{cr: cr}, nil
}
