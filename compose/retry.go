package compose

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v5"
)

type retryOptions struct {
	maxAttempts int
	newBackOff  func() backoff.BackOff
	retryIf     func(error) bool
}

// RetryOpt 调整重试单元的行为。
type RetryOpt func(*retryOptions)

// WithMaxAttempts 设置总尝试次数上限（含首次执行），默认 3。
func WithMaxAttempts(n int) RetryOpt {
	return func(o *retryOptions) {
		o.maxAttempts = n
	}
}

// WithRetryBackOff 设置退避策略工厂。
// 退避器有内部状态，每次执行都通过工厂取新实例，默认为指数退避。
func WithRetryBackOff(f func() backoff.BackOff) RetryOpt {
	return func(o *retryOptions) {
		o.newBackOff = f
	}
}

// WithRetryIf 设置重试判定：返回 true 表示该失败可重试。
// 默认除配置、输入校验、取消、递归超限之外的失败均可重试。
func WithRetryIf(f func(error) bool) RetryOpt {
	return func(o *retryOptions) {
		o.retryIf = f
	}
}

func defaultRetryIf(err error) bool {
	kind, ok := ErrorKindOf(err)
	if !ok {
		return true
	}

	switch kind {
	case ErrorKindConfiguration, ErrorKindInputValidation, ErrorKindCancelled, ErrorKindRecursionLimit:
		return false
	default:
		return true
	}
}

// Retry 创建重试单元：子单元失败且判定可重试时，按退避间隔再次执行，
// 直到成功或尝试次数耗尽，耗尽后以最后一次失败向上传播。
//
// 每次尝试都是一次独立的子运行，有自己的运行标识与事件。
// 退避等待期间上下文被取消立即以取消失败结束。
// 流式执行下重试只覆盖取流调用本身，流读取中途的失败不触发重试。
//
//	r, err := compose.Retry(modelUnit,
//		compose.WithMaxAttempts(5),
//		compose.WithRetryIf(func(err error) bool {
//			kind, _ := compose.ErrorKindOf(err)
//			return kind == compose.ErrorKindExecution
//		}))
func Retry(u *Unit, opts ...RetryOpt) (*Unit, error) {
	if u == nil || u.cr == nil {
		return nil, NewError(ErrorKindConfiguration, errors.New("retry needs a unit"))
	}

	o := &retryOptions{
		maxAttempts: 3,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		retryIf: defaultRetryIf,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.maxAttempts < 1 {
		return nil, NewError(ErrorKindConfiguration, errors.New("retry needs at least one attempt"))
	}
	if o.newBackOff == nil || o.retryIf == nil {
		return nil, NewError(ErrorKindConfiguration, errors.New("retry backoff factory and retry predicate must not be nil"))
	}

	child := u.cr

	i := func(ctx context.Context, input any, opts ...Option) (any, error) {
		return retryCall(ctx, o, func() (any, error) {
			return child.i(ctx, input, opts...)
		})
	}

	s := func(ctx context.Context, input any, opts ...Option) (streamReader, error) {
		return retryCall(ctx, o, func() (streamReader, error) {
			return child.s(ctx, input, opts...)
		})
	}

	cr := newComposableRunnable(i, s, nil,
		child.inputType, child.outputType,
		&executorMeta{component: ComponentOfRetry, componentImplType: "Retry"})

	return &Unit{cr: cr}, nil
}

// retryCall 驱动一次带重试的调用。
// 不可重试的失败包装为永久错误，使重试循环立即停止并原样上抛。
func retryCall[T any](ctx context.Context, o *retryOptions, call func() (T, error)) (T, error) {
	op := func() (T, error) {
		out, err := call()
		if err != nil && !o.retryIf(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(o.newBackOff()),
		backoff.WithMaxTries(uint(o.maxAttempts)))
}
