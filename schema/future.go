package schema

import (
	"context"
	"sync"
)

// Future 表示一次异步执行尚未就绪的结果。
// 结果就绪前 Wait 阻塞，就绪后可重复读取。
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Promise 是 Future 的写入端，恰好被履行一次，后续履行调用被忽略。
type Promise[T any] struct {
	f    *Future[T]
	once sync.Once
}

// NewPromise 创建一对关联的写入端与读取端。
func NewPromise[T any]() (*Promise[T], *Future[T]) {
	f := &Future[T]{done: make(chan struct{})}
	return &Promise[T]{f: f}, f
}

// Resolve 以成功值履行 Promise。
func (p *Promise[T]) Resolve(val T) {
	p.once.Do(func() {
		p.f.val = val
		close(p.f.done)
	})
}

// Reject 以错误履行 Promise。
func (p *Promise[T]) Reject(err error) {
	p.once.Do(func() {
		p.f.err = err
		close(p.f.done)
	})
}

// Done 返回结果就绪时关闭的通道，适合放进 select。
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait 阻塞等待结果。
// ctx 先于结果结束时返回 ctx.Err()，此时异步执行本身并不会被中断。
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var t T
		return t, ctx.Err()
	}
}
