package compose

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/favbox/flow/callbacks"
	"github.com/favbox/flow/internal/gmap"
)

const (
	// DefaultMaxConcurrency 未显式设置时 Parallel 与 Batch 的并发上限。
	DefaultMaxConcurrency = 10

	// DefaultRecursionLimit 未显式设置时允许的最大嵌套深度。
	DefaultRecursionLimit = 25
)

// runScopeKey 执行域在上下文中的键。
type runScopeKey struct{}

// runScope 一次单元执行的执行域。
//
// 执行域在每个单元入口处派生而非修改：子单元获得新的执行标识、
// 深度加一，其余参数（并发上限、递归限制、标签、元数据、事件总线）
// 原样继承。创建之后只读，可安全地被并发的子任务共享。
type runScope struct {
	runID       string
	parentRunID string
	depth       int

	maxConcurrency int
	recursionLimit int
	tags           []string
	metadata       map[string]any
	bus            *callbacks.Bus
}

func scopeFromCtx(ctx context.Context) *runScope {
	s, ok := ctx.Value(runScopeKey{}).(*runScope)
	if !ok {
		return nil
	}
	return s
}

// fork 派生子执行域。
// runID 取全新标识，parentRunID 指向当前执行，深度加一。
func (s *runScope) fork() *runScope {
	return &runScope{
		runID:          uuid.NewString(),
		parentRunID:    s.runID,
		depth:          s.depth + 1,
		maxConcurrency: s.maxConcurrency,
		recursionLimit: s.recursionLimit,
		tags:           s.tags,
		metadata:       s.metadata,
		bus:            s.bus,
	}
}

// guard 在单元执行业务逻辑之前检查取消信号与嵌套深度。
// 失败会走完整的错误上报路径，保证事件不丢失。
func (s *runScope) guard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.recursionLimit > 0 && s.depth > s.recursionLimit {
		return newRecursionLimitErr(s.depth, s.recursionLimit)
	}

	return nil
}

// newEvent 以当前执行域构造事件骨架，载荷字段由调用方填充。
func (s *runScope) newEvent(kind callbacks.EventKind, name string, comp component) *callbacks.Event {
	return &callbacks.Event{
		Kind:        kind,
		RunID:       s.runID,
		ParentRunID: s.parentRunID,
		Name:        name,
		Component:   comp,
		Tags:        s.tags,
		Metadata:    s.metadata,
		Time:        time.Now(),
	}
}

// runInfo 以当前执行域构造回调运行信息。
func (s *runScope) runInfo(name, typ string, comp component) *callbacks.RunInfo {
	return &callbacks.RunInfo{
		Name:        name,
		Type:        typ,
		Component:   comp,
		RunID:       s.runID,
		ParentRunID: s.parentRunID,
		Tags:        s.tags,
		Metadata:    s.metadata,
	}
}

// enterRun 进入单元时派生本次执行的子域并写入上下文。
// 上下文中没有执行域时（单元被直接调用而非经根入口进入）先补默认域。
func enterRun(ctx context.Context) (context.Context, *runScope) {
	parent := scopeFromCtx(ctx)
	if parent == nil {
		parent = defaultScope()
	}

	self := parent.fork()
	return context.WithValue(ctx, runScopeKey{}, self), self
}

func defaultScope() *runScope {
	return &runScope{
		maxConcurrency: DefaultMaxConcurrency,
		recursionLimit: DefaultRecursionLimit,
		bus:            callbacks.GlobalBus(),
	}
}

// foldCallOptions 把调用选项折叠进执行域。
// 标量后者覆盖前者，标签与元数据做累积合并，处理器与超时单独透出。
func foldCallOptions(parent *runScope, opts []Option) (*runScope, []callbacks.Handler, time.Duration) {
	var s *runScope
	if parent != nil {
		ns := *parent
		s = &ns
	} else {
		s = defaultScope()
	}

	var (
		handlers []callbacks.Handler
		timeout  time.Duration
	)

	for _, opt := range opts {
		if opt.maxConcurrency > 0 {
			s.maxConcurrency = opt.maxConcurrency
		}
		if opt.recursionLimit > 0 {
			s.recursionLimit = opt.recursionLimit
		}
		if opt.timeout > 0 {
			timeout = opt.timeout
		}
		if len(opt.tags) > 0 {
			s.tags = append(append([]string{}, s.tags...), opt.tags...)
		}
		if len(opt.metadata) > 0 {
			s.metadata = gmap.Concat(s.metadata, opt.metadata)
		}
		if opt.bus != nil {
			s.bus = opt.bus
		}

		handlers = append(handlers, opt.handler...)
	}

	return s, handlers, timeout
}

// initRunCtx 在根调用处初始化执行上下文：
// 折叠调用选项、挂载执行域、追加回调处理器并应用整体超时。
// 已有执行域时在其副本上叠加，保持嵌套调用的执行链不断。
func initRunCtx(ctx context.Context, opts []Option) (context.Context, context.CancelFunc) {
	scope, handlers, timeout := foldCallOptions(scopeFromCtx(ctx), opts)

	ctx = context.WithValue(ctx, runScopeKey{}, scope)

	if len(handlers) > 0 {
		ctx = callbacks.AppendHandlers(ctx, nil, handlers...)
	}

	// 仅设置了整体超时才返回非空 cancel，调用方据此决定是否挂接清理
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	return ctx, cancel
}
