package callbacks

import "context"

// CtxManagerKey 管理器在上下文中的键类型。
type CtxManagerKey struct{}

// CtxRunInfoKey 运行信息在上下文中的键类型。
type CtxRunInfoKey struct{}

// manager 维护一次执行可见的回调处理器链与当前运行信息。
type manager struct {
	// globalHandlers 进程级处理器，对所有执行生效。
	globalHandlers []Handler

	// handlers 本次执行附加的处理器，排在全局处理器之前执行。
	handlers []Handler

	// runInfo 下一个切面将要消费的运行信息。
	runInfo *RunInfo
}

// GlobalHandlers 进程级回调处理器集合。
var GlobalHandlers []Handler

// newManager 合并全局与本次处理器，两者皆空时返回 false。
func newManager(runInfo *RunInfo, handlers ...Handler) (*manager, bool) {
	if len(handlers)+len(GlobalHandlers) == 0 {
		return nil, false
	}

	hs := make([]Handler, len(GlobalHandlers))
	copy(hs, GlobalHandlers)

	return &manager{
		globalHandlers: hs,
		handlers:       handlers,
		runInfo:        runInfo,
	}, true
}

// withRunInfo 返回仅替换运行信息的管理器副本。
func (m *manager) withRunInfo(runInfo *RunInfo) *manager {
	if m == nil {
		return nil
	}

	n := *m
	n.runInfo = runInfo
	return &n
}

func managerFromCtx(ctx context.Context) (*manager, bool) {
	v := ctx.Value(CtxManagerKey{})
	m, ok := v.(*manager)

	if ok && m != nil {
		n := *m
		return &n, true
	}

	return nil, false
}

func ctxWithManager(ctx context.Context, manager *manager) context.Context {
	return context.WithValue(ctx, CtxManagerKey{}, manager)
}
