package callbacks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/favbox/flow/internal/callbacks"
)

// TestAppendGlobalHandlers 测试全局回调处理器的追加功能
//
// 测试覆盖的场景：
//  1. 从空状态开始添加处理器
//  2. 累积添加多个处理器
//  3. 添加空处理器列表的边界情况
func TestAppendGlobalHandlers(t *testing.T) {
	// 测试前清理：清空全局处理器列表，确保测试环境干净
	callbacks.GlobalHandlers = nil

	handler1 := NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *RunInfo, input CallbackInput) context.Context {
			return ctx
		}).Build()

	handler2 := NewHandlerBuilder().
		OnEndFn(func(ctx context.Context, info *RunInfo, output CallbackOutput) context.Context {
			return ctx
		}).Build()

	// 场景1：添加第一个处理器
	AppendGlobalHandlers(handler1)
	assert.Equal(t, 1, len(callbacks.GlobalHandlers))
	assert.Contains(t, callbacks.GlobalHandlers, handler1)

	// 场景2：累积添加第二个处理器
	AppendGlobalHandlers(handler2)
	assert.Equal(t, 2, len(callbacks.GlobalHandlers))
	assert.Contains(t, callbacks.GlobalHandlers, handler1)
	assert.Contains(t, callbacks.GlobalHandlers, handler2)

	// 场景3：空列表不应影响现有处理器
	AppendGlobalHandlers([]Handler{}...)
	assert.Equal(t, 2, len(callbacks.GlobalHandlers))
}
