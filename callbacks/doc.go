// Package callbacks 提供单元执行过程中的回调与事件机制。
//
// 该包允许你在单元执行的不同阶段（如开始、产出数据块、结束、出错）注入
// 观察逻辑，用于实现日志、监控、指标采集等治理功能。
//
// 核心问题：
//
//	编排执行中面临横切关注点处理的困难：
//	- 监控逻辑与业务逻辑耦合，污染单元代码
//	- 缺乏统一的执行生命周期观察机制
//	- 流式执行的监控和日志处理复杂
//	- 慢消费者可能拖垮执行路径
//	- 调试和追踪信息分散，难以集中管理
//
// 解决方案：
//
//	回调处理器（Handler）随执行上下文向下传播，在每个单元的
//	开始、结束、出错与流式产出时机被调用；事件总线（Bus）将同样的
//	生命周期以事件形式异步派发给收集器（Collector），
//	每个收集器独享有界队列，慢收集器在有限宽限后被摘除，
//	保证观察侧永远不会阻塞执行侧。
//
// 用法：
//
//	// 使用 HandlerBuilder 创建回调处理器
//	handler := callbacks.NewHandlerBuilder().
//		OnStartFn(func(ctx context.Context, info *RunInfo, input CallbackInput) context.Context {
//			// 单元开始执行时处理
//			return ctx
//		}).
//		OnEndFn(func(ctx context.Context, info *RunInfo, output CallbackOutput) context.Context {
//			// 单元执行结束时处理
//			return ctx
//		}).
//		OnErrorFn(func(ctx context.Context, info *RunInfo, err error) context.Context {
//			// 执行出错时处理
//			return ctx
//		}).
//		Build()
//
//	// 注册事件收集器
//	bus := callbacks.NewBus(nil)
//	defer bus.Close()
//	unregister := bus.Register(myCollector)
//	defer unregister()
//
// 使用示例：
//
//	unit.Invoke(ctx, input,
//		compose.WithCallbacks(handler),
//		compose.WithEventBus(bus))
package callbacks
