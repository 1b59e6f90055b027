package callbacks

import (
	"github.com/sirupsen/logrus"

	"github.com/favbox/flow/callbacks"
)

// LogCollector 把执行事件写入结构化日志的事件收集器。
//
// 注册到事件总线后，每个事件产出一条带 run_id、parent_run_id、
// name、component、kind 等字段的日志，错误事件以 Error 级别输出，
// 数据块事件以 Trace 级别输出，其余为 Debug 级别。
//
// 使用示例：
//
//	bus := callbacks.NewBus(nil)
//	defer bus.Close()
//	unregister := bus.Register(NewLogCollector(nil))
//	defer unregister()
//	runnable.Invoke(ctx, input, compose.WithEventBus(bus))
type LogCollector struct {
	log *logrus.Logger
}

// NewLogCollector 创建日志收集器，log 为 nil 时使用标准 logrus 实例。
func NewLogCollector(log *logrus.Logger) *LogCollector {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &LogCollector{log: log}
}

// Collect 实现 callbacks.Collector。
// 在总线的派发协程中串行调用，不会阻塞单元执行。
func (c *LogCollector) Collect(ev *callbacks.Event) {
	entry := c.log.WithFields(logrus.Fields{
		"run_id":        ev.RunID,
		"parent_run_id": ev.ParentRunID,
		"name":          ev.Name,
		"component":     string(ev.Component),
		"kind":          string(ev.Kind),
	})

	if len(ev.Tags) > 0 {
		entry = entry.WithField("tags", ev.Tags)
	}
	if len(ev.Metadata) > 0 {
		entry = entry.WithField("metadata", ev.Metadata)
	}

	switch ev.Kind {
	case callbacks.EventKindStart:
		entry.Debug("unit started")
	case callbacks.EventKindChunk:
		entry.Trace("unit emitted chunk")
	case callbacks.EventKindEnd:
		entry.Debug("unit finished")
	case callbacks.EventKindError:
		entry.WithError(ev.Err).Error("unit failed")
	default:
		entry.Debug("unit event")
	}
}
