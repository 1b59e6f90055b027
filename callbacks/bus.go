package callbacks

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/favbox/flow/components"
)

// EventKind 执行事件的种类。
type EventKind string

const (
	// EventKindStart 单元开始执行。
	EventKindStart EventKind = "start"
	// EventKindChunk 流式执行产出一个数据块。
	EventKindChunk EventKind = "chunk"
	// EventKindEnd 单元成功结束。
	EventKindEnd EventKind = "end"
	// EventKindError 单元执行失败。
	EventKindError EventKind = "error"
)

// Event 单元执行过程中发布到事件总线的事件。
//
// 同一次执行的事件满足：start 先于所有 chunk，chunk 先于终止事件，
// 终止事件（end 或 error）恰好一个；父单元的 start 先于子单元的 start，
// 子单元的终止事件先于父单元的终止事件。
type Event struct {
	// Kind 事件种类。
	Kind EventKind

	// RunID 本次执行的唯一标识。
	RunID string
	// ParentRunID 父执行的标识，顶层执行为空字符串。
	ParentRunID string

	// Name 单元名称。
	Name string
	// Component 单元的组件分类。
	Component components.Component

	// Tags 执行上下文携带的标签。
	Tags []string
	// Metadata 执行上下文携带的元数据。
	Metadata map[string]any

	// Input 输入值，仅 start 事件携带。
	Input any
	// Output 输出值，仅值形式结束的 end 事件携带。
	Output any
	// Chunk 数据块，仅 chunk 事件携带。
	Chunk any
	// Err 失败原因，仅 error 事件携带。
	Err error

	// Time 事件产生时间。
	Time time.Time
}

// Collector 事件收集器。
//
// Collect 在总线的派发协程中被串行调用，同一收集器观察到的事件
// 保持发布顺序。Collect 持续阻塞会导致收集器被总线摘除。
type Collector interface {
	Collect(ev *Event)
}

const (
	defaultCollectorQueueSize = 256
	defaultPublishGrace       = 10 * time.Millisecond
	defaultMaxStrikes         = 3
)

// BusConfig 事件总线配置。
type BusConfig struct {
	// QueueSize 每个收集器的事件队列容量。
	// 默认为 256。
	QueueSize int

	// PublishGrace 收集器队列满时发布方等待的宽限时长，超时记一次失速。
	// 默认为 10ms。
	PublishGrace time.Duration

	// MaxStrikes 连续失速次数上限，达到后收集器被摘除。
	// 默认为 3。
	MaxStrikes int

	// Logger 总线内部状况的日志输出。
	// 默认为 logrus.StandardLogger()。
	Logger *logrus.Logger
}

// Bus 执行事件总线。
//
// 每个收集器持有独立的有界 FIFO 队列和派发协程，慢收集器不阻塞执行，
// 也不影响其他收集器；连续失速的收集器在有限宽限后被摘除。
type Bus struct {
	mu     sync.RWMutex
	subs   map[*busSubscriber]struct{}
	closed bool

	queueSize  int
	grace      time.Duration
	maxStrikes int32

	log *logrus.Logger
	wg  sync.WaitGroup
}

type busSubscriber struct {
	collector Collector
	queue     chan *Event
	done      chan struct{}
	strikes   int32
	closeOnce sync.Once
}

// NewBus 创建事件总线，cfg 为 nil 时使用全部默认值。
func NewBus(cfg *BusConfig) *Bus {
	if cfg == nil {
		cfg = &BusConfig{}
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultCollectorQueueSize
	}

	grace := cfg.PublishGrace
	if grace <= 0 {
		grace = defaultPublishGrace
	}

	maxStrikes := cfg.MaxStrikes
	if maxStrikes <= 0 {
		maxStrikes = defaultMaxStrikes
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Bus{
		subs:       make(map[*busSubscriber]struct{}),
		queueSize:  queueSize,
		grace:      grace,
		maxStrikes: int32(maxStrikes),
		log:        log,
	}
}

// Register 注册收集器并启动其派发协程，返回的函数用于注销。
// 总线关闭后注册无效果。
func (b *Bus) Register(c Collector) (unregister func()) {
	sub := &busSubscriber{
		collector: c,
		queue:     make(chan *Event, b.queueSize),
		done:      make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	b.wg.Add(1)
	go b.dispatch(sub)

	return func() {
		b.detach(sub)
	}
}

// Publish 向所有收集器发布事件。
// nil 总线与 nil 事件都会被安全忽略。
func (b *Bus) Publish(ev *Event) {
	if b == nil || ev == nil {
		return
	}

	b.mu.RLock()
	subs := make([]*busSubscriber, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(sub, ev)
	}
}

// Close 摘除所有收集器并等待派发协程退出，已入队的事件会被派发完。
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*busSubscriber, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subs = make(map[*busSubscriber]struct{})
	b.mu.Unlock()

	for _, sub := range subs {
		sub.closeOnce.Do(func() {
			close(sub.done)
		})
	}

	b.wg.Wait()
}

func (b *Bus) deliver(sub *busSubscriber, ev *Event) {
	select {
	case <-sub.done:
		return
	case sub.queue <- ev:
		atomic.StoreInt32(&sub.strikes, 0)
		return
	default:
	}

	// 队列已满，给收集器一段宽限时间追赶。
	timer := time.NewTimer(b.grace)
	defer timer.Stop()

	select {
	case <-sub.done:
	case sub.queue <- ev:
		atomic.StoreInt32(&sub.strikes, 0)
	case <-timer.C:
		if atomic.AddInt32(&sub.strikes, 1) >= b.maxStrikes {
			b.log.WithField("collector", fmt.Sprintf("%T", sub.collector)).
				Warn("event collector detached after repeated stalls")
			b.detach(sub)
		}
	}
}

func (b *Bus) detach(sub *busSubscriber) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()

	sub.closeOnce.Do(func() {
		close(sub.done)
	})
}

func (b *Bus) dispatch(sub *busSubscriber) {
	defer b.wg.Done()

	for {
		select {
		case ev := <-sub.queue:
			b.collect(sub, ev)
		case <-sub.done:
			// 摘除后把已入队的事件派发完再退出。
			for {
				select {
				case ev := <-sub.queue:
					b.collect(sub, ev)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) collect(sub *busSubscriber, ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithField("collector", fmt.Sprintf("%T", sub.collector)).
				Errorf("event collector panic: %v", r)
		}
	}()

	sub.collector.Collect(ev)
}

// globalBus 进程级默认事件总线。
var globalBus *Bus

// SetGlobalBus 设置进程级默认事件总线。
// 未通过选项指定总线的执行将发布到这里。
// 此函数不是并发安全的，只应在进程初始化期间调用。
func SetGlobalBus(b *Bus) {
	globalBus = b
}

// GlobalBus 返回进程级默认事件总线，未设置时为 nil。
func GlobalBus() *Bus {
	return globalBus
}
