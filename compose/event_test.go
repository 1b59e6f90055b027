package compose

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/favbox/flow/callbacks"
	"github.com/favbox/flow/schema"
)

// eventRecorder 测试用事件收集器，按派发顺序留存全部事件。
type eventRecorder struct {
	mu     sync.Mutex
	events []*callbacks.Event
}

func (r *eventRecorder) Collect(ev *callbacks.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) snapshot() []*callbacks.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*callbacks.Event{}, r.events...)
}

// eventTrace 把事件序列压缩为 "kind:name" 形式便于断言。
func eventTrace(evs []*callbacks.Event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, string(ev.Kind)+":"+ev.Name)
	}
	return out
}

func TestEventOrdering(t *testing.T) {
	ctx := context.Background()

	rec := &eventRecorder{}
	bus := callbacks.NewBus(nil)
	bus.Register(rec)

	trim := InvokableLambda(func(ctx context.Context, input string) (string, error) {
		return input, nil
	}, WithLambdaName("trim"))
	upper := InvokableLambda(func(ctx context.Context, input string) (string, error) {
		return input + "!", nil
	}, WithLambdaName("upper"))

	seq, err := Sequence(trim, upper)
	assert.NoError(t, err)

	r, err := AsRunnable[string, string](seq)
	assert.NoError(t, err)

	out, err := r.Invoke(ctx, "q", WithEventBus(bus))
	assert.NoError(t, err)
	assert.Equal(t, "q!", out)

	bus.Close()
	evs := rec.snapshot()

	assert.Equal(t, []string{
		"start:Sequence",
		"start:trim",
		"end:trim",
		"start:upper",
		"end:upper",
		"end:Sequence",
	}, eventTrace(evs))

	// 顶层执行没有父运行，子单元的父运行指向序列本身
	root := evs[0]
	assert.Empty(t, root.ParentRunID)
	assert.NotEmpty(t, root.RunID)
	assert.Equal(t, "q", root.Input)

	assert.Equal(t, root.RunID, evs[1].ParentRunID)
	assert.Equal(t, root.RunID, evs[3].ParentRunID)
	assert.Equal(t, "q!", evs[5].Output)

	// 同一子单元的开始与结束共享运行标识
	assert.Equal(t, evs[1].RunID, evs[2].RunID)
	assert.NotEqual(t, evs[1].RunID, evs[3].RunID)
}

func TestEventErrorPropagation(t *testing.T) {
	ctx := context.Background()

	rec := &eventRecorder{}
	bus := callbacks.NewBus(nil)
	bus.Register(rec)

	boom := errors.New("boom")
	breaker := InvokableLambda(func(ctx context.Context, input string) (string, error) {
		return "", boom
	}, WithLambdaName("breaker"))

	seq, err := Sequence(breaker)
	assert.NoError(t, err)

	r, err := AsRunnable[string, string](seq)
	assert.NoError(t, err)

	_, err = r.Invoke(ctx, "q", WithEventBus(bus))
	assert.ErrorIs(t, err, boom)

	bus.Close()
	evs := rec.snapshot()

	// 子单元的失败先于父单元的失败进入总线
	assert.Equal(t, []string{
		"start:Sequence",
		"start:breaker",
		"error:breaker",
		"error:Sequence",
	}, eventTrace(evs))

	assert.ErrorIs(t, evs[2].Err, boom)
	assert.ErrorIs(t, evs[3].Err, boom)
}

func TestEventStreamChunks(t *testing.T) {
	ctx := context.Background()

	rec := &eventRecorder{}
	bus := callbacks.NewBus(nil)
	bus.Register(rec)

	speller := StreamableLambda(func(ctx context.Context, input string) (*schema.StreamReader[string], error) {
		return schema.StreamReaderFromArray([]string{"a", "b"}), nil
	}, WithLambdaName("speller"))

	r, err := AsRunnable[string, string](speller)
	assert.NoError(t, err)

	sr, err := r.Stream(ctx, "x", WithEventBus(bus))
	assert.NoError(t, err)

	var chunks []string
	for {
		chunk, e := sr.Recv()
		if e == io.EOF {
			break
		}
		assert.NoError(t, e)
		chunks = append(chunks, chunk)
	}
	sr.Close()
	assert.Equal(t, []string{"a", "b"}, chunks)

	bus.Close()
	evs := rec.snapshot()

	assert.Equal(t, []string{
		"start:speller",
		"chunk:speller",
		"chunk:speller",
		"end:speller",
	}, eventTrace(evs))

	assert.Equal(t, "a", evs[1].Chunk)
	assert.Equal(t, "b", evs[2].Chunk)
}

func TestEventTagsAndMetadata(t *testing.T) {
	ctx := context.Background()

	rec := &eventRecorder{}
	bus := callbacks.NewBus(nil)
	bus.Register(rec)

	echo := InvokableLambda(func(ctx context.Context, input string) (string, error) {
		return input, nil
	})

	r, err := AsRunnable[string, string](echo)
	assert.NoError(t, err)

	_, err = r.Invoke(ctx, "q",
		WithEventBus(bus),
		WithTags("trace-42", "smoke"),
		WithMetadata(map[string]any{"tenant": "acme"}))
	assert.NoError(t, err)

	bus.Close()
	evs := rec.snapshot()

	assert.NotEmpty(t, evs)
	for _, ev := range evs {
		assert.Equal(t, []string{"trace-42", "smoke"}, ev.Tags)
		assert.Equal(t, "acme", ev.Metadata["tenant"])
	}
}

func TestEventParallelInvariants(t *testing.T) {
	ctx := context.Background()

	rec := &eventRecorder{}
	bus := callbacks.NewBus(nil)
	bus.Register(rec)

	slow := InvokableLambda(func(ctx context.Context, input string) (string, error) {
		time.Sleep(30 * time.Millisecond)
		return input + "-slow", nil
	})
	fast := InvokableLambda(func(ctx context.Context, input string) (string, error) {
		return input + "-fast", nil
	})

	par, err := Parallel(map[string]*Unit{"slow": slow, "fast": fast})
	assert.NoError(t, err)

	r, err := AsRunnable[string, map[string]any](par)
	assert.NoError(t, err)

	_, err = r.Invoke(ctx, "q", WithEventBus(bus))
	assert.NoError(t, err)

	bus.Close()
	evs := rec.snapshot()
	assert.Len(t, evs, 6)

	// 并发子单元之间的先后不定，但父运行的开始最早、结束最晚，
	// 每个子运行自身开始先于结束且都挂在父运行之下。
	parent := evs[0]
	assert.Equal(t, callbacks.EventKindStart, parent.Kind)
	assert.Equal(t, "Parallel", parent.Name)

	last := evs[len(evs)-1]
	assert.Equal(t, callbacks.EventKindEnd, last.Kind)
	assert.Equal(t, parent.RunID, last.RunID)

	startIdx := map[string]int{}
	endIdx := map[string]int{}
	for idx, ev := range evs[1 : len(evs)-1] {
		assert.Equal(t, parent.RunID, ev.ParentRunID)
		switch ev.Kind {
		case callbacks.EventKindStart:
			startIdx[ev.RunID] = idx
		case callbacks.EventKindEnd:
			endIdx[ev.RunID] = idx
		}
	}

	assert.Len(t, startIdx, 2)
	assert.Len(t, endIdx, 2)
	for runID, s := range startIdx {
		e, ok := endIdx[runID]
		assert.True(t, ok)
		assert.Less(t, s, e)
	}
}

func TestCallbackHandlers(t *testing.T) {
	ctx := context.Background()

	t.Run("处理器随执行触达每个单元", func(t *testing.T) {
		var trace []string
		handler := callbacks.NewHandlerBuilder().
			OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
				trace = append(trace, "start:"+info.Name)
				return ctx
			}).
			OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
				trace = append(trace, "end:"+info.Name)
				return ctx
			}).
			Build()

		trim := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return input, nil
		}, WithLambdaName("trim"))
		upper := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return input + "!", nil
		}, WithLambdaName("upper"))

		seq, err := Sequence(trim, upper)
		assert.NoError(t, err)

		r, err := AsRunnable[string, string](seq)
		assert.NoError(t, err)

		_, err = r.Invoke(ctx, "q", WithCallbacks(handler))
		assert.NoError(t, err)

		assert.Equal(t, []string{
			"start:Sequence",
			"start:trim",
			"end:trim",
			"start:upper",
			"end:upper",
			"end:Sequence",
		}, trace)
	})

	t.Run("失败时触发错误回调", func(t *testing.T) {
		boom := errors.New("boom")

		var gotErr error
		var gotName string
		handler := callbacks.NewHandlerBuilder().
			OnErrorFn(func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
				gotErr = err
				gotName = info.Name
				return ctx
			}).
			Build()

		breaker := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return "", boom
		}, WithLambdaName("breaker"))

		r, err := AsRunnable[string, string](breaker)
		assert.NoError(t, err)

		_, err = r.Invoke(ctx, "q", WithCallbacks(handler))
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, gotErr, boom)
		assert.Equal(t, "breaker", gotName)
	})

	t.Run("运行信息携带标签与元数据", func(t *testing.T) {
		var gotTags []string
		var gotMeta map[string]any
		handler := callbacks.NewHandlerBuilder().
			OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
				gotTags = info.Tags
				gotMeta = info.Metadata
				return ctx
			}).
			Build()

		echo := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return input, nil
		})

		r, err := AsRunnable[string, string](echo)
		assert.NoError(t, err)

		_, err = r.Invoke(ctx, "q",
			WithCallbacks(handler),
			WithTags("audit"),
			WithMetadata(map[string]any{"user": "u-1"}))
		assert.NoError(t, err)

		assert.Equal(t, []string{"audit"}, gotTags)
		assert.Equal(t, "u-1", gotMeta["user"])
	})
}
