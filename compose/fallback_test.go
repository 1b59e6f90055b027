package compose

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/favbox/flow/schema"
)

func TestFallbackOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("首选成功则不动用备选", func(t *testing.T) {
		var backupCalls int32
		primary := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return "primary:" + input, nil
		})
		backup := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			atomic.AddInt32(&backupCalls, 1)
			return "backup:" + input, nil
		})

		u, err := Fallback([]*Unit{primary, backup})
		assert.NoError(t, err)

		r, err := AsRunnable[string, string](u)
		assert.NoError(t, err)

		out, err := r.Invoke(ctx, "q")
		assert.NoError(t, err)
		assert.Equal(t, "primary:q", out)
		assert.Equal(t, int32(0), atomic.LoadInt32(&backupCalls))
	})

	t.Run("首选失败切换到备选", func(t *testing.T) {
		primary := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return "", errors.New("primary down")
		})
		backup := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return "backup:" + input, nil
		})

		u, err := Fallback([]*Unit{primary, backup})
		assert.NoError(t, err)

		r, err := AsRunnable[string, string](u)
		assert.NoError(t, err)

		out, err := r.Invoke(ctx, "q")
		assert.NoError(t, err)
		assert.Equal(t, "backup:q", out)
	})

	t.Run("中位备选成功后链条停止", func(t *testing.T) {
		var thirdCalls int32
		first := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return "", errors.New("first down")
		})
		second := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return "second:" + input, nil
		})
		third := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			atomic.AddInt32(&thirdCalls, 1)
			return "third:" + input, nil
		})

		u, err := Fallback([]*Unit{first, second, third})
		assert.NoError(t, err)

		r, err := AsRunnable[string, string](u)
		assert.NoError(t, err)

		out, err := r.Invoke(ctx, "q")
		assert.NoError(t, err)
		assert.Equal(t, "second:q", out)
		assert.Equal(t, int32(0), atomic.LoadInt32(&thirdCalls))
	})

	t.Run("全部失败上抛最后一次失败", func(t *testing.T) {
		errFirst := errors.New("first down")
		errSecond := errors.New("second down")

		first := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return "", errFirst
		})
		second := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return "", errSecond
		})

		u, err := Fallback([]*Unit{first, second})
		assert.NoError(t, err)

		r, err := AsRunnable[string, string](u)
		assert.NoError(t, err)

		_, err = r.Invoke(ctx, "q")
		assert.Error(t, err)
		assert.ErrorIs(t, err, errSecond)
		assert.NotErrorIs(t, err, errFirst)
	})
}

func TestFallbackPredicate(t *testing.T) {
	ctx := context.Background()

	t.Run("取消类失败默认不降级", func(t *testing.T) {
		var backupCalls int32
		primary := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return "", context.Canceled
		})
		backup := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			atomic.AddInt32(&backupCalls, 1)
			return "backup:" + input, nil
		})

		u, err := Fallback([]*Unit{primary, backup})
		assert.NoError(t, err)

		r, err := AsRunnable[string, string](u)
		assert.NoError(t, err)

		_, err = r.Invoke(ctx, "q")
		assert.Error(t, err)
		kind, ok := ErrorKindOf(err)
		assert.True(t, ok)
		assert.Equal(t, ErrorKindCancelled, kind)
		assert.Equal(t, int32(0), atomic.LoadInt32(&backupCalls))
	})

	t.Run("自定义判定一律拒绝降级", func(t *testing.T) {
		boom := errors.New("boom")

		var backupCalls int32
		primary := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return "", boom
		})
		backup := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			atomic.AddInt32(&backupCalls, 1)
			return "backup:" + input, nil
		})

		u, err := Fallback([]*Unit{primary, backup},
			WithFallbackIf(func(err error) bool { return false }))
		assert.NoError(t, err)

		r, err := AsRunnable[string, string](u)
		assert.NoError(t, err)

		_, err = r.Invoke(ctx, "q")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int32(0), atomic.LoadInt32(&backupCalls))
	})
}

func TestFallbackStream(t *testing.T) {
	ctx := context.Background()

	primary := StreamableLambda(func(ctx context.Context, input string) (*schema.StreamReader[string], error) {
		return nil, errors.New("primary stream down")
	})
	backup := StreamableLambda(func(ctx context.Context, input string) (*schema.StreamReader[string], error) {
		return schema.StreamReaderFromArray([]string{"b1-", "b2-", input}), nil
	})

	u, err := Fallback([]*Unit{primary, backup})
	assert.NoError(t, err)

	r, err := AsRunnable[string, string](u)
	assert.NoError(t, err)

	sr, err := r.Stream(ctx, "q")
	assert.NoError(t, err)
	defer sr.Close()

	var out string
	for {
		chunk, e := sr.Recv()
		if e == io.EOF {
			break
		}
		assert.NoError(t, e)
		out += chunk
	}
	assert.Equal(t, "b1-b2-q", out)
}

func TestFallbackBuildErrors(t *testing.T) {
	t.Run("无备选单元", func(t *testing.T) {
		_, err := Fallback(nil)
		assert.Error(t, err)
		kind, ok := ErrorKindOf(err)
		assert.True(t, ok)
		assert.Equal(t, ErrorKindConfiguration, kind)
	})

	t.Run("备选中存在空单元", func(t *testing.T) {
		unit := InvokableLambda(func(ctx context.Context, input string) (string, error) {
			return input, nil
		})

		_, err := Fallback([]*Unit{unit, nil})
		assert.Error(t, err)
		kind, ok := ErrorKindOf(err)
		assert.True(t, ok)
		assert.Equal(t, ErrorKindConfiguration, kind)
	})
}
