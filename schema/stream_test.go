package schema

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 验证管道流的基础收发语义与接收方提前关闭的反馈。
func TestPipe(t *testing.T) {
	t.Run("发送接收与正常结束", func(t *testing.T) {
		sr, sw := Pipe[int](2)

		go func() {
			defer sw.Close()
			for i := 0; i < 5; i++ {
				sw.Send(i, nil)
			}
		}()

		var got []int
		for {
			v, err := sr.Recv()
			if err == io.EOF {
				break
			}
			assert.NoError(t, err)
			got = append(got, v)
		}
		sr.Close()

		assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	})

	t.Run("接收方提前关闭后发送方收到通知", func(t *testing.T) {
		sr, sw := Pipe[int](0)

		closed := make(chan bool, 1)
		go func() {
			for i := 0; ; i++ {
				if sw.Send(i, nil) {
					closed <- true
					return
				}
			}
		}()

		v, err := sr.Recv()
		assert.NoError(t, err)
		assert.Equal(t, 0, v)
		sr.Close()

		assert.True(t, <-closed)
	})

	t.Run("错误块原样传递", func(t *testing.T) {
		sr, sw := Pipe[string](2)
		boom := errors.New("boom")

		go func() {
			defer sw.Close()
			sw.Send("ok", nil)
			sw.Send("", boom)
		}()
		defer sr.Close()

		v, err := sr.Recv()
		assert.NoError(t, err)
		assert.Equal(t, "ok", v)

		_, err = sr.Recv()
		assert.ErrorIs(t, err, boom)
	})
}

// 验证数组读取器按序产出元素并以 io.EOF 结束。
func TestStreamReaderFromArray(t *testing.T) {
	sr := StreamReaderFromArray([]string{"a", "b"})

	v, err := sr.Recv()
	assert.NoError(t, err)
	assert.Equal(t, "a", v)

	v, err = sr.Recv()
	assert.NoError(t, err)
	assert.Equal(t, "b", v)

	_, err = sr.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

// 验证多流合并按到达顺序交错产出，同源块保持先后，
// 全部源流结束后恰好终止一次。
func TestMergeStreamReaders(t *testing.T) {
	sr1, sw1 := Pipe[string](0)
	sr2, sw2 := Pipe[string](0)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer sw1.Close()
		sw1.Send("a1", nil)
		sw1.Send("a2", nil)
	}()
	go func() {
		defer wg.Done()
		defer sw2.Close()
		sw2.Send("b1", nil)
	}()

	merged := MergeStreamReaders([]*StreamReader[string]{sr1, sr2})
	defer merged.Close()

	var got []string
	for {
		v, err := merged.Recv()
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		got = append(got, v)
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"a1", "a2", "b1"}, got)

	idx := func(s string) int {
		for i, v := range got {
			if v == s {
				return i
			}
		}
		return -1
	}
	assert.Less(t, idx("a1"), idx("a2"))

	// 终止之后继续读取仍是 io.EOF
	_, err := merged.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

// 纯数组读取器的合并退化为数组拼接，不启动泵协程。
func TestMergeArrayReaders(t *testing.T) {
	merged := MergeStreamReaders([]*StreamReader[int]{
		StreamReaderFromArray([]int{1, 2}),
		StreamReaderFromArray([]int{3}),
	})
	defer merged.Close()

	var got []int
	for {
		v, err := merged.Recv()
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		got = append(got, v)
	}

	assert.Equal(t, []int{1, 2, 3}, got)
}

// 验证源流中的错误块直接透出给合并流的消费方。
func TestMergeStreamError(t *testing.T) {
	sr1, sw1 := Pipe[int](1)
	sr2, sw2 := Pipe[int](1)
	boom := errors.New("source broken")

	sw1.Send(0, boom)
	sw1.Close()
	defer sw2.Close()

	merged := MergeStreamReaders([]*StreamReader[int]{sr1, sr2})
	defer merged.Close()

	_, err := merged.Recv()
	assert.ErrorIs(t, err, boom)
}

// 验证命名合并保留源流身份：单个源流结束产出携带其名称的
// SourceEOF，全部源流结束后返回 io.EOF。
func TestMergeNamedStreamReaders(t *testing.T) {
	sr1, sw1 := Pipe[string](2)
	sr2, sw2 := Pipe[string](2)

	sw1.Send("x1", nil)
	sw1.Send("x2", nil)
	sw1.Close()
	sw2.Send("y1", nil)
	sw2.Close()

	merged := MergeNamedStreamReaders(map[string]*StreamReader[string]{
		"xs": sr1,
		"ys": sr2,
	})
	defer merged.Close()

	var chunks []string
	finished := map[string]int{}
	for {
		v, err := merged.Recv()
		if err != nil {
			if name, ok := GetSourceName(err); ok {
				finished[name]++
				continue
			}
			assert.ErrorIs(t, err, io.EOF)
			break
		}
		chunks = append(chunks, v)
	}

	assert.ElementsMatch(t, []string{"x1", "x2", "y1"}, chunks)
	assert.Equal(t, map[string]int{"xs": 1, "ys": 1}, finished)
}

// 验证转换流的映射、跳过与错误透出。
func TestStreamReaderWithConvert(t *testing.T) {
	t.Run("映射并跳过无值块", func(t *testing.T) {
		src := StreamReaderFromArray([]int{1, 2, 3, 4})
		conv := StreamReaderWithConvert(src, func(v int) (string, error) {
			if v%2 == 1 {
				return "", ErrNoValue
			}
			return fmt.Sprintf("n%d", v), nil
		})
		defer conv.Close()

		var got []string
		for {
			v, err := conv.Recv()
			if err == io.EOF {
				break
			}
			assert.NoError(t, err)
			got = append(got, v)
		}

		assert.Equal(t, []string{"n2", "n4"}, got)
	})

	t.Run("转换错误终止流", func(t *testing.T) {
		src := StreamReaderFromArray([]int{1, 2})
		boom := errors.New("convert failed")
		conv := StreamReaderWithConvert(src, func(v int) (int, error) {
			if v > 1 {
				return 0, boom
			}
			return v, nil
		})
		defer conv.Close()

		v, err := conv.Recv()
		assert.NoError(t, err)
		assert.Equal(t, 1, v)

		_, err = conv.Recv()
		assert.ErrorIs(t, err, boom)
	})
}
