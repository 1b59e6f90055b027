package compose

import (
	"errors"
	"io"

	"github.com/favbox/flow/internal"
	"github.com/favbox/flow/schema"
)

// RegisterStreamChunkConcatFunc 为特定类型注册自定义的流块合并逻辑。
//
// 当流式产出需要折叠为单值时（如以 Invoke 形式调用只实现了 Stream 的单元），
// 框架对 string、Message 等类型内置了合并逻辑，
// 其他自定义类型通过此函数注册合并策略。
//
// 注册必须在进程初始化时完成，非线程安全。
//
// 示例：
//
//	type Result struct {
//		Text  string
//		Count int
//	}
//
//	compose.RegisterStreamChunkConcatFunc(func(items []Result) (Result, error) {
//		var merged Result
//		for _, item := range items {
//			merged.Text += item.Text
//			merged.Count += item.Count
//		}
//		return merged, nil
//	})
func RegisterStreamChunkConcatFunc[T any](fn func([]T) (T, error)) {
	internal.RegisterStreamChunkConcatFunc(fn)
}

// emptyStreamConcatErr 区分“流为空”和“流读取失败”两种情况。
var emptyStreamConcatErr = errors.New("stream reader is empty, concat failed")

// concatStreamReader 读完整条流并把所有块合并为一个值。
//
// 带源名称的错误是多流合并的结束标记，跳过继续；
// 单元素直接返回，多元素交给注册的合并函数。
func concatStreamReader[T any](sr *schema.StreamReader[T]) (T, error) {
	defer sr.Close()

	var items []T

	for {
		chunk, err := sr.Recv()
		if err != nil {
			if err == io.EOF {
				break
			}

			if _, ok := schema.GetSourceName(err); ok {
				continue
			}

			var t T

			return t, err
		}

		items = append(items, chunk)
	}

	if len(items) == 0 {
		var t T
		return t, emptyStreamConcatErr
	}

	if len(items) == 1 {
		return items[0], nil
	}

	res, err := internal.ConcatItems(items)
	if err != nil {
		var t T
		return t, err
	}

	return res, nil
}
