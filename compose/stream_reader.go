package compose

import (
	"io"
	"reflect"

	"github.com/favbox/flow/internal/generic"
	"github.com/favbox/flow/schema"
)

// streamReader 是流式读取器的类型擦除接口。
//
// 将具体的 *schema.StreamReader[T] 包装为统一接口，
// 使编排层可以在不知道元素类型的情况下复制、合并、观察流。
type streamReader interface {
	copy(n int) []streamReader
	getType() reflect.Type
	getChunkType() reflect.Type
	withKey(string) streamReader
	merge([]streamReader) streamReader
	mergeWithNames([]streamReader, []string) streamReader
	toAnyStreamReader() *schema.StreamReader[any]
	observe(onChunk func(any), onDone func(error) error) streamReader
	close()
}

// streamReaderPacker 将 *schema.StreamReader[T] 打包为 streamReader 接口。
// 轻量级包装，无额外状态。
type streamReaderPacker[T any] struct {
	sr *schema.StreamReader[T]
}

func (srp streamReaderPacker[T]) copy(n int) []streamReader {
	ret := make([]streamReader, n)
	srs := srp.sr.Copy(n)

	for i := 0; i < n; i++ {
		ret[i] = streamReaderPacker[T]{srs[i]}
	}

	return ret
}

func (srp streamReaderPacker[T]) getType() reflect.Type {
	return reflect.TypeOf(srp.sr)
}

func (srp streamReaderPacker[T]) getChunkType() reflect.Type {
	return generic.TypeOf[T]()
}

// withKey 把流中每个元素包装为单键 map，用于并行分支的流式输出标记来源。
//
// 示例：
//
//	输入流：[msg1, msg2]
//	添加键名 "answer" 后：
//	输出流：[{answer: msg1}, {answer: msg2}]
func (srp streamReaderPacker[T]) withKey(key string) streamReader {
	cvt := func(v T) (map[string]any, error) {
		return map[string]any{key: v}, nil
	}
	ret := schema.StreamReaderWithConvert[T, map[string]any](srp.sr, cvt)
	return packStreamReader(ret)
}

func (srp streamReaderPacker[T]) toStreamReaders(srs []streamReader) []*schema.StreamReader[T] {
	ret := make([]*schema.StreamReader[T], len(srs)+1)
	ret[0] = srp.sr
	for i := 1; i < len(ret); i++ {
		sr, ok := unpackStreamReader[T](srs[i-1])
		if !ok {
			return nil
		}

		ret[i] = sr
	}

	return ret
}

// merge 将当前流与多个同类型流合并为一个流，元素按到达顺序交错。
func (srp streamReaderPacker[T]) merge(isrs []streamReader) streamReader {
	srs := srp.toStreamReaders(isrs)

	sr := schema.MergeStreamReaders(srs)

	return packStreamReader(sr)
}

// mergeWithNames 带名称合并多个流，消费侧可通过 schema.GetSourceName 识别来源。
func (srp streamReaderPacker[T]) mergeWithNames(isrs []streamReader, names []string) streamReader {
	srs := srp.toStreamReaders(isrs)

	sr := schema.InternalMergeNamedStreamReaders(srs, names)

	return packStreamReader(sr)
}

func (srp streamReaderPacker[T]) toAnyStreamReader() *schema.StreamReader[any] {
	return schema.StreamReaderWithConvert(srp.sr, func(t T) (any, error) {
		return t, nil
	})
}

// observe 在流上插入一段观察泵：每个数据块在传给下游之前先回调 onChunk，
// 流终止（正常结束、出错或下游提前关闭）在下游感知之前先回调 onDone。
// onDone 可以替换错误，向下游转发替换后的错误，错误包装依赖这一点。
//
// 回调先于传播的次序保证了：本单元的终止事件一定先于下游单元的终止事件发布。
// 下游提前关闭时剩余数据不再读取，按正常结束上报。
func (srp streamReaderPacker[T]) observe(onChunk func(any), onDone func(error) error) streamReader {
	sr, sw := schema.Pipe[T](0)

	go func() {
		defer func() {
			srp.sr.Close()
			sw.Close()
		}()

		for {
			chunk, err := srp.sr.Recv()
			if err != nil {
				if err == io.EOF {
					onDone(nil)
					return
				}

				err = onDone(err)
				sw.Send(chunk, err)
				return
			}

			onChunk(chunk)
			if closed := sw.Send(chunk, nil); closed {
				onDone(nil)
				return
			}
		}
	}()

	return packStreamReader(sr)
}

// close 关闭底层的 *schema.StreamReader[T]。
func (srp streamReaderPacker[T]) close() {
	srp.sr.Close()
}

// packStreamReader 将 *schema.StreamReader[T] 包装为 streamReader 接口。
func packStreamReader[T any](sr *schema.StreamReader[T]) streamReader {
	return streamReaderPacker[T]{sr}
}

// unpackStreamReader 从 streamReader 接口中还原 *schema.StreamReader[T]。
//
// 类型不能直接断言且 T 为接口类型时，退化为逐元素断言的转换流；
// 其他不匹配情况返回失败而不是 panic。
func unpackStreamReader[T any](isr streamReader) (*schema.StreamReader[T], bool) {
	c, ok := isr.(streamReaderPacker[T])
	if ok {
		return c.sr, true
	}

	typ := generic.TypeOf[T]()
	if typ.Kind() == reflect.Interface {
		return schema.StreamReaderWithConvert(isr.toAnyStreamReader(), func(t any) (T, error) {
			return t.(T), nil
		}), true
	}

	return nil, false
}
