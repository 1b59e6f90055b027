package compose

import (
	"context"
	"errors"
	"fmt"
)

// Sequence 创建顺序组合单元：前一个子单元的输出作为后一个的输入。
//
// 执行语义：
//   - invoke：按声明顺序依次执行，任一子单元失败立即中止，
//     失败原样向上传播（类别与原因不变，路径补上本单元前缀），
//     之后的子单元不再执行。
//   - stream：除最后一个子单元外依次同步执行，最后一个以流式执行；
//     末位子单元不支持流式时退化为单块流。
//   - batch：按元素派生，每个元素是一次完整的顺序执行。
//
// 空序列与空子单元在构造期以 ErrorKindConfiguration 拒绝，
// 相邻子单元的静态类型也在构造期检查。
//
//	seq, err := compose.Sequence(tmpl, model, parser)
func Sequence(units ...*Unit) (*Unit, error) {
	if len(units) == 0 {
		return nil, NewError(ErrorKindConfiguration, errors.New("sequence needs at least one unit"))
	}

	crs := make([]*composableRunnable, len(units))
	for idx, u := range units {
		if u == nil || u.cr == nil {
			return nil, NewError(ErrorKindConfiguration, fmt.Errorf("sequence unit at index %d is nil", idx))
		}
		crs[idx] = u.cr
	}

	for idx := 0; idx < len(crs)-1; idx++ {
		if checkAssignable(crs[idx].outputType, crs[idx+1].inputType) == assignableTypeMustNot {
			return nil, NewError(ErrorKindConfiguration,
				fmt.Errorf("sequence type mismatch: unit %d outputs %v, unit %d expects %v",
					idx, crs[idx].outputType, idx+1, crs[idx+1].inputType))
		}
	}

	i := func(ctx context.Context, input any, opts ...Option) (output any, err error) {
		cur := input
		for _, cr := range crs {
			cur, err = cr.i(ctx, cur, opts...)
			if err != nil {
				return nil, err
			}
		}

		return cur, nil
	}

	s := func(ctx context.Context, input any, opts ...Option) (output streamReader, err error) {
		cur := input
		for _, cr := range crs[:len(crs)-1] {
			cur, err = cr.i(ctx, cur, opts...)
			if err != nil {
				return nil, err
			}
		}

		return crs[len(crs)-1].s(ctx, cur, opts...)
	}

	cr := newComposableRunnable(i, s, nil,
		crs[0].inputType, crs[len(crs)-1].outputType,
		&executorMeta{component: ComponentOfSequence, componentImplType: "Sequence"})

	return &Unit{cr: cr}, nil
}
