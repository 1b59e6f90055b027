/*
 * branch.go - 条件分支组合，按声明顺序求值谓词并路由到首个命中的子单元
 *
 * 核心组件：
 *   - BranchCase: 谓词与子单元的配对
 *   - Case: 构造类型化谓词分支项
 *   - Branch: 创建分支组合单元，谓词全部落空时走兜底单元
 *
 * 设计特点：
 *   - 顺序求值: 谓词按声明顺序短路求值，每次执行恰好选中一个子单元
 *   - 谓词失败归属: 谓词返回错误记为分支自身的失败，而非子单元失败
 *   - 流式透传: 选中子单元后直接以其流式路径执行
 */

package compose

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/favbox/flow/internal/generic"
)

// BranchCase 是分支的一个候选项：谓词命中时执行配对的子单元。
type BranchCase struct {
	cond func(ctx context.Context, input any) (bool, error)
	unit *Unit
}

// Case 构造一个类型化的分支候选项。
// 运行期输入断言失败时谓词以 ErrorKindInputValidation 失败。
func Case[I any](cond func(ctx context.Context, input I) (bool, error), u *Unit) BranchCase {
	return BranchCase{
		cond: func(ctx context.Context, input any) (bool, error) {
			in, ok := input.(I)
			if !ok {
				// 无类型 nil 对接口类型需显式还原为该接口的 nil 值。
				if input == nil && generic.TypeOf[I]().Kind() == reflect.Interface {
					var i I
					in = i
				} else {
					return false, newUnexpectedInputTypeErr(generic.TypeOf[I](), reflect.TypeOf(input))
				}
			}
			return cond(ctx, in)
		},
		unit: u,
	}
}

// Branch 创建条件分支单元：按声明顺序求值各候选项的谓词，
// 执行首个命中者；全部落空时执行兜底单元 fallback。
//
// 谓词返回的错误是分支自身的失败，带分支路径向上传播。
// 候选项为空、候选项或兜底单元为 nil，均在构造期以
// ErrorKindConfiguration 拒绝。
//
//	b, err := compose.Branch([]compose.BranchCase{
//		compose.Case(isQuestion, qaUnit),
//		compose.Case(isCommand, execUnit),
//	}, chatUnit)
func Branch(cases []BranchCase, fallback *Unit) (*Unit, error) {
	if len(cases) == 0 {
		return nil, NewError(ErrorKindConfiguration, errors.New("branch needs at least one case"))
	}
	if fallback == nil || fallback.cr == nil {
		return nil, NewError(ErrorKindConfiguration, errors.New("branch needs a fallback unit"))
	}

	for idx, c := range cases {
		if c.cond == nil {
			return nil, NewError(ErrorKindConfiguration, fmt.Errorf("branch case at index %d has no condition", idx))
		}
		if c.unit == nil || c.unit.cr == nil {
			return nil, NewError(ErrorKindConfiguration, fmt.Errorf("branch case at index %d has no unit", idx))
		}
	}

	selectChild := func(ctx context.Context, input any) (*composableRunnable, error) {
		for _, c := range cases {
			hit, err := c.cond(ctx, input)
			if err != nil {
				return nil, err
			}
			if hit {
				return c.unit.cr, nil
			}
		}

		return fallback.cr, nil
	}

	inTypes := make([]reflect.Type, 0, len(cases)+1)
	outTypes := make([]reflect.Type, 0, len(cases)+1)
	for _, c := range cases {
		inTypes = append(inTypes, c.unit.cr.inputType)
		outTypes = append(outTypes, c.unit.cr.outputType)
	}
	inTypes = append(inTypes, fallback.cr.inputType)
	outTypes = append(outTypes, fallback.cr.outputType)

	i := func(ctx context.Context, input any, opts ...Option) (any, error) {
		cr, err := selectChild(ctx, input)
		if err != nil {
			return nil, err
		}
		return cr.i(ctx, input, opts...)
	}

	s := func(ctx context.Context, input any, opts ...Option) (streamReader, error) {
		cr, err := selectChild(ctx, input)
		if err != nil {
			return nil, err
		}
		return cr.s(ctx, input, opts...)
	}

	cr := newComposableRunnable(i, s, nil,
		commonType(inTypes), commonType(outTypes),
		&executorMeta{component: ComponentOfBranch, componentImplType: "Branch"})

	return &Unit{cr: cr}, nil
}
