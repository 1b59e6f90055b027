package compose

import (
	"errors"
	"fmt"

	"github.com/favbox/flow/internal/generic"
)

// Unit 已构建的可组合执行单元，组合树的节点。
//
// 由 Lambda 工厂、组件适配器或组合构造器产出，构建后不可变，
// 每次调用只产生临时的执行期状态。组合构造器只接受已构建的 Unit
// 作为子单元，组合结果因此只能是树，不会出现环。
//
// Unit 本身不直接执行，经 AsRunnable 绑定输入输出类型后调用。
type Unit struct {
	cr *composableRunnable
}

// Passthrough 创建透传单元，输入原样传递到输出。
// 常用于 Parallel 中保留原始输入的分支。
func Passthrough() *Unit {
	return &Unit{cr: composablePassthrough()}
}

// AsRunnable 把单元绑定为带类型的执行面。
//
// I、O 与单元构建时声明的输入输出类型不兼容时返回 ErrorKindConfiguration；
// 一侧声明为接口（含 any）时在构建期放行，运行期再断言实际值。
//
//	seq, _ := compose.Sequence(tmpl, model, parser)
//	r, err := compose.AsRunnable[map[string]any, string](seq)
//	if err != nil {
//		return err
//	}
//	out, err := r.Invoke(ctx, params)
func AsRunnable[I, O any](u *Unit) (Runnable[I, O], error) {
	if u == nil || u.cr == nil {
		return nil, NewError(ErrorKindConfiguration, errors.New("unit is nil"))
	}

	if checkAssignable(generic.TypeOf[I](), u.cr.inputType) == assignableTypeMustNot {
		return nil, NewError(ErrorKindConfiguration,
			fmt.Errorf("input type mismatch: runnable declares %v, unit expects %v",
				generic.TypeOf[I](), u.cr.inputType))
	}

	if checkAssignable(u.cr.outputType, generic.TypeOf[O]()) == assignableTypeMustNot {
		return nil, NewError(ErrorKindConfiguration,
			fmt.Errorf("output type mismatch: unit produces %v, runnable declares %v",
				u.cr.outputType, generic.TypeOf[O]()))
	}

	return toGenericRunnable[I, O](u.cr), nil
}
