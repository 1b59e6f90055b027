package compose

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrorKind 失败的统一分类。
//
// 所有从单元边界抛出的失败都归入其中一类，
// 调用方通过 ErrorKindOf 判别类别而不是解析错误文本。
type ErrorKind string

const (
	// ErrorKindConfiguration 编排结构非法，构造期即可检出。
	ErrorKindConfiguration ErrorKind = "configuration"
	// ErrorKindInputValidation 输入不满足单元声明的类型或形状。
	ErrorKindInputValidation ErrorKind = "input validation"
	// ErrorKindExecution 业务执行失败，携带底层原因。
	ErrorKindExecution ErrorKind = "execution"
	// ErrorKindTimeout 执行超出上下文的截止时间。
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindCancelled 观察到协作式取消信号。
	ErrorKindCancelled ErrorKind = "cancelled"
	// ErrorKindRecursionLimit 嵌套深度超出执行上下文的递归限制。
	ErrorKindRecursionLimit ErrorKind = "recursion limit exceeded"
	// ErrorKindUnclassified 边界处包装的无法识别的外部失败。
	ErrorKindUnclassified ErrorKind = "unclassified"
)

// Error 携带类别与单元名称路径的框架错误。
//
// path 从最外层单元排到实际出错的单元，
// 随失败向上传播逐层累积，用于多层嵌套下的错误定位。
type Error struct {
	kind  ErrorKind
	path  []string
	cause error
}

// NewError 以指定类别包装一个失败原因。
// 实现外部协作者的单元在需要明确类别时使用。
func NewError(kind ErrorKind, cause error) error {
	return &Error{
		kind:  kind,
		cause: cause,
	}
}

// Kind 返回错误类别。
func (e *Error) Kind() ErrorKind {
	return e.kind
}

// Path 返回从最外层单元到出错单元的名称路径。
func (e *Error) Path() []string {
	return e.path
}

func (e *Error) Error() string {
	sb := strings.Builder{}
	sb.WriteString("[" + string(e.kind) + "] ")
	sb.WriteString(e.cause.Error())

	if len(e.path) > 0 {
		sb.WriteString("\n------------------------\n")
		sb.WriteString("unit path: [")
		sb.WriteString(strings.Join(e.path, ", "))
		sb.WriteString("]")
	}

	return sb.String()
}

// Unwrap 返回原始错误以支持错误链。
func (e *Error) Unwrap() error {
	return e.cause
}

// ErrorKindOf 判别错误的类别。
// 非框架错误返回 false。
func ErrorKindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}

	return "", false
}

// classifyErr 在单元边界将任意失败归入错误分类。
// 已分类的错误原样返回，上下文错误映射到对应类别，
// 其余一律视为业务执行失败。
func classifyErr(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	kind := ErrorKindExecution
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = ErrorKindTimeout
	case errors.Is(err, context.Canceled):
		kind = ErrorKindCancelled
	}

	return &Error{
		kind:  kind,
		cause: err,
	}
}

// wrapUnitError 为失败补上当前单元的名称路径前缀。
// 未分类的失败先归类再补路径，保持调用栈顺序。
func wrapUnitError(name string, err error) error {
	e := classifyErr(err)
	e.path = append([]string{name}, e.path...)
	return e
}

// newUnexpectedInputTypeErr 输入类型检查失败的专用错误。
func newUnexpectedInputTypeErr(expected reflect.Type, got reflect.Type) error {
	return NewError(ErrorKindInputValidation,
		fmt.Errorf("unexpected input type. expected: %v, got: %v", expected, got))
}

// newRecursionLimitErr 嵌套深度超限的专用错误。
func newRecursionLimitErr(depth, limit int) error {
	return NewError(ErrorKindRecursionLimit,
		fmt.Errorf("recursion depth %d exceeds limit %d, a self-referential composition is likely", depth, limit))
}
