package safe

import "fmt"

// panicErr 携带 panic 现场信息与捕获时的堆栈。
type panicErr struct {
	info  any
	stack []byte
}

func (p *panicErr) Error() string {
	return fmt.Sprintf("panic error: %v, \nstack: %s", p.info, string(p.stack))
}

// NewPanicErr 将 recover 到的 panic 信息与堆栈包装为 error。
func NewPanicErr(info any, stack []byte) error {
	return &panicErr{
		info:  info,
		stack: stack,
	}
}
