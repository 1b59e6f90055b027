package callbacks

import "github.com/favbox/flow/internal/callbacks"

// RunInfo 回调运行时信息类型别名。
//
// 携带单元执行的名称、组件分类与运行标识链，
// 由编排层在每次单元执行前填充。
type RunInfo = callbacks.RunInfo

// CallbackInput 回调输入类型别名。
//
// 表示单元传递给回调处理器的输入数据，具体类型由组件定义，
// 需要通过类型断言或各组件包的转换函数获取正确的类型。
//
// 例如，components/model 中的 CallbackInput 定义为：
//
//	type CallbackInput struct {
//		Messages []*schema.Message
//		Tools    []*schema.ToolInfo
//		Extra    map[string]any
//	}
//
// 在回调处理器中可以这样取回：
//
//	modelCallbackInput := model.ConvCallbackInput(in)
//	if modelCallbackInput == nil {
//		// 不是模型回调输入，直接忽略
//		return ctx
//	}
type CallbackInput = callbacks.CallbackInput

// CallbackOutput 回调输出类型别名。
//
// 表示单元执行完成后传递给回调处理器的输出数据，与 CallbackInput 配套使用。
type CallbackOutput = callbacks.CallbackOutput

// Handler 回调处理器接口类型别名。
//
// 定义单元执行生命周期中的四个回调时机：开始、值结束、流结束、出错。
type Handler = callbacks.Handler

// AppendGlobalHandlers 追加全局回调处理器。
//
// 全局处理器对所有执行生效，排在通过选项附加的处理器之后执行。
// 此函数不是并发安全的，只应在进程初始化期间调用。
func AppendGlobalHandlers(handlers ...Handler) {
	callbacks.GlobalHandlers = append(callbacks.GlobalHandlers, handlers...)
}

// CallbackTiming 回调时机枚举类型。
type CallbackTiming = callbacks.CallbackTiming

const (
	// TimingOnStart 单元开始执行时机。
	TimingOnStart CallbackTiming = iota
	// TimingOnEnd 单元以值形式结束时机。
	TimingOnEnd
	// TimingOnError 单元执行出错时机。
	TimingOnError
	// TimingOnEndWithStreamOutput 单元以流形式产出时机。
	TimingOnEndWithStreamOutput
)

// TimingChecker 回调时机检查器接口。
//
// 实现该接口的处理器只在自己关心的时机被调用，未实现时各时机都会触达。
// 通过 HandlerBuilder 或 utils/callbacks.NewHandlerHelper 创建的处理器已自动实现。
type TimingChecker = callbacks.TimingChecker
