package components

// Component 表示 flow 框架中不同类型的组件类型
type Component string

const (
	// ComponentOfPrompt 提示词模板组件，用于动态生成和格式化提示词
	ComponentOfPrompt Component = "ChatTemplate"
	// ComponentOfChatModel 聊天模型组件，用于对话生成和自然语言处理
	ComponentOfChatModel Component = "ChatModel"
	// ComponentOfRetriever 检索器组件，用于信息检索和相似度搜索
	ComponentOfRetriever Component = "Retriever"
	// ComponentOfLoader 文档加载器组件，用于从各种数据源加载文档
	ComponentOfLoader Component = "Loader"
	// ComponentOfTool 工具组件，用于执行特定的功能操作
	ComponentOfTool Component = "Tool"
)

// Typer 组件类型标识接口，返回组件实现的类型名称。
// 实现该接口的组件在回调与事件中以实现类型名报告自身。
type Typer interface {
	GetType() string
}

// GetType 取出组件实现声明的类型名，未实现 Typer 时返回 false。
func GetType(component any) (string, bool) {
	if typer, ok := component.(Typer); ok {
		return typer.GetType(), true
	}

	return "", false
}

// Checker 回调机制控制接口，用于控制框架的默认切面行为。
// 返回 true 表示组件在自身实现内部上报回调，
// 编排层不再为其注入默认的开始与结束切面。
type Checker interface {
	IsCallbacksEnabled() bool
}

// IsCallbacksEnabled 检查组件实现是否自行上报回调。
func IsCallbacksEnabled(i any) bool {
	if checker, ok := i.(Checker); ok {
		return checker.IsCallbacksEnabled()
	}

	return false
}
