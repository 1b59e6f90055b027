package compose

import "github.com/favbox/flow/components"

// component 组件类型别名，标识单元的原始可执行对象类型。
type component = components.Component

const (
	// ComponentOfUnknown 未知或未分类的组件类型。
	ComponentOfUnknown component = "Unknown"

	// ComponentOfSequence 顺序组合单元，子单元依次串联执行。
	ComponentOfSequence component = "Sequence"

	// ComponentOfParallel 并行组合单元，命名子单元并发执行同一输入。
	ComponentOfParallel component = "Parallel"

	// ComponentOfBranch 分支组合单元，按谓词选择一个子单元执行。
	ComponentOfBranch component = "Branch"

	// ComponentOfRetry 重试包装单元，失败后按退避策略重新执行。
	ComponentOfRetry component = "Retry"

	// ComponentOfFallback 回退包装单元，失败后依次尝试备选单元。
	ComponentOfFallback component = "Fallback"

	// ComponentOfBatch 批量执行单元，受限并发地处理一批输入。
	ComponentOfBatch component = "Batch"

	// ComponentOfPassthrough 透传单元，输入数据直接传递给输出。
	ComponentOfPassthrough component = "Passthrough"

	// ComponentOfLambda Lambda 函数单元，用户自定义的匿名函数或闭包。
	ComponentOfLambda component = "Lambda"
)
