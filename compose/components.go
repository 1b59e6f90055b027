package compose

import (
	"context"
	"errors"
	"reflect"

	"github.com/favbox/flow/components"
	"github.com/favbox/flow/components/document"
	"github.com/favbox/flow/components/model"
	"github.com/favbox/flow/components/prompt"
	"github.com/favbox/flow/components/retriever"
	"github.com/favbox/flow/components/tool"
	"github.com/favbox/flow/internal/generic"
	"github.com/favbox/flow/schema"
)

/*
 * components.go - 组件到执行单元的适配器
 *
 * 把 components 包定义的各类组件包装为可组合的 *Unit：
 *   - ChatTemplateUnit: 提示词模板，map[string]any => []*schema.Message
 *   - ChatModelUnit: 聊天模型，[]*schema.Message => *schema.Message，原生流式
 *   - RetrieverUnit: 检索器，string => []*schema.Document
 *   - ToolUnit: 工具，string => string，按实现接口选择同步或流式
 *   - LoaderUnit: 文档加载器，document.Source => []*schema.Document
 *   - ParserUnit: 消息解析器，*schema.Message => T
 *
 * 适配时从组件实例解析元数据：实现类型名优先取组件自述
 * （components.Typer），否则反射推断；组件声明自行上报回调
 * （components.Checker）时，执行外壳不再派发值回调，避免重复触发。
 * 调用时经 WithChatModelOption 等封装的组件选项，在对应单元的
 * 边界按选项类型提取后传入组件方法。
 */

// ====== 组件元数据解析 ======

// parseExecutorInfoFromComponent 从组件实例解析执行元数据。
func parseExecutorInfoFromComponent(c component, executor any) *executorMeta {
	componentImplType, ok := components.GetType(executor)
	if !ok {
		componentImplType = generic.ParseTypeName(reflect.ValueOf(executor))
	}

	return &executorMeta{
		component:                  c,
		isComponentCallbackEnabled: components.IsCallbacksEnabled(executor),
		componentImplType:          componentImplType,
	}
}

// toComponentUnit 通用组件适配：以组件方法为执行形式构建单元。
func toComponentUnit[I, O, TOption any](node any, componentType component,
	i Invoke[I, O, TOption], s Stream[I, O, TOption]) *Unit {

	meta := parseExecutorInfoFromComponent(componentType, node)

	return &Unit{cr: runnableLambda(i, s, nil, meta)}
}

// ====== 组件适配器 ======

// ChatTemplateUnit 把提示词模板适配为执行单元。
//
// 输入为模板变量，输出为格式化后的消息列表。
// 调用时经 WithChatTemplateOption 传入的选项会被提取并传给模板。
//
//	template := prompt.FromMessages(schema.FString,
//		schema.SystemMessage("你是{role}。"),
//		schema.UserMessage("{query}"),
//	)
//	unit, err := compose.ChatTemplateUnit(template)
func ChatTemplateUnit(t prompt.ChatTemplate) (*Unit, error) {
	if t == nil {
		return nil, NewError(ErrorKindConfiguration, errors.New("chat template is nil"))
	}

	return toComponentUnit[map[string]any, []*schema.Message, prompt.Option](
		t, components.ComponentOfPrompt, t.Format, nil), nil
}

// ChatModelUnit 把聊天模型适配为执行单元。
//
// 输入为消息列表，输出为模型回复。模型的 Stream 接口直接承接
// 单元的流式调用，逐 token 的输出不经折叠即向下游传递。
func ChatModelUnit(m model.BaseChatModel) (*Unit, error) {
	if m == nil {
		return nil, NewError(ErrorKindConfiguration, errors.New("chat model is nil"))
	}

	return toComponentUnit[[]*schema.Message, *schema.Message, model.Option](
		m, components.ComponentOfChatModel, m.Generate, m.Stream), nil
}

// RetrieverUnit 把检索器适配为执行单元。
//
// 输入为查询字符串，输出为按相关性排序的文档列表。
func RetrieverUnit(r retriever.Retriever) (*Unit, error) {
	if r == nil {
		return nil, NewError(ErrorKindConfiguration, errors.New("retriever is nil"))
	}

	return toComponentUnit[string, []*schema.Document, retriever.Option](
		r, components.ComponentOfRetriever, r.Retrieve, nil), nil
}

// ToolUnit 把工具适配为执行单元。
//
// 输入为 JSON 格式的工具参数，输出为工具响应。
// 工具实现 InvokableTool 时承接同步调用，实现 StreamableTool 时
// 承接流式调用，两者都实现时各自直接承接；缺失的形式由框架派生。
// 两者都未实现时返回 ErrorKindConfiguration。
func ToolUnit(t tool.BaseTool) (*Unit, error) {
	if t == nil {
		return nil, NewError(ErrorKindConfiguration, errors.New("tool is nil"))
	}

	var (
		i Invoke[string, string, tool.Option]
		s Stream[string, string, tool.Option]
	)

	if it, ok := t.(tool.InvokableTool); ok {
		i = it.InvokableRun
	}
	if st, ok := t.(tool.StreamableTool); ok {
		s = st.StreamableRun
	}

	if i == nil && s == nil {
		return nil, NewError(ErrorKindConfiguration,
			errors.New("tool implements neither InvokableTool nor StreamableTool"))
	}

	meta := parseExecutorInfoFromComponent(components.ComponentOfTool, t)

	return &Unit{cr: runnableLambda(i, s, nil, meta)}, nil
}

// LoaderUnit 把文档加载器适配为执行单元。
//
// 输入为文档来源，输出为加载出的文档列表。
func LoaderUnit(l document.Loader) (*Unit, error) {
	if l == nil {
		return nil, NewError(ErrorKindConfiguration, errors.New("loader is nil"))
	}

	return toComponentUnit[document.Source, []*schema.Document, document.LoaderOption](
		l, components.ComponentOfLoader, l.Load, nil), nil
}

// ParserUnit 把消息解析器适配为执行单元。
//
// 输入为单条消息，输出为解析出的结构化对象。
// 常接在聊天模型之后，把模型回复解析为业务类型。
//
//	parser := schema.NewMessageJSONParser[MyStruct](&schema.MessageJSONParseConfig{
//		ParseFrom: schema.MessageParseFromContent,
//	})
//	unit, err := compose.ParserUnit(parser)
func ParserUnit[T any](p schema.MessageParser[T]) (*Unit, error) {
	if p == nil {
		return nil, NewError(ErrorKindConfiguration, errors.New("message parser is nil"))
	}

	i := func(ctx context.Context, input *schema.Message, opts_ ...unreachableOption) (output T, err error) {
		return p.Parse(ctx, input)
	}

	meta := &executorMeta{
		component:         ComponentOfLambda,
		componentImplType: "MessageParser",
	}

	return &Unit{cr: runnableLambda(i, nil, nil, meta)}, nil
}
