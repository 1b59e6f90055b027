package schema

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/nikolalohinski/gonja"
	"github.com/nikolalohinski/gonja/config"
	"github.com/nikolalohinski/gonja/nodes"
	"github.com/nikolalohinski/gonja/parser"
	"github.com/slongfield/pyfmt"

	"github.com/favbox/flow/internal"
	"github.com/favbox/flow/internal/gmap"
)

func init() {
	internal.RegisterStreamChunkConcatFunc(ConcatMessages)
}

// FormatType 消息模板的格式化类型。
type FormatType uint8

const (
	// FString Python 风格的字符串格式化 (PEP-3101)，由 pyfmt 库实现。
	FString FormatType = 0
	// GoTemplate Go 标准库的 text/template 格式化。
	GoTemplate FormatType = 1
	// Jinja2 Jinja2 模板格式化，由 gonja 库实现。
	Jinja2 FormatType = 2
)

// RoleType 消息角色类型。
type RoleType string

const (
	// Assistant 助手角色，表示消息由聊天模型返回。
	Assistant RoleType = "assistant"
	// User 用户角色，表示消息来自用户输入。
	User RoleType = "user"
	// System 系统角色，表示消息为系统消息。
	System RoleType = "system"
	// Tool 工具角色，表示消息为工具调用输出。
	Tool RoleType = "tool"
)

// FunctionCall 消息中的函数调用信息。
type FunctionCall struct {
	// Name 函数名称。
	Name string `json:"name,omitempty"`
	// Arguments 函数参数，JSON 格式字符串。
	Arguments string `json:"arguments,omitempty"`
}

// ToolCall 消息中的工具调用信息，用于 Assistant 消息需要调用工具的场景。
type ToolCall struct {
	// Index 工具调用索引，流式模式下用于标识分块以便合并。
	Index *int `json:"index,omitempty"`
	// ID 工具调用的唯一标识符。
	ID string `json:"id"`
	// Type 工具调用类型，默认为 "function"。
	Type string `json:"type"`
	// Function 要调用的函数信息。
	Function FunctionCall `json:"function"`

	// Extra 额外信息存储。
	Extra map[string]any `json:"extra,omitempty"`
}

// ResponseMeta 聊天响应的元信息。
type ResponseMeta struct {
	// FinishReason 响应结束原因。
	// 通常为 "stop"、"length"、"tool_calls" 等，具体由模型实现定义。
	FinishReason string `json:"finish_reason,omitempty"`
	// Usage token 使用情况，是否存在取决于模型实现是否返回。
	Usage *TokenUsage `json:"usage,omitempty"`
}

// Message 消息结构体，承载模型的输入与输出。
//
// 用户输入示例：
//
//	&schema.Message{
//		Role:    schema.User,
//		Content: "法国的首都是什么？",
//	}
type Message struct {
	// Role 消息角色。
	Role RoleType `json:"role"`

	// Content 文本内容。
	Content string `json:"content"`

	// Name 消息名称。
	Name string `json:"name,omitempty"`

	// ToolCalls 工具调用列表（仅用于 Assistant 消息）。
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID 工具调用 ID（仅用于 Tool 消息）。
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolName 工具名称（仅用于 Tool 消息）。
	ToolName string `json:"tool_name,omitempty"`

	// ResponseMeta 响应元信息。
	ResponseMeta *ResponseMeta `json:"response_meta,omitempty"`

	// ReasoningContent 模型的思考过程，模型返回推理内容时存在。
	ReasoningContent string `json:"reasoning_content,omitempty"`

	// Extra 模型实现的自定义信息。
	Extra map[string]any `json:"extra,omitempty"`
}

// TokenUsage 聊天模型请求的 token 使用情况。
type TokenUsage struct {
	// PromptTokens 提示 token 数量。
	PromptTokens int `json:"prompt_tokens"`
	// CompletionTokens 补全 token 数量。
	CompletionTokens int `json:"completion_tokens"`
	// TotalTokens 总 token 数量。
	TotalTokens int `json:"total_tokens"`
}

var _ MessagesTemplate = &Message{}
var _ MessagesTemplate = MessagesPlaceholder("", false)

// MessagesTemplate 消息模板接口，将模板渲染为消息列表。
//
// 使用示例：
//
//	chatTemplate := prompt.FromMessages(schema.FString,
//		schema.SystemMessage("you are a helpful assistant"),
//		schema.MessagesPlaceholder("history", false), // 使用 params 中的 "history" 值
//	)
//	msgs, err := chatTemplate.Format(ctx, params)
type MessagesTemplate interface {
	Format(ctx context.Context, vs map[string]any, formatType FormatType) ([]*Message, error)
}

// messagesPlaceholder 消息占位符实现。
type messagesPlaceholder struct {
	key      string
	optional bool
}

// MessagesPlaceholder 创建消息占位符，渲染时直接取参数中 key 对应的消息列表。
// optional 为 false 且参数缺失时渲染报错。
func MessagesPlaceholder(key string, optional bool) MessagesTemplate {
	return &messagesPlaceholder{
		key:      key,
		optional: optional,
	}
}

// Format 返回参数中占位键对应的消息列表。
func (p *messagesPlaceholder) Format(_ context.Context, vs map[string]any, _ FormatType) ([]*Message, error) {
	v, ok := vs[p.key]
	if !ok {
		if p.optional {
			return []*Message{}, nil
		}

		return nil, fmt.Errorf("message placeholder format: %s not found", p.key)
	}

	msgs, ok := v.([]*Message)
	if !ok {
		return nil, fmt.Errorf("only messages can be used to format message placeholder, key: %v, actual type: %v", p.key, reflect.TypeOf(v))
	}

	return msgs, nil
}

// formatContent 根据格式化类型渲染内容字符串。
func formatContent(content string, vs map[string]any, formatType FormatType) (string, error) {
	switch formatType {
	case FString:
		return pyfmt.Fmt(content, vs)
	case GoTemplate:
		parsedTmpl, err := template.New("template").
			Option("missingkey=error").
			Parse(content)
		if err != nil {
			return "", err
		}
		sb := new(strings.Builder)
		err = parsedTmpl.Execute(sb, vs)
		if err != nil {
			return "", err
		}
		return sb.String(), nil
	case Jinja2:
		env, err := getJinjaEnv()
		if err != nil {
			return "", err
		}
		tpl, err := env.FromString(content)
		if err != nil {
			return "", err
		}
		out, err := tpl.Execute(vs)
		if err != nil {
			return "", err
		}
		return out, nil
	default:
		return "", fmt.Errorf("unknown format type: %v", formatType)
	}
}

// Format 按指定格式类型渲染消息内容并返回渲染后的消息。
//
// 使用示例：
//
//	msg := schema.UserMessage("hello world, {name}")
//	msgs, err := msg.Format(ctx, map[string]any{"name": "flow"}, schema.FString)
//	// msgs[0].Content 为 "hello world, flow"
func (m *Message) Format(_ context.Context, vs map[string]any, formatType FormatType) ([]*Message, error) {
	c, err := formatContent(m.Content, vs, formatType)
	if err != nil {
		return nil, err
	}
	copied := *m
	copied.Content = c

	return []*Message{&copied}, nil
}

func (m *Message) String() string {
	sb := &strings.Builder{}
	sb.WriteString(fmt.Sprintf("%s: %s", m.Role, m.Content))
	if len(m.ReasoningContent) > 0 {
		sb.WriteString("\nreasoning content:\n")
		sb.WriteString(m.ReasoningContent)
	}
	if len(m.ToolCalls) > 0 {
		sb.WriteString("\ntool_calls:\n")
		for _, tc := range m.ToolCalls {
			if tc.Index != nil {
				sb.WriteString(fmt.Sprintf("index[%d]:", *tc.Index))
			}
			sb.WriteString(fmt.Sprintf("%+v\n", tc))
		}
	}
	if m.ToolCallID != "" {
		sb.WriteString(fmt.Sprintf("\ntool_call_id: %s", m.ToolCallID))
	}
	if m.ToolName != "" {
		sb.WriteString(fmt.Sprintf("\ntool_call_name: %s", m.ToolName))
	}
	if m.ResponseMeta != nil {
		sb.WriteString(fmt.Sprintf("\nfinish_reason: %s", m.ResponseMeta.FinishReason))
		if m.ResponseMeta.Usage != nil {
			sb.WriteString(fmt.Sprintf("\nusage: %v", m.ResponseMeta.Usage))
		}
	}

	return sb.String()
}

// SystemMessage 创建系统消息。
func SystemMessage(content string) *Message {
	return &Message{
		Role:    System,
		Content: content,
	}
}

// AssistantMessage 创建助手消息。
func AssistantMessage(content string, toolCalls []ToolCall) *Message {
	return &Message{
		Role:      Assistant,
		Content:   content,
		ToolCalls: toolCalls,
	}
}

// UserMessage 创建用户消息。
func UserMessage(content string) *Message {
	return &Message{
		Role:    User,
		Content: content,
	}
}

type toolMessageOptions struct {
	toolName string
}

// ToolMessageOption 工具消息选项函数类型。
type ToolMessageOption func(*toolMessageOptions)

// WithToolName 设置工具调用名称。
func WithToolName(name string) ToolMessageOption {
	return func(o *toolMessageOptions) {
		o.toolName = name
	}
}

// ToolMessage 创建工具消息。
func ToolMessage(content string, toolCallID string, opts ...ToolMessageOption) *Message {
	o := &toolMessageOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return &Message{
		Role:       Tool,
		Content:    content,
		ToolCallID: toolCallID,
		ToolName:   o.toolName,
	}
}

// concatToolCalls 按 Index 合并同一工具调用的多个分块。
// ID、Type、Name 在各分块中只应出现一个取值，Arguments 按序拼接。
func concatToolCalls(chunks []ToolCall) ([]ToolCall, error) {
	var merged []ToolCall
	m := make(map[int][]int)
	for i := range chunks {
		index := chunks[i].Index
		if index == nil {
			merged = append(merged, chunks[i])
		} else {
			m[*index] = append(m[*index], i)
		}
	}

	var args strings.Builder
	for k, v := range m {
		index := k
		toolCall := ToolCall{Index: &index}
		if len(v) > 0 {
			toolCall = chunks[v[0]]
		}

		args.Reset()
		toolID, toolType, toolName := "", "", ""

		for _, n := range v {
			chunk := chunks[n]
			if chunk.ID != "" {
				if toolID == "" {
					toolID = chunk.ID
				} else if toolID != chunk.ID {
					return nil, fmt.Errorf("cannot concat ToolCalls with different tool id: '%s' '%s'", toolID, chunk.ID)
				}
			}

			if chunk.Type != "" {
				if toolType == "" {
					toolType = chunk.Type
				} else if toolType != chunk.Type {
					return nil, fmt.Errorf("cannot concat ToolCalls with different tool type: '%s' '%s'", toolType, chunk.Type)
				}
			}

			if chunk.Function.Name != "" {
				if toolName == "" {
					toolName = chunk.Function.Name
				} else if toolName != chunk.Function.Name {
					return nil, fmt.Errorf("cannot concat ToolCalls with different tool name: '%s' '%s'", toolName, chunk.Function.Name)
				}
			}

			if chunk.Function.Arguments != "" {
				_, err := args.WriteString(chunk.Function.Arguments)
				if err != nil {
					return nil, err
				}
			}
		}

		toolCall.ID = toolID
		toolCall.Type = toolType
		toolCall.Function.Name = toolName
		toolCall.Function.Arguments = args.String()

		merged = append(merged, toolCall)
	}

	if len(merged) > 1 {
		sort.SliceStable(merged, func(i, j int) bool {
			iVal, jVal := merged[i].Index, merged[j].Index
			if iVal == nil && jVal == nil {
				return false
			} else if iVal == nil && jVal != nil {
				return true
			} else if iVal != nil && jVal == nil {
				return false
			}

			return *iVal < *jVal
		})
	}

	return merged, nil
}

func concatExtra(extraList []map[string]any) (map[string]any, error) {
	if len(extraList) == 1 {
		return gmap.Clone(extraList[0]), nil
	}

	return internal.ConcatItems(extraList)
}

// ConcatMessages 合并流式产生的消息分块。
// 要求各分块的角色、名称、工具调用 ID 一致，文本内容按序拼接，
// 相同索引的工具调用分块合并为完整调用。
//
// 使用示例：
//
//	msgs := []*Message{}
//	for {
//		msg, err := stream.Recv()
//		if errors.Is(err, io.EOF) {
//			break
//		}
//		if err != nil {...}
//		msgs = append(msgs, msg)
//	}
//	concated, err := ConcatMessages(msgs) // concated.Content 为完整内容
func ConcatMessages(msgs []*Message) (*Message, error) {
	var (
		contents            []string
		contentLen          int
		reasoningContents   []string
		reasoningContentLen int
		toolCalls           []ToolCall
		ret                 = Message{}
		extraList           = make([]map[string]any, 0, len(msgs))
	)

	for idx, msg := range msgs {
		if msg == nil {
			return nil, fmt.Errorf("unexpected nil chunk in message stream, index: %d", idx)
		}

		if msg.Role != "" {
			if ret.Role == "" {
				ret.Role = msg.Role
			} else if ret.Role != msg.Role {
				return nil, fmt.Errorf("cannot concat messages with "+
					"different roles: '%s' '%s'", ret.Role, msg.Role)
			}
		}

		if msg.Name != "" {
			if ret.Name == "" {
				ret.Name = msg.Name
			} else if ret.Name != msg.Name {
				return nil, fmt.Errorf("cannot concat messages with"+
					" different names: '%s' '%s'", ret.Name, msg.Name)
			}
		}

		if msg.ToolCallID != "" {
			if ret.ToolCallID == "" {
				ret.ToolCallID = msg.ToolCallID
			} else if ret.ToolCallID != msg.ToolCallID {
				return nil, fmt.Errorf("cannot concat messages with"+
					" different toolCallIDs: '%s' '%s'", ret.ToolCallID, msg.ToolCallID)
			}
		}
		if msg.ToolName != "" {
			if ret.ToolName == "" {
				ret.ToolName = msg.ToolName
			} else if ret.ToolName != msg.ToolName {
				return nil, fmt.Errorf("cannot concat messages with"+
					" different toolNames: '%s' '%s'", ret.ToolName, msg.ToolName)
			}
		}

		if msg.Content != "" {
			contents = append(contents, msg.Content)
			contentLen += len(msg.Content)
		}
		if msg.ReasoningContent != "" {
			reasoningContents = append(reasoningContents, msg.ReasoningContent)
			reasoningContentLen += len(msg.ReasoningContent)
		}

		if len(msg.ToolCalls) > 0 {
			toolCalls = append(toolCalls, msg.ToolCalls...)
		}

		if len(msg.Extra) > 0 {
			extraList = append(extraList, msg.Extra)
		}

		if msg.ResponseMeta != nil && ret.ResponseMeta == nil {
			ret.ResponseMeta = &ResponseMeta{}
		}

		if msg.ResponseMeta != nil && ret.ResponseMeta != nil {
			// FinishReason 保留最后一个非空值。
			if msg.ResponseMeta.FinishReason != "" {
				ret.ResponseMeta.FinishReason = msg.ResponseMeta.FinishReason
			}

			if msg.ResponseMeta.Usage != nil {
				if ret.ResponseMeta.Usage == nil {
					ret.ResponseMeta.Usage = &TokenUsage{}
				}

				if msg.ResponseMeta.Usage.PromptTokens > ret.ResponseMeta.Usage.PromptTokens {
					ret.ResponseMeta.Usage.PromptTokens = msg.ResponseMeta.Usage.PromptTokens
				}
				if msg.ResponseMeta.Usage.CompletionTokens > ret.ResponseMeta.Usage.CompletionTokens {
					ret.ResponseMeta.Usage.CompletionTokens = msg.ResponseMeta.Usage.CompletionTokens
				}

				if msg.ResponseMeta.Usage.TotalTokens > ret.ResponseMeta.Usage.TotalTokens {
					ret.ResponseMeta.Usage.TotalTokens = msg.ResponseMeta.Usage.TotalTokens
				}
			}
		}
	}

	if len(contents) > 0 {
		var sb strings.Builder
		sb.Grow(contentLen)
		for _, content := range contents {
			_, err := sb.WriteString(content)
			if err != nil {
				return nil, err
			}
		}

		ret.Content = sb.String()
	}
	if len(reasoningContents) > 0 {
		var sb strings.Builder
		sb.Grow(reasoningContentLen)
		for _, rc := range reasoningContents {
			_, err := sb.WriteString(rc)
			if err != nil {
				return nil, err
			}
		}

		ret.ReasoningContent = sb.String()
	}

	if len(toolCalls) > 0 {
		merged, err := concatToolCalls(toolCalls)
		if err != nil {
			return nil, err
		}

		ret.ToolCalls = merged
	}

	if len(extraList) > 0 {
		extra, err := concatExtra(extraList)
		if err != nil {
			return nil, fmt.Errorf("failed to concat message's extra: %w", err)
		}

		if len(extra) > 0 {
			ret.Extra = extra
		}
	}

	return &ret, nil
}

// ConcatMessageStream 读完整个消息流并合并为单个消息，读取器由本函数关闭。
func ConcatMessageStream(s *StreamReader[*Message]) (*Message, error) {
	defer s.Close()

	var msgs []*Message
	for {
		msg, err := s.Recv()
		if err != nil {
			if err == io.EOF {
				break
			}

			return nil, err
		}

		msgs = append(msgs, msg)
	}

	return ConcatMessages(msgs)
}

var jinjaEnvOnce sync.Once

var jinjaEnv *gonja.Environment

var envInitErr error

const (
	jinjaInclude = "include"
	jinjaExtends = "extends"
	jinjaImport  = "import"
	jinjaFrom    = "from"
)

// getJinjaEnv 返回禁用了 include、extends、import、from 语句的 jinja 环境。
// 模板内容可能来自外部输入，这些语句会触达本地文件系统。
func getJinjaEnv() (*gonja.Environment, error) {
	jinjaEnvOnce.Do(func() {
		jinjaEnv = gonja.NewEnvironment(config.DefaultConfig, gonja.DefaultLoader)
		formatInitError := "init jinja env fail: %w"
		var err error
		if jinjaEnv.Statements.Exists(jinjaInclude) {
			err = jinjaEnv.Statements.Replace(jinjaInclude, func(parser *parser.Parser, args *parser.Parser) (nodes.Statement, error) {
				return nil, fmt.Errorf("keyword[include] has been disabled")
			})
			if err != nil {
				envInitErr = fmt.Errorf(formatInitError, err)
				return
			}
		}
		if jinjaEnv.Statements.Exists(jinjaExtends) {
			err = jinjaEnv.Statements.Replace(jinjaExtends, func(parser *parser.Parser, args *parser.Parser) (nodes.Statement, error) {
				return nil, fmt.Errorf("keyword[extends] has been disabled")
			})
			if err != nil {
				envInitErr = fmt.Errorf(formatInitError, err)
				return
			}
		}
		if jinjaEnv.Statements.Exists(jinjaFrom) {
			err = jinjaEnv.Statements.Replace(jinjaFrom, func(parser *parser.Parser, args *parser.Parser) (nodes.Statement, error) {
				return nil, fmt.Errorf("keyword[from] has been disabled")
			})
			if err != nil {
				envInitErr = fmt.Errorf(formatInitError, err)
				return
			}
		}
		if jinjaEnv.Statements.Exists(jinjaImport) {
			err = jinjaEnv.Statements.Replace(jinjaImport, func(parser *parser.Parser, args *parser.Parser) (nodes.Statement, error) {
				return nil, fmt.Errorf("keyword[import] has been disabled")
			})
			if err != nil {
				envInitErr = fmt.Errorf(formatInitError, err)
				return
			}
		}
	})
	return jinjaEnv, envInitErr
}
