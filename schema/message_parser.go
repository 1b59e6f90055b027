package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// MessageParser 将消息解析为指定类型的对象。
//
// 使用示例：
//
//	parser := schema.NewMessageJSONParser[MyStruct](&schema.MessageJSONParseConfig{
//		ParseFrom: schema.MessageParseFromContent,
//	})
//	out, err := parser.Parse(ctx, msg)
type MessageParser[T any] interface {
	Parse(ctx context.Context, m *Message) (T, error)
}

// MessageParseFrom 消息解析的数据来源。
type MessageParseFrom string

const (
	// MessageParseFromContent 从消息文本内容解析。
	MessageParseFromContent MessageParseFrom = "content"
	// MessageParseFromToolCall 从首个工具调用的参数解析。
	MessageParseFromToolCall MessageParseFrom = "tool_call"
)

// MessageJSONParseConfig JSON 消息解析配置。
type MessageJSONParseConfig struct {
	// ParseFrom 解析数据来源，默认从消息内容解析。
	ParseFrom MessageParseFrom `json:"parse_from,omitempty"`

	// ParseKeyPath 先按路径提取 JSON 字段再解析，支持嵌套，如 "field.sub_field"。
	ParseKeyPath string `json:"parse_key_path,omitempty"`
}

// NewMessageJSONParser 创建 JSON 消息解析器。
func NewMessageJSONParser[T any](config *MessageJSONParseConfig) MessageParser[T] {
	if config == nil {
		config = &MessageJSONParseConfig{}
	}

	if config.ParseFrom == "" {
		config.ParseFrom = MessageParseFromContent
	}

	return &MessageJSONParser[T]{
		ParseFrom:    config.ParseFrom,
		ParseKeyPath: config.ParseKeyPath,
	}
}

// MessageJSONParser 以 JSON 反序列化实现的消息解析器。
type MessageJSONParser[T any] struct {
	ParseFrom    MessageParseFrom
	ParseKeyPath string
}

// Parse 按配置的数据来源将消息解析为 T。
func (p *MessageJSONParser[T]) Parse(ctx context.Context, m *Message) (parsed T, err error) {
	if p.ParseFrom == MessageParseFromContent {
		return p.parse(m.Content)
	} else if p.ParseFrom == MessageParseFromToolCall {
		if len(m.ToolCalls) == 0 {
			return parsed, fmt.Errorf("no tool call found in message")
		}

		return p.parse(m.ToolCalls[0].Function.Arguments)
	}

	return parsed, fmt.Errorf("unsupported parse from type: %s", p.ParseFrom)
}

func (p *MessageJSONParser[T]) extractData(data string) (string, error) {
	if p.ParseKeyPath == "" {
		return data, nil
	}

	keys := strings.Split(p.ParseKeyPath, ".")

	interfaceKeys := make([]interface{}, len(keys))
	for i, key := range keys {
		interfaceKeys[i] = key
	}

	node, err := sonic.GetFromString(data, interfaceKeys...)
	if err != nil {
		return "", fmt.Errorf("get json node from path failed: %w", err)
	}

	bytes, err := node.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal json node failed: %w", err)
	}

	return string(bytes), nil
}

func (p *MessageJSONParser[T]) parse(data string) (parsed T, err error) {
	parsedData, err := p.extractData(data)
	if err != nil {
		return parsed, err
	}

	if err := sonic.UnmarshalString(parsedData, &parsed); err != nil {
		return parsed, fmt.Errorf("unmarshal json failed: %w", err)
	}

	return parsed, nil
}
