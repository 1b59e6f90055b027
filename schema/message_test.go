package schema

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/favbox/flow/internal/generic"
)

func TestMessageTemplate(t *testing.T) {
	pyFmtMessage := UserMessage("输入：{question}")
	jinja2Message := UserMessage("输入：{{question}}")
	goTemplateMessage := UserMessage("输入：{{.question}}")
	ctx := context.Background()
	question := "今天天气怎么样"
	expected := []*Message{UserMessage("输入：" + question)}

	ms, err := pyFmtMessage.Format(ctx, map[string]any{"question": question}, FString)
	assert.Nil(t, err)
	assert.True(t, reflect.DeepEqual(expected, ms))
	ms, err = jinja2Message.Format(ctx, map[string]any{"question": question}, Jinja2)
	assert.Nil(t, err)
	assert.True(t, reflect.DeepEqual(expected, ms))
	ms, err = goTemplateMessage.Format(ctx, map[string]any{"question": question}, GoTemplate)
	assert.Nil(t, err)
	assert.True(t, reflect.DeepEqual(expected, ms))

	mp := MessagesPlaceholder("chat_history", false)
	m1 := UserMessage("你好吗？")
	m2 := AssistantMessage("我很好。你呢？", nil)
	ms, err = mp.Format(ctx, map[string]any{"chat_history": []*Message{m1, m2}}, FString)
	assert.Nil(t, err)

	assert.Len(t, ms, 2)
	assert.Equal(t, ms[0], m1)
	assert.Equal(t, ms[1], m2)
}

func TestMessagesPlaceholder(t *testing.T) {
	ctx := context.Background()

	t.Run("必选占位键缺失时报错", func(t *testing.T) {
		mp := MessagesPlaceholder("history", false)
		_, err := mp.Format(ctx, map[string]any{}, FString)
		assert.Error(t, err)
	})

	t.Run("可选占位键缺失时返回空列表", func(t *testing.T) {
		mp := MessagesPlaceholder("history", true)
		ms, err := mp.Format(ctx, map[string]any{}, FString)
		assert.NoError(t, err)
		assert.Len(t, ms, 0)
	})

	t.Run("占位键的值不是消息列表时报错", func(t *testing.T) {
		mp := MessagesPlaceholder("history", false)
		_, err := mp.Format(ctx, map[string]any{"history": "not messages"}, FString)
		assert.Error(t, err)
	})
}

func TestFormatContent(t *testing.T) {
	ctx := context.Background()

	t.Run("go 模板缺键时报错", func(t *testing.T) {
		msg := UserMessage("你好，{{.name}}")
		_, err := msg.Format(ctx, map[string]any{}, GoTemplate)
		assert.Error(t, err)
	})

	t.Run("未知格式类型报错", func(t *testing.T) {
		msg := UserMessage("你好")
		_, err := msg.Format(ctx, map[string]any{}, FormatType(42))
		assert.Error(t, err)
	})

	t.Run("渲染返回副本，原消息不变", func(t *testing.T) {
		msg := UserMessage("你好，{name}")
		ms, err := msg.Format(ctx, map[string]any{"name": "flow"}, FString)
		assert.NoError(t, err)
		assert.Equal(t, "你好，flow", ms[0].Content)
		assert.Equal(t, "你好，{name}", msg.Content)
	})
}

func TestJinjaTemplateSandbox(t *testing.T) {
	ctx := context.Background()

	// 触达文件系统的语句被禁用
	for _, keyword := range []string{
		`{% include "/etc/passwd" %}`,
		`{% extends "base.html" %}`,
		`{% import "macros.html" as m %}`,
		`{% from "macros.html" import x %}`,
	} {
		msg := UserMessage(keyword)
		_, err := msg.Format(ctx, map[string]any{}, Jinja2)
		assert.Error(t, err, keyword)
	}
}

func TestConcatMessages(t *testing.T) {
	t.Run("文本内容按序拼接", func(t *testing.T) {
		msg, err := ConcatMessages([]*Message{
			{Role: Assistant, Content: "你"},
			{Content: "好"},
			{Content: "呀"},
		})
		assert.NoError(t, err)
		assert.Equal(t, Assistant, msg.Role)
		assert.Equal(t, "你好呀", msg.Content)
	})

	t.Run("思考内容与文本内容各自拼接", func(t *testing.T) {
		msg, err := ConcatMessages([]*Message{
			{Role: Assistant, ReasoningContent: "先想", Content: "答"},
			{ReasoningContent: "一想", Content: "案"},
		})
		assert.NoError(t, err)
		assert.Equal(t, "先想一想", msg.ReasoningContent)
		assert.Equal(t, "答案", msg.Content)
	})

	t.Run("角色冲突报错", func(t *testing.T) {
		_, err := ConcatMessages([]*Message{
			{Role: Assistant, Content: "a"},
			{Role: User, Content: "b"},
		})
		assert.Error(t, err)
	})

	t.Run("名称冲突报错", func(t *testing.T) {
		_, err := ConcatMessages([]*Message{
			{Role: Assistant, Name: "a"},
			{Role: Assistant, Name: "b"},
		})
		assert.Error(t, err)
	})

	t.Run("工具调用标识冲突报错", func(t *testing.T) {
		_, err := ConcatMessages([]*Message{
			{Role: Tool, ToolCallID: "a"},
			{Role: Tool, ToolCallID: "b"},
		})
		assert.Error(t, err)
	})

	t.Run("nil 分块报错", func(t *testing.T) {
		_, err := ConcatMessages([]*Message{
			{Role: Assistant, Content: "a"},
			nil,
		})
		assert.Error(t, err)
	})

	t.Run("结束原因保留最后一个非空值", func(t *testing.T) {
		msg, err := ConcatMessages([]*Message{
			{Role: Assistant, Content: "a", ResponseMeta: &ResponseMeta{FinishReason: ""}},
			{Content: "b", ResponseMeta: &ResponseMeta{FinishReason: "stop"}},
			{Content: "c", ResponseMeta: &ResponseMeta{}},
		})
		assert.NoError(t, err)
		assert.Equal(t, "stop", msg.ResponseMeta.FinishReason)
	})

	t.Run("token 用量按最大值聚合", func(t *testing.T) {
		msg, err := ConcatMessages([]*Message{
			{Role: Assistant, ResponseMeta: &ResponseMeta{Usage: &TokenUsage{PromptTokens: 10, CompletionTokens: 1, TotalTokens: 11}}},
			{ResponseMeta: &ResponseMeta{Usage: &TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}},
		})
		assert.NoError(t, err)
		assert.Equal(t, 10, msg.ResponseMeta.Usage.PromptTokens)
		assert.Equal(t, 5, msg.ResponseMeta.Usage.CompletionTokens)
		assert.Equal(t, 15, msg.ResponseMeta.Usage.TotalTokens)
	})

	t.Run("额外信息合并", func(t *testing.T) {
		msg, err := ConcatMessages([]*Message{
			{Role: Assistant, Extra: map[string]any{"a": "1"}},
			{Extra: map[string]any{"b": "23"}},
		})
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"a": "1", "b": "23"}, msg.Extra)
	})
}

func TestConcatToolCalls(t *testing.T) {
	t.Run("相同索引的分块合并为完整调用", func(t *testing.T) {
		expected := &Message{
			Role: Assistant,
			ToolCalls: []ToolCall{
				{
					Index: generic.PtrOf(0),
					ID:    "call_0",
					Type:  "function",
					Function: FunctionCall{
						Name:      "get_weather",
						Arguments: `{"city":"北京"}`,
					},
				},
			},
		}
		msg, err := ConcatMessages([]*Message{
			{Role: Assistant, ToolCalls: []ToolCall{{Index: generic.PtrOf(0), ID: "call_0", Type: "function", Function: FunctionCall{Name: "get_weather"}}}},
			{ToolCalls: []ToolCall{{Index: generic.PtrOf(0), Function: FunctionCall{Arguments: `{"city":`}}}},
			{ToolCalls: []ToolCall{{Index: generic.PtrOf(0), Function: FunctionCall{Arguments: `"北京"}`}}}},
		})
		assert.NoError(t, err)
		assert.EqualValues(t, expected, msg)
	})

	t.Run("不同索引的调用各自合并并按索引排序", func(t *testing.T) {
		msg, err := ConcatMessages([]*Message{
			{Role: Assistant, ToolCalls: []ToolCall{{Index: generic.PtrOf(1), ID: "call_1"}}},
			{ToolCalls: []ToolCall{{Index: generic.PtrOf(0), ID: "call_0"}}},
		})
		assert.NoError(t, err)
		assert.Len(t, msg.ToolCalls, 2)
		assert.Equal(t, "call_0", msg.ToolCalls[0].ID)
		assert.Equal(t, "call_1", msg.ToolCalls[1].ID)
	})

	t.Run("无索引的调用原样保留", func(t *testing.T) {
		msg, err := ConcatMessages([]*Message{
			{Role: Assistant, ToolCalls: []ToolCall{{ID: "call_a", Function: FunctionCall{Name: "f", Arguments: "{}"}}}},
		})
		assert.NoError(t, err)
		assert.Len(t, msg.ToolCalls, 1)
		assert.Equal(t, "call_a", msg.ToolCalls[0].ID)
	})

	t.Run("相同索引出现不同调用标识时报错", func(t *testing.T) {
		_, err := ConcatMessages([]*Message{
			{Role: Assistant, ToolCalls: []ToolCall{{Index: generic.PtrOf(0), ID: "call_0"}}},
			{ToolCalls: []ToolCall{{Index: generic.PtrOf(0), ID: "call_x"}}},
		})
		assert.Error(t, err)
	})
}

func TestConcatMessageStream(t *testing.T) {
	sr := StreamReaderFromArray([]*Message{
		{Role: Assistant, Content: "你好"},
		{Content: "，世界"},
	})

	msg, err := ConcatMessageStream(sr)
	assert.NoError(t, err)
	assert.Equal(t, "你好，世界", msg.Content)
}

func TestMessageFactories(t *testing.T) {
	assert.Equal(t, &Message{Role: System, Content: "s"}, SystemMessage("s"))
	assert.Equal(t, &Message{Role: User, Content: "u"}, UserMessage("u"))
	assert.Equal(t, &Message{Role: Assistant, Content: "a"}, AssistantMessage("a", nil))
	assert.Equal(t,
		&Message{Role: Tool, Content: "ok", ToolCallID: "call_0", ToolName: "search"},
		ToolMessage("ok", "call_0", WithToolName("search")))
}

func TestMessageString(t *testing.T) {
	msg := &Message{
		Role:    Assistant,
		Content: "内容",
		ToolCalls: []ToolCall{
			{Index: generic.PtrOf(0), ID: "call_0", Function: FunctionCall{Name: "f"}},
		},
		ResponseMeta: &ResponseMeta{FinishReason: "stop"},
	}

	s := msg.String()
	assert.Contains(t, s, "assistant: 内容")
	assert.Contains(t, s, "call_0")
	assert.Contains(t, s, "finish_reason: stop")
}
