package callbacks

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/favbox/flow/callbacks"
	"github.com/favbox/flow/components/model"
	"github.com/favbox/flow/components/retriever"
	"github.com/favbox/flow/compose"
	"github.com/favbox/flow/schema"
)

// ====== 测试用组件实现 ======

type stubChatModel struct{}

func (m *stubChatModel) Generate(ctx context.Context, input []*schema.Message,
	opts ...model.Option) (*schema.Message, error) {

	return schema.AssistantMessage("pong", nil), nil
}

func (m *stubChatModel) Stream(ctx context.Context, input []*schema.Message,
	opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {

	return schema.StreamReaderFromArray([]*schema.Message{
		schema.AssistantMessage("po", nil),
		schema.AssistantMessage("ng", nil),
	}), nil
}

type stubRetriever struct {
	docs []*schema.Document
	err  error
}

func (r *stubRetriever) Retrieve(ctx context.Context, query string,
	opts ...retriever.Option) ([]*schema.Document, error) {

	if r.err != nil {
		return nil, r.err
	}

	return r.docs, nil
}

// ====== 用例 ======

func TestHandlerHelperTypedDispatch(t *testing.T) {
	ctx := context.Background()

	var (
		modelStarts int
		gotPrompt   string
		gotReply    string
		gotQuery    string
		gotDocs     int
	)

	handler := NewHandlerHelper().
		ChatModel(&ModelCallbackHandler{
			OnStart: func(ctx context.Context, info *callbacks.RunInfo, input *model.CallbackInput) context.Context {
				modelStarts++
				if len(input.Messages) > 0 {
					gotPrompt = input.Messages[0].Content
				}
				return ctx
			},
			OnEnd: func(ctx context.Context, info *callbacks.RunInfo, output *model.CallbackOutput) context.Context {
				gotReply = output.Message.Content
				return ctx
			},
		}).
		Retriever(&RetrieverCallbackHandler{
			OnStart: func(ctx context.Context, info *callbacks.RunInfo, input *retriever.CallbackInput) context.Context {
				gotQuery = input.Query
				return ctx
			},
			OnEnd: func(ctx context.Context, info *callbacks.RunInfo, output *retriever.CallbackOutput) context.Context {
				gotDocs = len(output.Docs)
				return ctx
			},
		}).
		Handler()

	mu, err := compose.ChatModelUnit(&stubChatModel{})
	assert.NoError(t, err)

	rModel, err := compose.AsRunnable[[]*schema.Message, *schema.Message](mu)
	assert.NoError(t, err)

	out, err := rModel.Invoke(ctx, []*schema.Message{schema.UserMessage("ping")},
		compose.WithCallbacks(handler))
	assert.NoError(t, err)
	assert.Equal(t, "pong", out.Content)
	assert.Equal(t, 1, modelStarts)
	assert.Equal(t, "ping", gotPrompt)
	assert.Equal(t, "pong", gotReply)

	ru, err := compose.RetrieverUnit(&stubRetriever{docs: []*schema.Document{
		{ID: "1", Content: "序章"},
		{ID: "2", Content: "终章"},
	}})
	assert.NoError(t, err)

	rRetr, err := compose.AsRunnable[string, []*schema.Document](ru)
	assert.NoError(t, err)

	_, err = rRetr.Invoke(ctx, "故事结构", compose.WithCallbacks(handler))
	assert.NoError(t, err)
	assert.Equal(t, "故事结构", gotQuery)
	assert.Equal(t, 2, gotDocs)
}

func TestHandlerHelperStreamDispatch(t *testing.T) {
	ctx := context.Background()

	var streamed []string
	handler := NewHandlerHelper().
		ChatModel(&ModelCallbackHandler{
			OnEndWithStreamOutput: func(ctx context.Context, info *callbacks.RunInfo,
				output *schema.StreamReader[*model.CallbackOutput]) context.Context {

				defer output.Close()
				for {
					chunk, e := output.Recv()
					if e != nil {
						break
					}
					streamed = append(streamed, chunk.Message.Content)
				}
				return ctx
			},
		}).
		Handler()

	mu, err := compose.ChatModelUnit(&stubChatModel{})
	assert.NoError(t, err)

	r, err := compose.AsRunnable[[]*schema.Message, *schema.Message](mu)
	assert.NoError(t, err)

	sr, err := r.Stream(ctx, []*schema.Message{schema.UserMessage("ping")},
		compose.WithCallbacks(handler))
	assert.NoError(t, err)
	defer sr.Close()

	var contents []string
	for {
		chunk, e := sr.Recv()
		if e == io.EOF {
			break
		}
		assert.NoError(t, e)
		contents = append(contents, chunk.Content)
	}

	// 回调持有独立的流副本，主流不受影响
	assert.Equal(t, []string{"po", "ng"}, contents)
	assert.Equal(t, []string{"po", "ng"}, streamed)
}

func TestHandlerHelperComposites(t *testing.T) {
	ctx := context.Background()

	var trace []string
	seqHandler := callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
			trace = append(trace, "start:"+info.Name)
			return ctx
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
			trace = append(trace, "end:"+info.Name)
			return ctx
		}).
		Build()

	handler := NewHandlerHelper().Sequence(seqHandler).Handler()

	trim := compose.InvokableLambda(func(ctx context.Context, input string) (string, error) {
		return input, nil
	})
	upper := compose.InvokableLambda(func(ctx context.Context, input string) (string, error) {
		return input + "!", nil
	})

	seq, err := compose.Sequence(trim, upper)
	assert.NoError(t, err)

	r, err := compose.AsRunnable[string, string](seq)
	assert.NoError(t, err)

	_, err = r.Invoke(ctx, "q", compose.WithCallbacks(handler))
	assert.NoError(t, err)

	// 只配置了顺序组合的处理器，Lambda 子单元不触达
	assert.Equal(t, []string{"start:Sequence", "end:Sequence"}, trace)
}

func TestHandlerHelperSelectiveGating(t *testing.T) {
	ctx := context.Background()

	var retrieverTouched bool
	handler := NewHandlerHelper().
		Retriever(&RetrieverCallbackHandler{
			OnStart: func(ctx context.Context, info *callbacks.RunInfo, input *retriever.CallbackInput) context.Context {
				retrieverTouched = true
				return ctx
			},
		}).
		Handler()

	// 模型单元没有对应处理器，回调被整体跳过
	mu, err := compose.ChatModelUnit(&stubChatModel{})
	assert.NoError(t, err)

	r, err := compose.AsRunnable[[]*schema.Message, *schema.Message](mu)
	assert.NoError(t, err)

	out, err := r.Invoke(ctx, []*schema.Message{schema.UserMessage("ping")},
		compose.WithCallbacks(handler))
	assert.NoError(t, err)
	assert.Equal(t, "pong", out.Content)
	assert.False(t, retrieverTouched)
}

func TestHandlerHelperError(t *testing.T) {
	ctx := context.Background()

	boom := errors.New("index offline")

	var gotErr error
	handler := NewHandlerHelper().
		Retriever(&RetrieverCallbackHandler{
			OnError: func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
				gotErr = err
				return ctx
			},
		}).
		Handler()

	ru, err := compose.RetrieverUnit(&stubRetriever{err: boom})
	assert.NoError(t, err)

	r, err := compose.AsRunnable[string, []*schema.Document](ru)
	assert.NoError(t, err)

	_, err = r.Invoke(ctx, "q", compose.WithCallbacks(handler))
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, gotErr, boom)
	kind, ok := compose.ErrorKindOf(gotErr)
	assert.True(t, ok)
	assert.Equal(t, compose.ErrorKindExecution, kind)
}
