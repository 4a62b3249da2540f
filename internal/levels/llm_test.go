package levels

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/tender-parser/internal/llm"
)

// mockClient 返回固定输出的大模型客户端
type mockClient struct {
	resp string
	err  error
}

func (m *mockClient) Chat(ctx context.Context, systemPrompt, userPrompt string, opts ...llm.ChatOption) (string, error) {
	return m.resp, m.err
}

func (m *mockClient) Name() string { return "mock" }

func TestAnalyzeLLM(t *testing.T) {
	a := newTestAnalyzer()
	titles := []string{"第一章 概述", "一、背景", "二、目标"}

	lv, err := a.AnalyzeLLM(context.Background(), &mockClient{resp: "[1,2,2]"}, titles)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2}, lv)
}

func TestAnalyzeLLMStripsCodeFence(t *testing.T) {
	a := newTestAnalyzer()
	titles := []string{"第一章 概述", "一、背景"}

	lv, err := a.AnalyzeLLM(context.Background(), &mockClient{resp: "```json\n[1, 2]\n```"}, titles)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, lv)
}

func TestAnalyzeLLMClampsAndSmooths(t *testing.T) {
	a := newTestAnalyzer()
	titles := []string{"第一章", "1.1", "1.1.1", "第二章"}

	lv, err := a.AnalyzeLLM(context.Background(), &mockClient{resp: "[1,5,3,0]"}, titles)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 1}, lv)
}

func TestAnalyzeLLMLengthMismatch(t *testing.T) {
	a := newTestAnalyzer()
	titles := []string{"第一章", "第二章", "第三章"}

	_, err := a.AnalyzeLLM(context.Background(), &mockClient{resp: "[1,1]"}, titles)
	require.Error(t, err)
	assert.True(t, llm.IsParseFailure(err))
}

func TestAnalyzeLLMGarbageOutput(t *testing.T) {
	a := newTestAnalyzer()
	titles := []string{"第一章"}

	_, err := a.AnalyzeLLM(context.Background(), &mockClient{resp: "抱歉，我无法判断。"}, titles)
	require.Error(t, err)
	assert.True(t, llm.IsParseFailure(err))
}

func TestAnalyzeLLMNilClient(t *testing.T) {
	a := newTestAnalyzer()

	_, err := a.AnalyzeLLM(context.Background(), nil, []string{"第一章"})
	require.Error(t, err)
	assert.True(t, llm.IsUnavailable(err))
}
