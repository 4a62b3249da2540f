package levels

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyerfyer/tender-parser/internal/llm"
)

// 层级分析的系统提示词
// 要求模型只输出JSON数组，便于宽容解析
const levelSystemPrompt = `你是招标文件结构分析助手。用户给出一份编号的章节标题列表，请判断每个标题在文档中的层级。
规则：
1. 层级只能是1、2、3，1为最高层级（如"第一章"）。
2. 保持标题原始顺序。
3. 只输出一个JSON数组，长度与标题数量一致，例如 [1,2,2,1,3]。
4. 不要输出任何解释或其他文字。`

// AnalyzeLLM 大模型辅助层级分析
// 输出解析失败或长度不足时返回ErrCodeParseFailure，调用方应回退到统计策略
func (a *Analyzer) AnalyzeLLM(ctx context.Context, client llm.Client, titles []string) ([]int, error) {
	if client == nil {
		return nil, llm.NewLLMError(llm.ErrCodeUnavailable, llm.ErrMsgUnavailable)
	}
	if len(titles) == 0 {
		return nil, nil
	}

	sendTitles := titles
	if len(sendTitles) > a.cfg.LLMMaxTitles {
		sendTitles = sendTitles[:a.cfg.LLMMaxTitles]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "共%d个标题：\n", len(sendTitles))
	for i, t := range sendTitles {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, t)
	}

	resp, err := client.Chat(ctx, levelSystemPrompt, sb.String(),
		llm.WithJSONMode(true),
		llm.WithChatTemperature(0.1))
	if err != nil {
		return nil, err
	}

	parsed, err := extractIntArray(resp)
	if err != nil {
		return nil, err
	}

	n := len(sendTitles)
	if len(parsed) > n {
		// 模型多输出的尾部直接截断
		parsed = parsed[:n]
	}
	if len(parsed) < n {
		a.logger.WithField("want", n).WithField("got", len(parsed)).
			Warn("llm level array length mismatch, falling back")
		return nil, llm.NewLLMError(llm.ErrCodeParseFailure,
			fmt.Sprintf("level array length mismatch: want %d, got %d", n, len(parsed)))
	}

	for i := range parsed {
		parsed[i] = a.clamp(parsed[i])
	}
	levels := a.Smooth(parsed)

	// 截断送入时，余下标题按统计策略补齐
	if len(titles) > n {
		rest := a.Analyze(titles[n:])
		levels = append(levels, rest...)
	}
	return levels, nil
}

// extractIntArray 宽容地从模型输出中提取整数数组
// 剥离代码围栏后取最外层的[...]再做JSON解析
func extractIntArray(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil, llm.NewLLMError(llm.ErrCodeParseFailure, "no JSON array in output")
	}

	var nums []json.Number
	if err := json.Unmarshal([]byte(s[start:end+1]), &nums); err != nil {
		return nil, llm.NewLLMError(llm.ErrCodeParseFailure,
			fmt.Sprintf("invalid JSON array: %v", err))
	}

	out := make([]int, 0, len(nums))
	for _, n := range nums {
		v, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return nil, llm.NewLLMError(llm.ErrCodeParseFailure,
					fmt.Sprintf("non-numeric element %q", n.String()))
			}
			v = int64(f)
		}
		out = append(out, int(v))
	}
	return out, nil
}
