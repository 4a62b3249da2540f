package parser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/tender-parser/config"
	"github.com/fyerfyer/tender-parser/internal/docread/doctest"
	"github.com/fyerfyer/tender-parser/internal/llm"
	"github.com/fyerfyer/tender-parser/internal/models"
	"github.com/fyerfyer/tender-parser/internal/parser"
)

type mockLLM struct {
	resp string
	err  error
}

func (m *mockLLM) Chat(ctx context.Context, systemPrompt, userPrompt string, options ...llm.ChatOption) (string, error) {
	return m.resp, m.err
}

func (m *mockLLM) Name() string { return "mock" }

func newTestService(opts ...parser.Option) *parser.Service {
	return parser.NewService(config.Default(), opts...)
}

// standardDoc 封面+目录+四个章节正文的典型标书结构
func standardDoc(t *testing.T) string {
	t.Helper()
	return doctest.NewBuilder().
		Style("Heading1", "heading 1").
		AddPara("某某项目公开招标文件").
		AddPara("目录").
		AddPara("第一章 招标公告.....3").
		AddPara("第二章 投标人须知.....8").
		AddPara("第三章 评标办法.....12").
		AddPara("第四章 技术规范.....15").
		AddHeading("第一章 招标公告", "Heading1").
		AddPara("招标人现就本项目进行公开招标欢迎合格的投标人参加投标").
		AddHeading("第二章 投标人须知", "Heading1").
		AddPara("投标人应当仔细阅读招标文件的全部内容并按要求编制投标文件").
		AddHeading("第三章 评标办法", "Heading1").
		AddPara("评标委员会按照综合评分法对投标文件进行评审和比较").
		AddHeading("第四章 技术规范", "Heading1").
		AddPara("本项目的技术要求详见技术规范书相关内容说明").
		Build(t)
}

func TestParseSmartTOCPipeline(t *testing.T) {
	res, err := newTestService().ParseSmart(context.Background(), standardDoc(t))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
	assert.Equal(t, models.MethodTOCExact, res.PrimaryMethod)
	assert.Empty(t, res.FallbackFrom)
	assert.GreaterOrEqual(t, res.Elapsed, 0.0)

	require.Len(t, res.Chapters, 4)
	first := res.Chapters[0]
	assert.Equal(t, "ch_1", first.ID)
	assert.Equal(t, "第一章 招标公告", first.Title)
	assert.Equal(t, 6, first.ParaStartIdx)
	assert.Equal(t, 7, first.ParaEndIdx)
	assert.Equal(t, models.ChapterInvitation, first.ChapterType)
	assert.Greater(t, first.WordCount, 0)
	assert.NotEmpty(t, first.PreviewText)

	assert.Equal(t, models.ChapterBidderNotice, res.Chapters[1].ChapterType)
	assert.Equal(t, models.ChapterEvaluation, res.Chapters[2].ChapterType)
	assert.Equal(t, models.ChapterTechnicalSpec, res.Chapters[3].ChapterType)
	assert.Equal(t, "ch_4", res.Chapters[3].ID)

	assert.Equal(t, 4, res.Statistics.TotalChapters)
	assert.Greater(t, res.Statistics.TotalWords, 0)
	assert.Greater(t, res.Statistics.EstimatedProcessingCost, 0.0)
	assert.Equal(t, []string{"第四章 技术规范"}, res.KeySections.TechnicalSpec)
	assert.Empty(t, res.KeySections.ContractContent)
}

// anomalousDoc 只有一个带编号一级章节，触发结果异常检测
func anomalousDoc(t *testing.T) string {
	t.Helper()
	return doctest.NewBuilder().
		Style("Heading1", "heading 1").
		AddPara("目录").
		AddPara("第一章 项目说明.....3").
		AddPara("项目需求一览.....5").
		AddHeading("第一章 项目说明", "Heading1").
		AddPara("本项目的基本情况和采购范围说明如下").
		AddPara("项目需求一览").
		AddPara("具体需求清单和数量详见本节内容").
		Build(t)
}

func TestParseSmartLLMFallback(t *testing.T) {
	svc := newTestService(parser.WithLLMClient(&mockLLM{resp: "[1, 2]"}))

	res, err := svc.ParseSmart(context.Background(), anomalousDoc(t))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, models.MethodLLMLevel, res.PrimaryMethod)
	assert.Equal(t, models.MethodTOCExact, res.FallbackFrom)
	assert.Contains(t, res.FallbackReason, "一级章节过少")

	require.Len(t, res.Chapters, 1)
	root := res.Chapters[0]
	assert.Equal(t, "第一章 项目说明", root.Title)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "项目需求一览", root.Children[0].Title)
	assert.Equal(t, "ch_1_1", root.Children[0].ID)
}

func TestParseSmartAnomalyWithoutLLMKeepsResult(t *testing.T) {
	res, err := newTestService().ParseSmart(context.Background(), anomalousDoc(t))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, models.MethodTOCExact, res.PrimaryMethod)
	assert.Empty(t, res.FallbackFrom)
}

func TestParseSmartLLMFailureKeepsStatistical(t *testing.T) {
	svc := newTestService(parser.WithLLMClient(&mockLLM{resp: "层级无法判断"}))

	res, err := svc.ParseSmart(context.Background(), anomalousDoc(t))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, models.MethodTOCExact, res.PrimaryMethod)
	assert.Empty(t, res.FallbackFrom)
}

func TestParseSmartOutlineFallback(t *testing.T) {
	// 无目录文档走大纲级别管线
	path := doctest.NewBuilder().
		Style("Heading1", "heading 1").
		Style("Heading2", "heading 2").
		AddHeading("工程概况", "Heading1").
		AddPara("本工程位于某市某区总建筑面积约一万平方米").
		AddHeading("施工要求", "Heading1").
		AddHeading("质量标准", "Heading2").
		AddPara("工程质量应当符合国家现行验收规范的合格标准").
		Build(t)

	res, err := newTestService().ParseSmart(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, models.MethodOutlineLevel, res.PrimaryMethod)
	require.Len(t, res.Chapters, 2)
	assert.Equal(t, "工程概况", res.Chapters[0].Title)
	require.Len(t, res.Chapters[1].Children, 1)
	assert.Equal(t, "质量标准", res.Chapters[1].Children[0].Title)
}

// noStructureDoc 既无目录也无标题样式的纯文本文档
func noStructureDoc(t *testing.T) string {
	t.Helper()
	return doctest.NewBuilder().
		AddPara("这是一份没有任何结构的纯文本说明材料").
		AddPara("内容仅有普通段落而没有目录和标题").
		Build(t)
}

func TestParseSmartNoChapters(t *testing.T) {
	res, err := newTestService().ParseSmart(context.Background(), noStructureDoc(t))
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, models.ErrNoChapters.Error(), res.Error)
	assert.Empty(t, res.Chapters)
}

// scanSourceDoc 只有首章带标题样式，其余章节标题是普通段落
// 大纲管线只能看到一个章节，需要LLM兜底管线扫描编号段落重建
func scanSourceDoc(t *testing.T) string {
	t.Helper()
	return doctest.NewBuilder().
		Style("Heading1", "heading 1").
		AddHeading("第一章总则", "Heading1").
		AddPara("本章对项目总体情况和招标范围作出说明").
		AddPara("第二章商务要求").
		AddPara("投标人应当提供有效的营业执照和相关资质证明文件").
		AddPara("第三章技术要求").
		AddPara("技术方案应当满足采购需求书列明的各项技术指标").
		AddPara("第四章评标办法").
		AddPara("评标委员会按照百分制综合评分法对投标文件进行评审").
		Build(t)
}

func TestParseSmartScanRebuildsChapters(t *testing.T) {
	svc := newTestService(parser.WithLLMClient(&mockLLM{resp: "[1, 1, 1, 1]"}))

	res, err := svc.ParseSmart(context.Background(), scanSourceDoc(t))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, models.MethodLLMLevel, res.PrimaryMethod)
	assert.Equal(t, models.MethodOutlineLevel, res.FallbackFrom)
	assert.Contains(t, res.FallbackReason, "一级章节过少")

	require.Len(t, res.Chapters, 4)
	assert.Equal(t, "第一章总则", res.Chapters[0].Title)
	assert.Equal(t, 0, res.Chapters[0].ParaStartIdx)
	assert.Equal(t, 1, res.Chapters[0].ParaEndIdx)
	assert.Equal(t, "第四章评标办法", res.Chapters[3].Title)
	assert.Equal(t, 6, res.Chapters[3].ParaStartIdx)
	assert.Equal(t, 7, res.Chapters[3].ParaEndIdx)
	assert.Equal(t, models.ChapterEvaluation, res.Chapters[3].ChapterType)
}

func TestParseSmartScanFromPlainNumbering(t *testing.T) {
	// 完全没有标题样式的文档，章节仅靠顿号编号段落体现
	path := doctest.NewBuilder().
		AddPara("一、项目概况").
		AddPara("本项目为某单位办公设备采购具体供货内容如下").
		AddPara("二、供货要求").
		AddPara("中标人应当在合同签订后三十日内完成全部供货并交付使用").
		Build(t)

	svc := newTestService(parser.WithLLMClient(&mockLLM{resp: "[1, 1]"}))
	res, err := svc.ParseSmart(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, models.MethodLLMLevel, res.PrimaryMethod)
	assert.Equal(t, models.MethodOutlineLevel, res.FallbackFrom)
	assert.Equal(t, "未识别出任何章节", res.FallbackReason)

	require.Len(t, res.Chapters, 2)
	assert.Equal(t, "一、项目概况", res.Chapters[0].Title)
	assert.Equal(t, "二、供货要求", res.Chapters[1].Title)
}

func TestParseSmartScanNoCandidates(t *testing.T) {
	// 没有任何编号段落可扫时兜底管线失败，维持无章节错误
	svc := newTestService(parser.WithLLMClient(&mockLLM{resp: "[1]"}))

	res, err := svc.ParseSmart(context.Background(), noStructureDoc(t))
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, models.ErrNoChapters.Error(), res.Error)
}

func TestParseSmartOutlineContractSplit(t *testing.T) {
	// 大纲管线扫出的章节同样过合同聚类检测
	const plainPara = "投标文件应当按照规定格式编制装订并在封套上标明项目名称和投标人名称"
	const contractPara = "甲方应当按照约定向乙方支付相应费用并承担相应责任"

	b := doctest.NewBuilder().
		Style("Heading1", "heading 1").
		AddHeading("第五章投标文件格式", "Heading1")
	for i := 0; i < 40; i++ {
		b.AddPara(plainPara)
	}
	for i := 0; i < 80; i++ {
		b.AddPara(contractPara)
	}

	res, err := newTestService().ParseSmart(context.Background(), b.Build(t))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, models.MethodOutlineLevel, res.PrimaryMethod)

	require.Len(t, res.Chapters, 2)
	head := res.Chapters[0]
	assert.Equal(t, "第五章投标文件格式", head.Title)
	assert.Equal(t, 40, head.ParaEndIdx)

	split := res.Chapters[1]
	assert.Equal(t, models.ContractSplitTitle, split.Title)
	assert.Equal(t, models.ChapterContractContent, split.ChapterType)
	assert.Equal(t, 41, split.ParaStartIdx)
	assert.Equal(t, 120, split.ParaEndIdx)
}
