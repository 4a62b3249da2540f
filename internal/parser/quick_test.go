package parser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/tender-parser/config"
	"github.com/fyerfyer/tender-parser/internal/docread/doctest"
	"github.com/fyerfyer/tender-parser/internal/models"
	"github.com/fyerfyer/tender-parser/internal/parser"
)

func TestParseQuickSkeleton(t *testing.T) {
	res, err := newTestService().ParseQuick(context.Background(), standardDoc(t))
	require.NoError(t, err)

	assert.Equal(t, 5, res.TocEndIdx)
	require.Len(t, res.Chapters, 4)

	// 骨架只有标题层级和分类，范围等enrich填充
	for i, n := range res.Chapters {
		assert.Equal(t, -1, n.ParaStartIdx, "chapter %d", i)
		assert.Equal(t, -1, n.ParaEndIdx, "chapter %d", i)
		assert.Equal(t, 0, n.WordCount, "chapter %d", i)
	}
	assert.Equal(t, "ch_1", res.Chapters[0].ID)
	assert.Equal(t, models.ChapterInvitation, res.Chapters[0].ChapterType)
	assert.Equal(t, models.ChapterTechnicalSpec, res.Chapters[3].ChapterType)
}

func TestParseQuickNoTOC(t *testing.T) {
	_, err := newTestService().ParseQuick(context.Background(), noStructureDoc(t))
	assert.ErrorIs(t, err, models.ErrTOCNotFound)
}

func TestParseQuickPrefersLLM(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.UseForLevels = true
	svc := parser.NewService(cfg, parser.WithLLMClient(&mockLLM{resp: "[1, 2, 2, 2]"}))

	res, err := svc.ParseQuick(context.Background(), standardDoc(t))
	require.NoError(t, err)

	// LLM给出的层级让后三章挂到第一章之下
	require.Len(t, res.Chapters, 1)
	assert.Len(t, res.Chapters[0].Children, 3)
}

func TestEnrichCompletesSkeleton(t *testing.T) {
	svc := newTestService()
	path := standardDoc(t)

	quick, err := svc.ParseQuick(context.Background(), path)
	require.NoError(t, err)

	res, err := svc.Enrich(context.Background(), path, quick)
	require.NoError(t, err)

	require.Len(t, res.Chapters, 4)
	first := res.Chapters[0]
	assert.Equal(t, "第一章 招标公告", first.Title)
	assert.Equal(t, 6, first.ParaStartIdx)
	assert.Equal(t, 7, first.ParaEndIdx)
	assert.Greater(t, first.WordCount, 0)
	assert.NotEmpty(t, first.PreviewText)

	assert.Equal(t, 4, res.Statistics.TotalChapters)
	assert.Greater(t, res.Statistics.TotalWords, 0)
}

func TestEnrichDerivesContractPotential(t *testing.T) {
	// 两阶段往返后合同潜在标记从标题重新推导
	svc := newTestService()
	path := doctest.NewBuilder().
		Style("Heading1", "heading 1").
		AddPara("目录").
		AddPara("第一章 招标公告.....3").
		AddPara("第二章 合同条款.....8").
		AddHeading("第一章 招标公告", "Heading1").
		AddPara("招标公告的正文内容说明").
		AddHeading("第二章 合同条款", "Heading1").
		AddPara("甲方与乙方的权利义务约定").
		Build(t)

	quick, err := svc.ParseQuick(context.Background(), path)
	require.NoError(t, err)

	res, err := svc.Enrich(context.Background(), path, quick)
	require.NoError(t, err)

	require.Len(t, res.Chapters, 2)
	assert.False(t, res.Chapters[0].ContractPotential)
	assert.True(t, res.Chapters[1].ContractPotential)
}
