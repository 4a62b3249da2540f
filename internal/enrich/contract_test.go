package enrich_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/tender-parser/config"
	"github.com/fyerfyer/tender-parser/internal/docread"
	"github.com/fyerfyer/tender-parser/internal/docread/doctest"
	"github.com/fyerfyer/tender-parser/internal/enrich"
	"github.com/fyerfyer/tender-parser/internal/models"
)

func newTestDetector() *enrich.ContractDetector {
	return enrich.NewContractDetector(config.DefaultParserConfig().Contract, nil)
}

// 无合同关键词的普通正文段
const plainPara = "投标人应当按照招标文件要求编制投标文件并在规定时间内提交相关证明材料以及资格文件等内容说明"

// 含强关键词的合同条款段
const contractPara = "甲方应当按照约定向乙方支付相应费用并承担相应责任"

// buildMixedDoc 生成"标题+若干普通段+若干合同段"的章节文档
func buildMixedDoc(t *testing.T, plainCount, contractCount int) *docread.Document {
	t.Helper()
	b := doctest.NewBuilder().AddPara("第五部分 合同条款")
	for i := 0; i < plainCount; i++ {
		b.AddPara(plainPara)
	}
	for i := 0; i < contractCount; i++ {
		b.AddPara(contractPara)
	}
	return openFixture(t, b)
}

func contractNode(end int) *models.ChapterNode {
	return &models.ChapterNode{
		Title:             "第五部分 合同条款",
		Level:             1,
		ParaStartIdx:      0,
		ParaEndIdx:        end,
		ContractPotential: true,
	}
}

func TestContractClusterSplit(t *testing.T) {
	doc := buildMixedDoc(t, 40, 80)
	orig := contractNode(120)

	nodes := newTestDetector().SplitAll(doc, []*models.ChapterNode{orig})
	require.Len(t, nodes, 2)

	head, tail := nodes[0], nodes[1]
	assert.Equal(t, "第五部分 合同条款", head.Title)
	assert.Equal(t, models.ContractSplitTitle, tail.Title)
	assert.Equal(t, head.Level, tail.Level)
	assert.Equal(t, models.ChapterContractContent, tail.ChapterType)
	assert.Contains(t, tail.ContentTags, "contract_cluster")

	// 拆分后两段范围之并等于拆分前范围
	assert.Equal(t, 0, head.ParaStartIdx)
	assert.Equal(t, 40, head.ParaEndIdx)
	assert.Equal(t, 41, tail.ParaStartIdx)
	assert.Equal(t, 120, tail.ParaEndIdx)

	// 顺序索引重排
	assert.Equal(t, 0, head.OrderIndex)
	assert.Equal(t, 1, tail.OrderIndex)
}

func TestContractSplitSkipsNonPotential(t *testing.T) {
	doc := buildMixedDoc(t, 40, 80)
	orig := contractNode(120)
	orig.ContractPotential = false

	nodes := newTestDetector().SplitAll(doc, []*models.ChapterNode{orig})
	assert.Len(t, nodes, 1)
	assert.Equal(t, 120, nodes[0].ParaEndIdx)
}

func TestContractSplitHeadTooThin(t *testing.T) {
	// 聚类前正文不足MinHeadChars时保持章节完整
	doc := buildMixedDoc(t, 20, 80)
	orig := contractNode(100)

	nodes := newTestDetector().SplitAll(doc, []*models.ChapterNode{orig})
	assert.Len(t, nodes, 1)
	assert.Equal(t, 100, nodes[0].ParaEndIdx)
}

func TestContractSplitRatioOutOfRange(t *testing.T) {
	// 几乎整章都是合同文本时不拆，整章本身就该归为合同章节
	doc := buildMixedDoc(t, 1, 79)
	orig := contractNode(80)

	nodes := newTestDetector().SplitAll(doc, []*models.ChapterNode{orig})
	assert.Len(t, nodes, 1)
}

func TestContractSplitIgnoresLocalPocket(t *testing.T) {
	// 章节中部有一小段合同引文，其后仍是大量普通正文：
	// 前扫在密度跌破处收住聚类，占比不足不拆
	b := doctest.NewBuilder().AddPara("第六章 投标文件格式")
	for i := 0; i < 199; i++ {
		b.AddPara(plainPara)
	}
	for i := 0; i < 20; i++ {
		b.AddPara(contractPara)
	}
	for i := 0; i < 181; i++ {
		b.AddPara(plainPara)
	}
	doc := openFixture(t, b)

	orig := &models.ChapterNode{
		Title:             "第六章 投标文件格式",
		Level:             1,
		ParaStartIdx:      0,
		ParaEndIdx:        400,
		ContractPotential: true,
	}

	nodes := newTestDetector().SplitAll(doc, []*models.ChapterNode{orig})
	assert.Len(t, nodes, 1)
	assert.Equal(t, 400, nodes[0].ParaEndIdx)
}

func TestContractSplitShortChapterUntouched(t *testing.T) {
	doc := buildMixedDoc(t, 0, 10)
	orig := contractNode(10)

	nodes := newTestDetector().SplitAll(doc, []*models.ChapterNode{orig})
	assert.Len(t, nodes, 1)
}
