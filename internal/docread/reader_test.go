package docread_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/tender-parser/internal/docread"
	"github.com/fyerfyer/tender-parser/internal/docread/doctest"
	"github.com/fyerfyer/tender-parser/internal/models"
)

func TestOpenRejectsLegacyDoc(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.doc")
	require.NoError(t, os.WriteFile(path, []byte("not a docx"), 0644))

	_, err := docread.Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "另存为 .docx")
}

func TestOpenRejectsCorruptContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.docx")
	require.NoError(t, os.WriteFile(path, []byte("garbage bytes"), 0644))

	_, err := docread.Open(path)
	assert.ErrorIs(t, err, models.ErrDocumentCorrupt)
}

func TestParagraphsAndStyles(t *testing.T) {
	path := doctest.NewBuilder().
		Style("Heading1", "heading 1").
		AddHeading("第一章 招标公告", "Heading1").
		AddPara("招标编号：ZB-2024-001").
		Add(doctest.Para{Text: "技术要求", Outline: 2}).
		Build(t)

	doc, err := docread.Open(path)
	require.NoError(t, err)

	require.Equal(t, 3, doc.ParagraphCount())
	p0 := doc.Paragraph(0)
	assert.Equal(t, "第一章 招标公告", p0.Text)
	assert.Equal(t, "Heading1", p0.StyleID)
	assert.Equal(t, "heading 1", p0.StyleName)
	assert.True(t, p0.IsHeading())
	assert.Equal(t, 1, p0.HeadingLevel())

	p2 := doc.Paragraph(2)
	require.NotNil(t, p2.OutlineLevel)
	assert.Equal(t, 1, *p2.OutlineLevel)
	assert.Equal(t, 2, p2.OutlineHeadingLevel())
}

func TestTabAndIndent(t *testing.T) {
	path := doctest.NewBuilder().
		Add(doctest.Para{Text: "第一章 招标公告\t3", Indent: 420}).
		Build(t)

	doc, err := docread.Open(path)
	require.NoError(t, err)

	p := doc.Paragraph(0)
	assert.Equal(t, "第一章 招标公告\t3", p.Text)
	assert.Equal(t, int64(420*635), p.IndentLeft)
}

func TestTablesInRange(t *testing.T) {
	path := doctest.NewBuilder().
		AddPara("评分标准如下").
		AddTable([][]string{
			{"评分项", "分值"},
			{"技术方案", "40"},
		}).
		AddPara("以上为评分细则").
		Build(t)

	doc, err := docread.Open(path)
	require.NoError(t, err)

	assert.True(t, doc.HasTableInRange(0, 1))
	assert.False(t, doc.HasTableInRange(1, 1))

	tbls := doc.TablesInRange(0, 0)
	require.Len(t, tbls, 1)
	assert.Equal(t, [][]string{{"评分项", "分值"}, {"技术方案", "40"}}, tbls[0].Rows)
}

func TestSDTParagraphsKeepSeparateIndexSpace(t *testing.T) {
	path := doctest.NewBuilder().
		AddPara("封面").
		AddSDT("Table of Contents",
			doctest.Para{Text: "目录"},
			doctest.Para{Text: "第一章 招标公告\t3"},
		).
		AddPara("第一章 招标公告").
		Build(t)

	doc, err := docread.Open(path)
	require.NoError(t, err)

	// SDT内段落不占正文索引
	require.Equal(t, 2, doc.ParagraphCount())
	assert.Equal(t, "第一章 招标公告", doc.Paragraph(1).Text)

	var sdt *docread.SDT
	for _, el := range doc.Elements() {
		if el.Kind == docread.KindSDT {
			sdt = el.SDT
		}
	}
	require.NotNil(t, sdt)
	assert.Equal(t, "Table of Contents", sdt.Gallery)
	require.Len(t, sdt.Paragraphs, 2)
	assert.Equal(t, -1, sdt.Paragraphs[0].Index)
	assert.Equal(t, 1, sdt.NextParaIdx)
}

func TestTOCFieldDetection(t *testing.T) {
	path := doctest.NewBuilder().
		Add(doctest.Para{Text: "第一章 招标公告\t3", TOCField: true}).
		AddPara("正文段落").
		Build(t)

	doc, err := docread.Open(path)
	require.NoError(t, err)
	assert.True(t, doc.Paragraph(0).HasTOCField)
	assert.False(t, doc.Paragraph(1).HasTOCField)
}

func TestRawEnvelopeRoundTrip(t *testing.T) {
	path := doctest.NewBuilder().
		AddPara("第一章 招标公告").
		AddTable([][]string{{"a", "b"}}).
		Build(t)

	doc, err := docread.Open(path)
	require.NoError(t, err)

	prefix, suffix := doc.RawEnvelope()
	assert.Contains(t, string(prefix), "<w:body>")
	assert.Contains(t, string(suffix), "</w:body>")

	// 每个元素保留可回写的原始XML
	for _, el := range doc.Elements() {
		switch el.Kind {
		case docread.KindParagraph:
			assert.Contains(t, string(el.Paragraph.RawXML()), "<w:p>")
		case docread.KindTable:
			assert.Contains(t, string(el.Table.RawXML()), "<w:tbl>")
		}
	}
}
