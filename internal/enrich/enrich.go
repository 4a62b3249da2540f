package enrich

import (
	"strings"

	"github.com/fyerfyer/tender-parser/config"
	"github.com/fyerfyer/tender-parser/internal/docread"
	"github.com/fyerfyer/tender-parser/internal/models"
	"github.com/fyerfyer/tender-parser/internal/textutil"
	"github.com/sirupsen/logrus"
)

// Enricher 章节内容增强器
// 为已定位的章节补充字数、预览、表格信息
type Enricher struct {
	cfg    config.PreviewConfig
	logger *logrus.Logger
}

// NewEnricher 创建章节增强器
func NewEnricher(cfg config.PreviewConfig, logger *logrus.Logger) *Enricher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Enricher{cfg: cfg, logger: logger}
}

// EnrichAll 为扁平章节列表补充内容信息
// 未定位的章节得到占位预览，字数为0
func (e *Enricher) EnrichAll(doc *docread.Document, nodes []*models.ChapterNode) {
	for _, n := range nodes {
		e.enrichOne(doc, n)
	}
}

func (e *Enricher) enrichOne(doc *docread.Document, n *models.ChapterNode) {
	if !n.Located() {
		n.WordCount = 0
		n.PreviewText = models.NotLocatedPreview
		n.HasTable = false
		return
	}

	n.WordCount = e.countWords(doc, n.ParaStartIdx, n.ParaEndIdx)
	n.HasTable = doc.HasTableInRange(n.ParaStartIdx, n.ParaEndIdx)
	n.PreviewText = e.buildPreview(doc, n)
}

// countWords 统计范围内段落与表格的总字符数，空白不计
func (e *Enricher) countWords(doc *docread.Document, start, end int) int {
	total := 0
	for i := start; i <= end && i < doc.ParagraphCount(); i++ {
		total += textutil.CountChars(doc.Paragraph(i).Text)
	}
	for _, tbl := range doc.TablesInRange(start, end) {
		for _, row := range tbl.Rows {
			for _, cell := range row {
				total += textutil.CountChars(cell)
			}
		}
	}
	return total
}

// buildPreview 按文档顺序提取章节开头若干行作为预览
// 跳过标题段本身；首个表格在其出现位置插入标记行和前几行内容，
// 标记与表格行同样计入行数预算
func (e *Enricher) buildPreview(doc *docread.Document, n *models.ChapterNode) string {
	var lines []string
	tableShown := false

	full := func() bool { return len(lines) >= e.cfg.MaxLines }

	for _, el := range doc.Elements() {
		if full() {
			break
		}
		switch el.Kind {
		case docread.KindParagraph:
			idx := el.Paragraph.Index
			if idx <= n.ParaStartIdx || idx > n.ParaEndIdx {
				continue
			}
			text := textutil.CollapseSpace(el.Paragraph.Text)
			if text == "" {
				continue
			}
			lines = append(lines, textutil.Truncate(text, e.cfg.MaxLineLen))
		case docread.KindTable:
			if tableShown || el.AfterPara < n.ParaStartIdx || el.AfterPara > n.ParaEndIdx {
				continue
			}
			tableShown = true
			lines = append(lines, "【表格】")
			for _, row := range e.tablePreview(el.Table) {
				if full() {
					break
				}
				lines = append(lines, row)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func (e *Enricher) tablePreview(tbl *docread.Table) []string {
	var out []string
	for i, row := range tbl.Rows {
		if i >= e.cfg.TableRows {
			break
		}
		cells := make([]string, 0, len(row))
		for _, c := range row {
			cells = append(cells, textutil.CollapseSpace(c))
		}
		out = append(out, textutil.Truncate(strings.Join(cells, " | "), e.cfg.MaxLineLen))
	}
	return out
}
