package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/tender-parser/internal/docread"
	"github.com/fyerfyer/tender-parser/internal/models"
)

// 章节之间插入的分页符段落
var pageBreakXML = []byte(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)

// ExportChapters 把选中章节导出为一个新的.docx文件
// 直接回写源文档的原始XML片段，格式、编号、表格原样保留；
// 选中章节的祖先已选中时跳过该章节，父章节范围本就覆盖后代
func (s *Service) ExportChapters(ctx context.Context, path string, roots []*models.ChapterNode, chapterIDs []string, outDir string) (*models.ExportResult, error) {
	doc, err := docread.Open(path)
	if err != nil {
		return nil, err
	}

	selected := selectDominant(roots, chapterIDs)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no exportable chapter among ids %v: %w", chapterIDs, models.ErrEntryNotLocated)
	}

	body := s.spliceBody(doc, selected)

	outPath := filepath.Join(outDir, fmt.Sprintf("export_%s.docx", uuid.New().String()[:8]))
	if err := rewriteDocx(path, outPath, body); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(selected))
	for _, n := range selected {
		titles = append(titles, n.Title)
	}
	s.logger.WithFields(logrus.Fields{
		"out":      outPath,
		"chapters": len(selected),
	}).Info("chapters exported")

	return &models.ExportResult{
		FilePath: outPath,
		Titles:   titles,
		Count:    len(selected),
	}, nil
}

// selectDominant 按文档顺序收集选中章节，祖先选中时后代不重复导出
// 未定位的章节没有可导出的范围，跳过
func selectDominant(roots []*models.ChapterNode, chapterIDs []string) []*models.ChapterNode {
	want := make(map[string]bool, len(chapterIDs))
	for _, id := range chapterIDs {
		want[id] = true
	}

	var selected []*models.ChapterNode
	var walk func(nodes []*models.ChapterNode)
	walk = func(nodes []*models.ChapterNode) {
		for _, n := range nodes {
			if want[n.ID] && n.Located() {
				selected = append(selected, n)
				continue
			}
			walk(n.Children)
		}
	}
	walk(roots)
	return selected
}

// spliceBody 拼接新文档的body：原封套 + 选中章节的原始元素 + 分页符
func (s *Service) spliceBody(doc *docread.Document, selected []*models.ChapterNode) []byte {
	prefix, suffix := doc.RawEnvelope()

	var buf bytes.Buffer
	buf.Write(prefix)
	for i, n := range selected {
		if i > 0 {
			buf.Write(pageBreakXML)
		}
		for _, el := range doc.Elements() {
			switch el.Kind {
			case docread.KindParagraph:
				if el.Paragraph.Index >= n.ParaStartIdx && el.Paragraph.Index <= n.ParaEndIdx {
					buf.Write(el.Paragraph.RawXML())
				}
			case docread.KindTable:
				if el.AfterPara >= n.ParaStartIdx && el.AfterPara <= n.ParaEndIdx {
					buf.Write(el.Table.RawXML())
				}
			}
		}
	}
	buf.Write(suffix)
	return buf.Bytes()
}

// rewriteDocx 复制源容器并替换document.xml
func rewriteDocx(srcPath, outPath string, body []byte) error {
	zr, err := zip.OpenReader(srcPath)
	if err != nil {
		return fmt.Errorf("open source container: %v: %w", err, models.ErrDocumentCorrupt)
	}
	defer zr.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   f.Name,
			Method: f.Method,
		})
		if err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, rc); err != nil {
			rc.Close()
			return err
		}
		rc.Close()
	}

	w, err := zw.Create("word/document.xml")
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	return zw.Close()
}
