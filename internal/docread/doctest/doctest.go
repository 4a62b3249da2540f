// Package doctest 提供测试用的.docx构造器
// 按元素顺序拼出最小可解析的OOXML容器，避免在仓库里维护二进制fixture
package doctest

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Para 段落描述
type Para struct {
	Text     string
	Style    string // 样式ID，如 Heading1
	Outline  int    // Word大纲级别+1，0表示未设置
	Indent   int64  // 左缩进，twip
	Bold     bool
	TOCField bool // 含Word目录域
}

// Builder 按文档顺序累积正文元素
type Builder struct {
	elems  []string
	styles map[string]string
}

// NewBuilder 创建构造器
func NewBuilder() *Builder {
	return &Builder{styles: map[string]string{}}
}

// Style 注册样式ID到样式名的映射
func (b *Builder) Style(id, name string) *Builder {
	b.styles[id] = name
	return b
}

// AddPara 追加普通段落
func (b *Builder) AddPara(text string) *Builder {
	return b.Add(Para{Text: text})
}

// AddHeading 追加标题样式段落
func (b *Builder) AddHeading(text, style string) *Builder {
	return b.Add(Para{Text: text, Style: style})
}

// Add 追加段落
func (b *Builder) Add(p Para) *Builder {
	b.elems = append(b.elems, paraXML(p))
	return b
}

// AddTable 追加表格
func (b *Builder) AddTable(rows [][]string) *Builder {
	var sb strings.Builder
	sb.WriteString("<w:tbl>")
	for _, row := range rows {
		sb.WriteString("<w:tr>")
		for _, cell := range row {
			sb.WriteString("<w:tc><w:p><w:r><w:t>")
			sb.WriteString(escape(cell))
			sb.WriteString("</w:t></w:r></w:p></w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
	b.elems = append(b.elems, sb.String())
	return b
}

// AddSDT 追加SDT容器，gallery为"Table of Contents"时是Word自动目录
func (b *Builder) AddSDT(gallery string, paras ...Para) *Builder {
	var sb strings.Builder
	sb.WriteString("<w:sdt><w:sdtPr><w:docPartObj>")
	sb.WriteString(fmt.Sprintf(`<w:docPartGallery w:val="%s"/>`, escape(gallery)))
	sb.WriteString("</w:docPartObj></w:sdtPr><w:sdtContent>")
	for _, p := range paras {
		sb.WriteString(paraXML(p))
	}
	sb.WriteString("</w:sdtContent></w:sdt>")
	b.elems = append(b.elems, sb.String())
	return b
}

// Build 写出.docx文件并返回路径
func (b *Builder) Build(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	writeEntry(t, zw, "word/document.xml", b.documentXML())
	writeEntry(t, zw, "word/styles.xml", b.stylesXML())
	if err := zw.Close(); err != nil {
		t.Fatalf("close fixture zip: %v", err)
	}
	return path
}

func (b *Builder) documentXML() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, e := range b.elems {
		sb.WriteString(e)
	}
	sb.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr>`)
	sb.WriteString("</w:body></w:document>")
	return sb.String()
}

func (b *Builder) stylesXML() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)
	for id, name := range b.styles {
		sb.WriteString(fmt.Sprintf(`<w:style w:type="paragraph" w:styleId="%s"><w:name w:val="%s"/></w:style>`, escape(id), escape(name)))
	}
	sb.WriteString("</w:styles>")
	return sb.String()
}

func paraXML(p Para) string {
	var sb strings.Builder
	sb.WriteString("<w:p>")

	hasPPr := p.Style != "" || p.Outline > 0 || p.Indent > 0
	if hasPPr {
		sb.WriteString("<w:pPr>")
		if p.Style != "" {
			sb.WriteString(fmt.Sprintf(`<w:pStyle w:val="%s"/>`, escape(p.Style)))
		}
		if p.Outline > 0 {
			sb.WriteString(fmt.Sprintf(`<w:outlineLvl w:val="%d"/>`, p.Outline-1))
		}
		if p.Indent > 0 {
			sb.WriteString(fmt.Sprintf(`<w:ind w:left="%d"/>`, p.Indent))
		}
		sb.WriteString("</w:pPr>")
	}

	if p.TOCField {
		sb.WriteString(`<w:r><w:fldChar w:fldCharType="begin"/></w:r>`)
		sb.WriteString(`<w:r><w:instrText xml:space="preserve"> TOC \o "1-3" \h </w:instrText></w:r>`)
	}

	sb.WriteString("<w:r>")
	if p.Bold {
		sb.WriteString("<w:rPr><w:b/></w:rPr>")
	}
	// 制表符拆成tab元素，与Word的run结构一致
	parts := strings.Split(p.Text, "\t")
	for i, part := range parts {
		if i > 0 {
			sb.WriteString("<w:tab/>")
		}
		sb.WriteString(`<w:t xml:space="preserve">`)
		sb.WriteString(escape(part))
		sb.WriteString("</w:t>")
	}
	sb.WriteString("</w:r></w:p>")
	return sb.String()
}

func writeEntry(t *testing.T, zw *zip.Writer, name, content string) {
	t.Helper()
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("create zip entry %s: %v", name, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("write zip entry %s: %v", name, err)
	}
}

func escape(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
