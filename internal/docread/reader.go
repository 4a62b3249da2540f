package docread

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/fyerfyer/tender-parser/internal/models"
)

// ElementKind 正文元素类型
type ElementKind string

const (
	// KindParagraph 段落
	KindParagraph ElementKind = "p"
	// KindTable 表格
	KindTable ElementKind = "tbl"
	// KindSDT 结构化文档标签容器
	KindSDT ElementKind = "sdt"
)

// Paragraph 段落视图
// Index 只对正文段落计数；SDT内部段落的 Index 为 -1
type Paragraph struct {
	Index        int    // 正文段落索引
	Text         string // 段落文本
	StyleID      string // 样式ID，如 Heading1
	StyleName    string // 样式名，如 heading 1 / 标题 1
	OutlineLevel *int   // Word大纲级别，0-8为标题级别，9为正文，nil表示未设置
	IndentLeft   int64  // 左缩进，EMU
	RunHeading   bool   // 存在加粗run，疑似标题行
	HasTOCField  bool   // 段落XML同时含TOC指令和fldChar，Word自动目录域

	raw []byte // 段落原始XML，导出时回写
}

// Table 表格视图，单元格文本已扁平化
type Table struct {
	Rows [][]string

	raw []byte
}

// SDT 结构化文档标签容器
// 内部段落单独迭代，不占用正文段落索引
type SDT struct {
	Gallery     string      // docPartGallery 值，自动目录为 "Table of Contents"
	Paragraphs  []*Paragraph
	NextParaIdx int // 紧随SDT之后的正文段落索引

	raw []byte
}

// BodyElement 按文档顺序排列的正文元素
type BodyElement struct {
	Kind      ElementKind
	Paragraph *Paragraph
	Table     *Table
	SDT       *SDT
	AfterPara int // 该元素之前最后一个正文段落的索引，无则为-1
}

// Document 打开后的.docx文档
// 一次性读入并解析，之后只读
type Document struct {
	path       string
	elements   []BodyElement
	paras      []*Paragraph
	bodyPrefix []byte // document.xml 从头到 <w:body> 开标签（含）
	bodySuffix []byte // document.xml 从 </w:body> 到结尾
}

// Open 打开.docx文件并解析正文结构
// 旧版.doc返回 ErrUnsupportedFormat，容器损坏返回 ErrDocumentCorrupt
func Open(path string) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".doc" {
		return nil, fmt.Errorf("%s: %w", models.MsgUnsupportedDoc, models.ErrUnsupportedFormat)
	}
	if ext != ".docx" {
		return nil, fmt.Errorf("unsupported extension %q: %w", ext, models.ErrUnsupportedFormat)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx container: %v: %w", err, models.ErrDocumentCorrupt)
	}
	defer zr.Close()

	styleNames, err := readStyles(&zr.Reader)
	if err != nil {
		// styles.xml缺失不致命，标题匹配退化为StyleID
		styleNames = map[string]string{}
	}

	docXML, err := readZipFile(&zr.Reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("read document.xml: %v: %w", err, models.ErrDocumentCorrupt)
	}

	doc := &Document{path: path}
	if err := doc.parseBody(docXML, styleNames); err != nil {
		return nil, err
	}
	return doc, nil
}

// Path 源文件路径
func (d *Document) Path() string { return d.path }

// Paragraphs 正文段落，按文档顺序
func (d *Document) Paragraphs() []*Paragraph { return d.paras }

// ParagraphCount 正文段落数
func (d *Document) ParagraphCount() int { return len(d.paras) }

// Paragraph 按索引取正文段落，越界返回nil
func (d *Document) Paragraph(idx int) *Paragraph {
	if idx < 0 || idx >= len(d.paras) {
		return nil
	}
	return d.paras[idx]
}

// Elements 全部正文元素（段落、表格、SDT），按文档顺序
func (d *Document) Elements() []BodyElement { return d.elements }

// Tables 正文表格
func (d *Document) Tables() []BodyElement {
	var out []BodyElement
	for _, el := range d.elements {
		if el.Kind == KindTable {
			out = append(out, el)
		}
	}
	return out
}

// HasTableInRange 段落区间[start,end]内是否存在表格
// 表格归属于它紧随其后的那个段落所在的章节
func (d *Document) HasTableInRange(start, end int) bool {
	for _, el := range d.elements {
		if el.Kind == KindTable && el.AfterPara >= start && el.AfterPara <= end {
			return true
		}
	}
	return false
}

// TablesInRange 段落区间内的表格
func (d *Document) TablesInRange(start, end int) []*Table {
	var out []*Table
	for _, el := range d.elements {
		if el.Kind == KindTable && el.AfterPara >= start && el.AfterPara <= end {
			out = append(out, el.Table)
		}
	}
	return out
}

// RawEnvelope document.xml的正文外壳，导出时复用
func (d *Document) RawEnvelope() (prefix, suffix []byte) {
	return d.bodyPrefix, d.bodySuffix
}

// RawXML 段落原始XML
func (p *Paragraph) RawXML() []byte { return p.raw }

// RawXML 表格原始XML
func (t *Table) RawXML() []byte { return t.raw }

// IsHeading 是否标题样式段落
// 同时匹配英文样式名（Heading 1）和中文样式名（标题 1）
func (p *Paragraph) IsHeading() bool {
	id := strings.ToLower(p.StyleID)
	name := strings.ToLower(p.StyleName)
	return strings.HasPrefix(id, "heading") ||
		strings.HasPrefix(name, "heading") ||
		strings.Contains(p.StyleName, "标题")
}

// HeadingLevel 标题样式级别，1起；非标题样式返回0
func (p *Paragraph) HeadingLevel() int {
	if !p.IsHeading() {
		return 0
	}
	for _, s := range []string{p.StyleID, p.StyleName} {
		digits := trailingDigits(s)
		if digits > 0 {
			return digits
		}
	}
	return 1
}

// OutlineHeadingLevel 由大纲级别换算的标题级别（1起）
// 大纲级别缺失或为正文(9)时返回0
func (p *Paragraph) OutlineHeadingLevel() int {
	if p.OutlineLevel == nil || *p.OutlineLevel < 0 || *p.OutlineLevel > 8 {
		return 0
	}
	return *p.OutlineLevel + 1
}

func trailingDigits(s string) int {
	end := len(s)
	start := end
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0
	}
	n := 0
	for _, r := range s[start:end] {
		n = n*10 + int(r-'0')
	}
	return n
}

// NormalizedText 折叠空白并小写后的段落文本，用于目录标题关键词比对
func (p *Paragraph) NormalizedText() string {
	var b strings.Builder
	for _, r := range p.Text {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
