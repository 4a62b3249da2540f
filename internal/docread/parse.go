package docread

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fyerfyer/tender-parser/internal/models"
)

// 1 twip = 635 EMU，w:ind的left以twip计
const emuPerTwip = 635

// parseBody 流式解析word/document.xml
// 保持正文元素顺序，段落索引只对正文段落递增；SDT内段落不计入
// 同时记录各元素的原始XML片段和body外壳，供导出拼接
func (d *Document) parseBody(data []byte, styleNames map[string]string) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	inBody := false

	for {
		tokStart := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return corruptErr(err)
		}

		switch se := tok.(type) {
		case xml.StartElement:
			if !inBody {
				if se.Name.Local == "body" {
					inBody = true
					d.bodyPrefix = append([]byte(nil), data[:dec.InputOffset()]...)
				}
				continue
			}
			switch se.Name.Local {
			case "p":
				p, err := d.parseParagraph(dec, styleNames)
				if err != nil {
					return err
				}
				p.Index = len(d.paras)
				p.raw = data[tokStart:dec.InputOffset()]
				d.paras = append(d.paras, p)
				d.elements = append(d.elements, BodyElement{
					Kind:      KindParagraph,
					Paragraph: p,
					AfterPara: p.Index - 1,
				})
			case "tbl":
				tbl, err := parseTable(dec)
				if err != nil {
					return err
				}
				tbl.raw = data[tokStart:dec.InputOffset()]
				d.elements = append(d.elements, BodyElement{
					Kind:      KindTable,
					Table:     tbl,
					AfterPara: len(d.paras) - 1,
				})
			case "sdt":
				sdt, err := d.parseSDT(dec, styleNames)
				if err != nil {
					return err
				}
				sdt.NextParaIdx = len(d.paras)
				sdt.raw = data[tokStart:dec.InputOffset()]
				d.elements = append(d.elements, BodyElement{
					Kind:      KindSDT,
					SDT:       sdt,
					AfterPara: len(d.paras) - 1,
				})
			default:
				// sectPr等其他正文元素整体跳过
				if err := skipElement(dec); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if inBody && se.Name.Local == "body" {
				d.bodySuffix = append([]byte(nil), data[tokStart:]...)
				return nil
			}
		}
	}

	if !inBody {
		return corruptErr(fmt.Errorf("no body element"))
	}
	return nil
}

// parseParagraph 解析单个段落，起始标签已被调用方消费
func (d *Document) parseParagraph(dec *xml.Decoder, styleNames map[string]string) (*Paragraph, error) {
	p := &Paragraph{Index: -1}
	var text strings.Builder
	var stack []string
	var sawInstrTOC, sawFldChar bool

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, corruptErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pStyle":
				p.StyleID = attrVal(t, "val")
			case "outlineLvl":
				if v, err := strconv.Atoi(attrVal(t, "val")); err == nil {
					lvl := v
					p.OutlineLevel = &lvl
				}
			case "ind":
				if v, err := strconv.ParseInt(attrVal(t, "left"), 10, 64); err == nil {
					p.IndentLeft = v * emuPerTwip
				}
			case "fldChar":
				sawFldChar = true
			case "b", "bCs":
				switch attrVal(t, "val") {
				case "", "1", "true", "on":
					p.RunHeading = true
				}
			case "tab":
				// run内的<w:tab/>无属性；pPr中的制表位定义带属性
				if len(t.Attr) == 0 {
					text.WriteByte('\t')
				}
			case "br":
				text.WriteByte('\n')
			}
			stack = append(stack, t.Name.Local)
		case xml.EndElement:
			if len(stack) == 0 {
				p.Text = text.String()
				p.HasTOCField = sawInstrTOC && sawFldChar
				p.StyleName = styleNames[p.StyleID]
				return p, nil
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			switch stack[len(stack)-1] {
			case "t":
				text.Write(t)
			case "instrText":
				if strings.Contains(string(t), "TOC") {
					sawInstrTOC = true
				}
			}
		}
	}
}

// parseTable 解析表格，提取扁平化的单元格文本
// 嵌套表格的文本并入外层单元格
func parseTable(dec *xml.Decoder) (*Table, error) {
	tbl := &Table{}
	var stack []string
	nested := 0
	var row []string
	var cell strings.Builder
	cellOpen := false

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, corruptErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				nested++
			case "tr":
				if nested == 0 {
					row = []string{}
				}
			case "tc":
				if nested == 0 {
					cell.Reset()
					cellOpen = true
				}
			}
			stack = append(stack, t.Name.Local)
		case xml.EndElement:
			if len(stack) == 0 {
				return tbl, nil
			}
			popped := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			switch popped {
			case "tbl":
				nested--
			case "tc":
				if nested == 0 {
					row = append(row, strings.TrimSpace(cell.String()))
					cellOpen = false
				}
			case "tr":
				if nested == 0 && row != nil {
					tbl.Rows = append(tbl.Rows, row)
					row = nil
				}
			}
		case xml.CharData:
			if cellOpen && len(stack) > 0 && stack[len(stack)-1] == "t" {
				cell.Write(t)
			}
		}
	}
}

// parseSDT 解析结构化文档标签容器
// 容器内任意深度的段落按顺序收集，Index保持-1
func (d *Document) parseSDT(dec *xml.Decoder, styleNames map[string]string) (*SDT, error) {
	s := &SDT{}
	var stack []string

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, corruptErr(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "docPartGallery":
				s.Gallery = attrVal(t, "val")
				stack = append(stack, t.Name.Local)
			case "p":
				p, err := d.parseParagraph(dec, styleNames)
				if err != nil {
					return nil, err
				}
				s.Paragraphs = append(s.Paragraphs, p)
				// parseParagraph已消费到段落结束，不入栈
			default:
				stack = append(stack, t.Name.Local)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return s, nil
			}
			stack = stack[:len(stack)-1]
		}
	}
}

// skipElement 跳过当前元素的整个子树，起始标签已被消费
func skipElement(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return corruptErr(err)
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// readStyles 解析word/styles.xml，得到样式ID到样式名的映射
func readStyles(zr *zip.Reader) (map[string]string, error) {
	data, err := readZipFile(zr, "word/styles.xml")
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	dec := xml.NewDecoder(bytes.NewReader(data))
	currentID := ""
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, corruptErr(err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "style":
			currentID = attrVal(se, "styleId")
		case "name":
			if currentID != "" {
				names[currentID] = attrVal(se, "val")
			}
		}
	}
	return names, nil
}

func attrVal(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func corruptErr(err error) error {
	return fmt.Errorf("parse document.xml: %v: %w", err, models.ErrDocumentCorrupt)
}
