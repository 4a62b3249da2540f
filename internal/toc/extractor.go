package toc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fyerfyer/tender-parser/config"
	"github.com/fyerfyer/tender-parser/internal/docread"
	"github.com/fyerfyer/tender-parser/internal/levels"
	"github.com/fyerfyer/tender-parser/internal/models"
	"github.com/fyerfyer/tender-parser/internal/textutil"
	"github.com/sirupsen/logrus"
)

// Item 目录条目
// C2产出，C3填层级，C4定位后丢弃
type Item struct {
	Title               string // 条目标题（去除页码和引导符）
	PageNum             int    // 页码，无页码条目为0
	RawPrefix           string // 编号前缀原文
	NormalizedPrefix    string // 归一化前缀
	Level               int    // 层级，C3填充
	IsContractPotential bool   // 标题命中合同关键词
}

// Result 目录提取结果
type Result struct {
	Items    []Item
	StartIdx int  // 目录起始段落索引（SDT目录为其前一段落）
	EndIdx   int  // 目录结束段落索引，正文定位从EndIdx+1开始
	FromSDT  bool // 目录位于SDT容器内
}

// sdtTOCGallery Word自动目录SDT的docPartGallery值
const sdtTOCGallery = "table of contents"

// 目录条目的页码格式，按顺序尝试
var (
	reEntrySpace   = regexp.MustCompile(`^(.+?)\s{2,}(\d+)\s*$`)
	reEntryDots    = regexp.MustCompile(`^(.+?)\.{2,}\s*(\d+)\s*$`)
	reEntryTab     = regexp.MustCompile(`^(.+?)\t+(\d+)\s*$`)
	reEntryChapter = regexp.MustCompile(`^(第[0-9一二两三四五六七八九十百千零]+(?:章|部分|节|篇).*?)\s+(\d+)\s*$`)
	reEntryDash    = regexp.MustCompile(`^(.+?)\s*-\s*(\d+)\s*-\s*$`)

	rePagelessChapter = regexp.MustCompile(`^第[0-9一二两三四五六七八九十百千零]+(?:章|部分)`)
)

// Extractor 目录提取器
type Extractor struct {
	cfg    config.TOCConfig
	logger *logrus.Logger
}

// NewExtractor 创建目录提取器
func NewExtractor(cfg config.TOCConfig, logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract 定位并解析目录
// 依次尝试：目录SDT容器、SDT首段关键词、正文目录标题、Word目录域
// 未找到目录时返回ErrTOCNotFound，调用方降级到大纲级别管线
func (e *Extractor) Extract(doc *docread.Document) (*Result, error) {
	if sdt := e.findTOCSDT(doc); sdt != nil {
		return e.extractFromSDT(sdt), nil
	}

	start, found := e.findTOCTitle(doc)
	if !found {
		return nil, models.ErrTOCNotFound
	}
	return e.extractFromBody(doc, start), nil
}

// findTOCSDT 在顶层SDT容器中寻找目录
func (e *Extractor) findTOCSDT(doc *docread.Document) *docread.SDT {
	for _, el := range doc.Elements() {
		if el.Kind != docread.KindSDT {
			continue
		}
		sdt := el.SDT
		if strings.EqualFold(strings.TrimSpace(sdt.Gallery), sdtTOCGallery) {
			return sdt
		}
		if p := firstNonEmpty(sdt.Paragraphs); p != nil && e.isTOCKeyword(p.NormalizedText()) {
			return sdt
		}
	}
	return nil
}

// findTOCTitle 在正文前部寻找目录标题或Word目录域
func (e *Extractor) findTOCTitle(doc *docread.Document) (int, bool) {
	paras := doc.Paragraphs()
	limit := e.cfg.ScanParagraphs
	if limit > len(paras) {
		limit = len(paras)
	}
	for i := 0; i < limit; i++ {
		if e.isTOCKeyword(paras[i].NormalizedText()) {
			return i, true
		}
		if paras[i].HasTOCField {
			return i, true
		}
	}
	return 0, false
}

func (e *Extractor) isTOCKeyword(normalized string) bool {
	for _, kw := range e.cfg.TitleKeywords {
		if normalized == textutil.CollapseSpace(strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// extractFromSDT 解析SDT目录
// SDT内段落不占正文索引，EndIdx取SDT之后第一个正文段落的前一位
func (e *Extractor) extractFromSDT(sdt *docread.SDT) *Result {
	res := &Result{
		StartIdx: sdt.NextParaIdx - 2,
		EndIdx:   sdt.NextParaIdx - 1,
		FromSDT:  true,
	}
	for _, p := range sdt.Paragraphs {
		text := strings.TrimSpace(p.Text)
		if text == "" || e.isTOCKeyword(p.NormalizedText()) {
			continue
		}
		if item, ok := e.parseEntry(text, p); ok {
			res.Items = append(res.Items, item)
			if len(res.Items) >= e.cfg.MaxEntries {
				break
			}
		}
	}
	e.logger.WithFields(logrus.Fields{
		"entries": len(res.Items),
		"source":  "sdt",
	}).Debug("toc extracted")
	return res
}

// extractFromBody 从目录标题之后逐行解析条目
func (e *Extractor) extractFromBody(doc *docread.Document, tocStart int) *Result {
	paras := doc.Paragraphs()
	res := &Result{StartIdx: tocStart, EndIdx: tocStart + 1}

	misses := 0
	lastEntryIdx := tocStart
	limit := tocStart + 1 + e.cfg.MaxScanParagraphs
	if limit > len(paras) {
		limit = len(paras)
	}

	for i := tocStart + 1; i < limit; i++ {
		p := paras[i]
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}

		item, ok := e.parseEntry(text, p)
		if ok {
			// 与首条目高度相似的行意味着正文已经开始
			if len(res.Items) > 0 &&
				textutil.Ratio(textutil.Normalize(item.Title), textutil.Normalize(res.Items[0].Title)) >= e.cfg.EchoSimilarity {
				break
			}
			res.Items = append(res.Items, item)
			misses = 0
			lastEntryIdx = i
			if len(res.Items) >= e.cfg.MaxEntries {
				break
			}
			continue
		}

		misses++
		if p.IsHeading() && misses >= e.cfg.HeadingMisses {
			break
		}
		if misses >= e.cfg.MaxMisses && len(res.Items) > 0 {
			break
		}
	}

	if len(res.Items) > 0 {
		res.EndIdx = lastEntryIdx
	}
	e.logger.WithFields(logrus.Fields{
		"entries":   len(res.Items),
		"start_idx": res.StartIdx,
		"end_idx":   res.EndIdx,
	}).Debug("toc extracted")
	return res
}

// parseEntry 解析单行目录条目
// 先按五种页码格式匹配；都不中时按无页码条目的准入条件判断
func (e *Extractor) parseEntry(text string, p *docread.Paragraph) (Item, bool) {
	for _, re := range []*regexp.Regexp{reEntrySpace, reEntryDots, reEntryTab, reEntryChapter, reEntryDash} {
		if m := re.FindStringSubmatch(text); m != nil {
			title := cleanTitle(m[1])
			if title == "" {
				continue
			}
			page, _ := strconv.Atoi(m[2])
			return e.newItem(title, page), true
		}
	}

	// 无页码条目：短行、明显缩进或带章节前缀，且不是正文标题
	if textutil.RuneLen(text) <= e.cfg.PagelessMaxLen &&
		!e.isTOCKeyword(p.NormalizedText()) &&
		!p.IsHeading() &&
		(p.IndentLeft > e.cfg.MinIndentEMU || rePagelessChapter.MatchString(textutil.StripDecorations(text))) {
		return e.newItem(cleanTitle(text), 0), true
	}

	return Item{}, false
}

func (e *Extractor) newItem(title string, page int) Item {
	pfx := levels.ExtractPrefix(title)
	return Item{
		Title:               title,
		PageNum:             page,
		RawPrefix:           pfx.Raw,
		NormalizedPrefix:    pfx.Norm,
		IsContractPotential: ContractPotential(e.cfg, title),
	}
}

// ContractPotential 标题命中合同关键词且不含排除词
// 两阶段接口在enrich阶段需要重新判定，因此导出
func ContractPotential(cfg config.TOCConfig, title string) bool {
	hit := false
	for _, kw := range cfg.ContractKeywords {
		if strings.Contains(title, kw) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	for _, ex := range cfg.ContractExcludes {
		if strings.Contains(title, ex) {
			return false
		}
	}
	return true
}

// cleanTitle 去掉条目尾部残留的引导符和空白
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".…·\t ")
	return strings.TrimSpace(s)
}

// Titles 条目标题列表，C3层级分析的输入
func Titles(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

// ApplyLevels 将层级序列回填到条目
func ApplyLevels(items []Item, lv []int) error {
	if len(items) != len(lv) {
		return fmt.Errorf("level count %d does not match item count %d", len(lv), len(items))
	}
	for i := range items {
		items[i].Level = lv[i]
	}
	return nil
}

func firstNonEmpty(paras []*docread.Paragraph) *docread.Paragraph {
	for _, p := range paras {
		if strings.TrimSpace(p.Text) != "" {
			return p
		}
	}
	return nil
}
