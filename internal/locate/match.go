package locate

import (
	"strings"

	"github.com/fyerfyer/tender-parser/internal/docread"
	"github.com/fyerfyer/tender-parser/internal/levels"
	"github.com/fyerfyer/tender-parser/internal/textutil"
)

// keys 匹配用的多层文本键
// 从原文逐层归一化：折叠空白 -> 激进归一化 -> 去编号前缀的核心关键词
type keys struct {
	text      string // 原文
	collapsed string // 去空白
	norm      string // 激进归一化（去装饰、去分隔符、去空白）
	core      string // 核心关键词（归一化+去编号前缀）
	hasPart   bool   // 含"第X部分"前缀
	chapNum   int    // 章节序号，无则0
	chapUnit  string // 章节单位（章/部/节…）
}

func makeKeys(text string) keys {
	k := keys{
		text:      text,
		collapsed: textutil.CollapseSpace(text),
		norm:      textutil.Normalize(text),
		core:      textutil.Normalize(levels.StripPrefix(text)),
		hasPart:   textutil.HasPartPrefix(text),
	}
	if n, unit, ok := textutil.ChapterNumber(textutil.StripDecorations(text)); ok {
		k.chapNum = n
		k.chapUnit = unit
	}
	return k
}

// 匹配层级的得分常量
const (
	scoreCoreEqual     = 100
	scoreCorePrefix    = 70
	scorePartPartial   = 70
	scoreCoreSuffix    = 50
	scoreLaxContains   = 40
	scoreCnArabicMatch = 30
)

// matchExact L1：折叠空白后全等，或目录标题是段落前缀
// 包含式命中要求段落是标题样式、足够短或以标题开头
func matchExact(t, p keys, para *docread.Paragraph, shortLen int) bool {
	if t.collapsed == "" || p.collapsed == "" {
		return false
	}
	if t.collapsed == p.collapsed {
		return true
	}
	if strings.Contains(p.collapsed, t.collapsed) {
		return para.IsHeading() ||
			textutil.RuneLen(p.collapsed) <= shortLen ||
			strings.HasPrefix(p.collapsed, t.collapsed)
	}
	return false
}

// matchNormalized L2：激进归一化后全等或受限包含
func matchNormalized(t, p keys, para *docread.Paragraph, shortLen int) bool {
	if t.norm == "" || p.norm == "" {
		return false
	}
	if t.norm == p.norm {
		return true
	}
	if strings.Contains(p.norm, t.norm) {
		return para.IsHeading() ||
			textutil.RuneLen(p.norm) <= shortLen ||
			strings.HasPrefix(p.norm, t.norm)
	}
	return false
}

// matchNoPrefix L3：去编号前缀后全等
// 目录标题带"第X部分"时，段落也须带同类前缀或使用标题样式
func matchNoPrefix(t, p keys, para *docread.Paragraph) bool {
	if t.core == "" || t.core != p.core {
		return false
	}
	if t.hasPart && !p.hasPart && !para.IsHeading() {
		return false
	}
	return true
}

// scoreCoreKeyword L4：核心关键词比对
func scoreCoreKeyword(t, p keys, minLen int) (int, string) {
	if textutil.RuneLen(t.core) < minLen {
		return 0, ""
	}
	switch {
	case t.core == p.core:
		return scoreCoreEqual, "core_equal"
	case strings.HasPrefix(p.core, t.core):
		return scoreCorePrefix, "core_prefix"
	case strings.HasSuffix(p.core, t.core):
		return scoreCoreSuffix, "core_suffix"
	}
	return 0, ""
}

// scorePartContains L4.5：双方都带"第X部分"前缀且段落较短时的部分包含
func scorePartContains(t, p keys) (int, string) {
	if !t.hasPart || !p.hasPart {
		return 0, ""
	}
	if textutil.RuneLen(p.collapsed) > 30 {
		return 0, ""
	}
	if strings.Contains(p.norm, t.core) || strings.Contains(t.norm, p.core) {
		return scorePartPartial, "part_partial"
	}
	return 0, ""
}

// scoreFuzzy L5：序列相似度
// 章节序号一致时提高置信度，否则封顶60
func scoreFuzzy(t, p keys, threshold float64) (int, string) {
	ratio := textutil.Ratio(t.norm, p.norm)
	if ratio < threshold {
		return 0, ""
	}
	if t.chapNum > 0 && t.chapNum == p.chapNum && t.chapUnit == p.chapUnit {
		return 80 + int(ratio*20), "fuzzy_same_chapter"
	}
	s := int(ratio * 100)
	if s > 60 {
		s = 60
	}
	return s, "fuzzy"
}

// scoreLax L6：去编号后的标题宽松包含于段落
func scoreLax(t, p keys) (int, string) {
	if textutil.RuneLen(t.core) < 3 {
		return 0, ""
	}
	if strings.Contains(p.norm, t.core) {
		return scoreLaxContains, "lax_contains"
	}
	return 0, ""
}

// scoreCnArabic L7：中文章节序号转阿拉伯数字后比对
func scoreCnArabic(t, p keys) (int, string) {
	if t.chapNum == 0 || p.chapNum == 0 {
		return 0, ""
	}
	ta := textutil.CollapseSpace(textutil.CnPrefixToArabic(t.text))
	pa := textutil.CollapseSpace(textutil.CnPrefixToArabic(p.text))
	if ta == pa || strings.HasPrefix(pa, ta) {
		return scoreCnArabicMatch, "cn_arabic"
	}
	return 0, ""
}
