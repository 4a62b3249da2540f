package levels

import (
	"regexp"

	"github.com/fyerfyer/tender-parser/internal/textutil"
)

// Prefix 标题的编号前缀
// Raw 为原文（如"第三章"），Norm 为归一化形式（如"第X章"）
type Prefix struct {
	Raw  string
	Norm string
}

// 归一化前缀常量
const (
	NormChapter   = "第X章"
	NormPart      = "第X部分"
	NormVolume    = "第X册"
	NormSection   = "第X节"
	NormArticle   = "第X条"
	NormPiece     = "第X篇"
	NormAttach    = "附件N"
	NormAttachTbl = "附表N"
	NormAttachApp = "附录N"
	NormAttachFig = "附图N"
	NormDun       = "X、"
	NormParen     = "(X)"
	NormDot3      = "N.N.N"
	NormDot2      = "N.N"
	NormDot1      = "N."
)

const cnNum = `[0-9一二两三四五六七八九十百千零]`

var (
	reChapterPrefix = regexp.MustCompile(`^第` + cnNum + `+(章|部分|册|节|条|篇)`)
	reAttachPrefix  = regexp.MustCompile(`^(附件|附表|附录|附图)\s*` + cnNum + `*`)
	reDunPrefix     = regexp.MustCompile(`^` + cnNum + `+、`)
	reParenPrefix   = regexp.MustCompile(`^[（(]` + cnNum + `+[）)]`)
	reDot3Prefix    = regexp.MustCompile(`^\d+(?:\.\d+){2,}`)
	reDot2Prefix    = regexp.MustCompile(`^\d+\.\d+`)
	reDot1Prefix    = regexp.MustCompile(`^\d+[.、．]`)
)

var attachNorms = map[string]string{
	"附件": NormAttach,
	"附表": NormAttachTbl,
	"附录": NormAttachApp,
	"附图": NormAttachFig,
}

var chapterNorms = map[string]string{
	"章":  NormChapter,
	"部分": NormPart,
	"册":  NormVolume,
	"节":  NormSection,
	"条":  NormArticle,
	"篇":  NormPiece,
}

// ExtractPrefix 提取标题的编号前缀并归一化
// 按固定顺序尝试：第X章类、附件类、顿号枚举、括号枚举、多级数字编号
// 没有前缀时返回零值
func ExtractPrefix(title string) Prefix {
	t := textutil.StripDecorations(title)

	if m := reChapterPrefix.FindStringSubmatch(t); m != nil {
		return Prefix{Raw: m[0], Norm: chapterNorms[m[1]]}
	}
	if m := reAttachPrefix.FindStringSubmatch(t); m != nil {
		return Prefix{Raw: m[0], Norm: attachNorms[m[1]]}
	}
	if m := reDunPrefix.FindString(t); m != "" {
		return Prefix{Raw: m, Norm: NormDun}
	}
	if m := reParenPrefix.FindString(t); m != "" {
		return Prefix{Raw: m, Norm: NormParen}
	}
	if m := reDot3Prefix.FindString(t); m != "" {
		return Prefix{Raw: m, Norm: NormDot3}
	}
	if m := reDot2Prefix.FindString(t); m != "" {
		return Prefix{Raw: m, Norm: NormDot2}
	}
	if m := reDot1Prefix.FindString(t); m != "" {
		return Prefix{Raw: m, Norm: NormDot1}
	}
	return Prefix{}
}

// StripPrefix 去除标题的编号前缀，用于核心关键词匹配
func StripPrefix(title string) string {
	t := textutil.StripDecorations(title)
	p := ExtractPrefix(t)
	if p.Raw == "" {
		return t
	}
	return textutil.StripDecorations(t[len(p.Raw):])
}

// 前缀强度排序，数值越大越强
// 罕见前缀与前一条目前缀比较强弱时使用
var strengthRank = map[string]int{
	NormChapter:   9,
	NormPiece:     8,
	NormPart:      8,
	NormVolume:    7,
	NormSection:   6,
	NormAttach:    5,
	NormAttachTbl: 5,
	NormAttachApp: 5,
	NormAttachFig: 5,
	NormDun:       4,
	NormParen:     3,
	NormDot2:      2,
	NormDot1:      1,
	NormDot3:      1,
	NormArticle:   1,
}

// PrefixStrength 归一化前缀的强度值，未知前缀为0
func PrefixStrength(norm string) int {
	return strengthRank[norm]
}
