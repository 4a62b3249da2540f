package textutil

import (
	"strings"
	"unicode"
)

// 标题前常见的装饰符号，匹配前需剥离
var decorationRunes = map[rune]bool{
	'※': true, '★': true, '☆': true, '◆': true, '◇': true,
	'●': true, '○': true, '■': true, '□': true, '▲': true,
	'△': true, '>': true, '》': true, '·': true, '*': true,
}

// 激进归一化时一并去除的分隔符号
var separatorRunes = map[rune]bool{
	'-': true, '—': true, '_': true, '=': true, '、': true,
	'：': true, ':': true, '（': true, '）': true, '(': true,
	')': true, '.': true, '。': true, '，': true, ',': true,
	'《': true, '》': true, '“': true, '”': true,
}

// CountChars 按中文习惯统计字符数：去除所有空白和换行后的字符数
// 不区分中英文字符
func CountChars(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// CollapseSpace 去除字符串中的所有空白字符
func CollapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripDecorations 去除标题前导的装饰符号和空白
func StripDecorations(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || decorationRunes[r]
	})
}

// Normalize 激进归一化：去装饰符号、去分隔符、去空白
// 用于模糊匹配的中间层键
func Normalize(s string) string {
	s = StripDecorations(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || separatorRunes[r] || decorationRunes[r] {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Truncate 按字符数截断，超长时附加省略号
func Truncate(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max]) + "..."
}

// RuneLen 字符串的字符数
func RuneLen(s string) int {
	return len([]rune(s))
}
