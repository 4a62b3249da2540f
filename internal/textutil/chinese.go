package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var cnDigits = map[rune]int{
	'零': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

var cnUnits = map[rune]int{
	'十': 10, '百': 100, '千': 1000,
}

// CnNumToInt 中文数字转阿拉伯数字，支持到千位
// 无法解析时返回 (0, false)
func CnNumToInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	total, section := 0, 0
	matched := false
	for _, r := range s {
		if d, ok := cnDigits[r]; ok {
			section = d
			matched = true
			continue
		}
		if u, ok := cnUnits[r]; ok {
			if section == 0 {
				section = 1 // "十五" 形式的前导单位
			}
			total += section * u
			section = 0
			matched = true
			continue
		}
		return 0, false
	}
	if !matched {
		return 0, false
	}
	return total + section, true
}

var reChapterNum = regexp.MustCompile(`第([0-9一二两三四五六七八九十百千零]+)([章部节篇册条])`)

// ChapterNumber 提取"第X章/第X部分"类前缀中的序号
// 返回 (序号, 单位字符, 是否命中)
func ChapterNumber(title string) (int, string, bool) {
	m := reChapterNum.FindStringSubmatch(title)
	if m == nil {
		return 0, "", false
	}
	n, ok := CnNumToInt(m[1])
	if !ok {
		return 0, "", false
	}
	return n, m[2], true
}

// CnPrefixToArabic 将标题前缀中的中文章节序号改写为阿拉伯数字
// 例如 "第三章 评标办法" -> "第3章 评标办法"；无章节前缀时原样返回
func CnPrefixToArabic(title string) string {
	m := reChapterNum.FindStringSubmatchIndex(title)
	if m == nil {
		return title
	}
	n, ok := CnNumToInt(title[m[2]:m[3]])
	if !ok {
		return title
	}
	return title[:m[2]] + strconv.Itoa(n) + title[m[3]:]
}

// HasChapterPrefix 标题是否以"第X章/第X部分"等编号开头
func HasChapterPrefix(title string) bool {
	t := StripDecorations(title)
	loc := reChapterNum.FindStringIndex(t)
	return loc != nil && loc[0] == 0
}

// HasPartPrefix 标题是否含"第X部分"前缀
func HasPartPrefix(title string) bool {
	t := StripDecorations(title)
	if !strings.Contains(t, "部分") {
		return false
	}
	_, unit, ok := ChapterNumber(t)
	return ok && unit == "部"
}
