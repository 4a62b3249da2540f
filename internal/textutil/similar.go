package textutil

// Ratio 计算两个字符串的相似度，范围[0,1]
// 与 Python difflib 的 ratio 同口径：2*公共字符数/总长度
// 公共字符数按最长公共子序列计算
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	m := lcsLen(ra, rb)
	return 2.0 * float64(m) / float64(len(ra)+len(rb))
}

// lcsLen 最长公共子序列长度，滚动数组实现
func lcsLen(a, b []rune) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := 1; i <= len(b); i++ {
		for j := 1; j <= len(a); j++ {
			if b[i-1] == a[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}
