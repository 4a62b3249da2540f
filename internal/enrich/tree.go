package enrich

import (
	"fmt"

	"github.com/fyerfyer/tender-parser/internal/models"
)

// BuildTree 把扁平章节列表按层级折叠成树
// 每个章节挂到前方最近的更高层级章节下；开头若出现低层级孤儿则升为根
func BuildTree(flat []*models.ChapterNode) []*models.ChapterNode {
	var roots []*models.ChapterNode
	var stack []*models.ChapterNode

	for _, n := range flat {
		n.Children = nil
		for len(stack) > 0 && stack[len(stack)-1].Level >= n.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, n)
		}
		stack = append(stack, n)
	}

	AssignIDs(roots)
	return roots
}

// AssignIDs 按树路径生成稳定的章节ID，形如 ch_1、ch_1_2
func AssignIDs(roots []*models.ChapterNode) {
	var walk func(nodes []*models.ChapterNode, prefix string)
	walk = func(nodes []*models.ChapterNode, prefix string) {
		for i, n := range nodes {
			n.ID = fmt.Sprintf("%s_%d", prefix, i+1)
			walk(n.Children, n.ID)
		}
	}
	walk(roots, "ch")
}

// FlattenOrdered 前序展开章节树，保持文档顺序
func FlattenOrdered(roots []*models.ChapterNode) []*models.ChapterNode {
	var out []*models.ChapterNode
	for _, n := range roots {
		n.Walk(func(ch *models.ChapterNode) {
			out = append(out, ch)
		})
	}
	return out
}
