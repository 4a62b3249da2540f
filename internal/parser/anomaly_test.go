package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyerfyer/tender-parser/internal/models"
)

func level1Nodes(titles ...string) []*models.ChapterNode {
	out := make([]*models.ChapterNode, len(titles))
	for i, title := range titles {
		out[i] = &models.ChapterNode{Title: title, Level: 1}
	}
	return out
}

func TestChapterNumberGap(t *testing.T) {
	cases := []struct {
		name   string
		titles []string
		want   int
	}{
		{"连续编号", []string{"第一章 公告", "第二章 须知", "第三章 评标"}, 0},
		{"跳号", []string{"第一章 公告", "第二章 须知", "第四章 合同"}, 3},
		{"部字编号跳号", []string{"第一部分 公告", "第三部分 须知"}, 2},
		{"单个编号不判定", []string{"第一章 公告", "附件"}, 0},
		{"乱序不判定", []string{"第三章 评标", "第一章 公告"}, 0},
		{"无编号", []string{"概述", "附录"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, chapterNumberGap(level1Nodes(tc.titles...)))
		})
	}
}
