package parser

import (
	"fmt"

	"github.com/fyerfyer/tender-parser/internal/models"
	"github.com/fyerfyer/tender-parser/internal/textutil"
)

// detectAnomalies 对解析结果做结构合理性检查
// 返回的原因列表为空表示结果可信；非空时调用方决定是否启用LLM重试
func (s *Service) detectAnomalies(flat []*models.ChapterNode, paraCount int) []string {
	var reasons []string
	cfg := s.cfg.Parser.Anomaly

	var level1 []*models.ChapterNode
	for _, n := range flat {
		if n.Level == 1 {
			level1 = append(level1, n)
		}
	}

	if len(level1) < cfg.MinLevel1Count {
		reasons = append(reasons, fmt.Sprintf("一级章节过少: %d", len(level1)))
	}

	if gap := chapterNumberGap(level1); gap > 0 {
		reasons = append(reasons, fmt.Sprintf("章节编号不连续，缺第%d章", gap))
	}

	if len(level1) > 0 {
		located := 0
		for _, n := range level1 {
			if n.Located() {
				located++
			}
		}
		if located > 0 && paraCount/located > cfg.MaxAvgParasPerL1 {
			reasons = append(reasons, fmt.Sprintf("一级章节粒度过粗，平均%d段", paraCount/located))
		}
	}

	return reasons
}

// chapterNumberGap 检查"第X章"序列是否跳号，返回缺失的最小编号
// 不足两个编号章节或编号并非从小到大时不判定
func chapterNumberGap(level1 []*models.ChapterNode) int {
	var nums []int
	for _, n := range level1 {
		if num, unit, ok := textutil.ChapterNumber(n.Title); ok && (unit == "章" || unit == "部") {
			nums = append(nums, num)
		}
	}
	if len(nums) < 2 {
		return 0
	}
	for i := 1; i < len(nums); i++ {
		if nums[i] <= nums[i-1] {
			return 0
		}
	}
	for i := 1; i < len(nums); i++ {
		if nums[i] != nums[i-1]+1 {
			return nums[i-1] + 1
		}
	}
	return 0
}
