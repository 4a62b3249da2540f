package levels

import (
	"github.com/fyerfyer/tender-parser/config"
	"github.com/fyerfyer/tender-parser/internal/textutil"
	"github.com/sirupsen/logrus"
)

// Analyzer 层级分析器
// 将标题列表映射为{1,2,3}层级序列；默认走上下文统计策略
type Analyzer struct {
	cfg    config.LevelConfig
	logger *logrus.Logger
}

// NewAnalyzer 创建层级分析器
func NewAnalyzer(cfg config.LevelConfig, logger *logrus.Logger) *Analyzer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Analyzer{cfg: cfg, logger: logger}
}

// Analyze 上下文统计策略：按编号前缀的分布和强弱关系推断层级
// 输出长度恒等于输入长度，每个值在[1, MaxLevel]内，且无层级跳跃
func (a *Analyzer) Analyze(titles []string) []int {
	n := len(titles)
	if n == 0 {
		return nil
	}

	prefixes := make([]Prefix, n)
	counts := make(map[string]int)
	for i, t := range titles {
		prefixes[i] = ExtractPrefix(t)
		if prefixes[i].Norm != "" {
			counts[prefixes[i].Norm]++
		}
	}

	// 整个目录只有一种前缀：平铺的兄弟章节
	if len(counts) == 1 && counts[firstKey(counts)] == n {
		levels := make([]int, n)
		for i := range levels {
			levels[i] = 1
		}
		return levels
	}

	hasChapter := counts[NormChapter] > 0 || counts[NormPart] > 0
	hasDun := counts[NormDun] > 0

	levels := make([]int, n)
	memo := make(map[string]int)
	current := 1

	for i := range titles {
		pfx := prefixes[i]
		var lvl int
		switch {
		case pfx.Norm == "":
			lvl = a.bareLineLevel(titles[i], current)
		default:
			if seen, ok := memo[pfx.Norm]; ok {
				lvl = seen
			} else {
				lvl = a.decideFirstSeen(pfx, i, current, prevNorm(prefixes, i), counts, hasChapter, hasDun)
				memo[pfx.Norm] = lvl
			}
		}
		lvl = a.clamp(lvl)
		levels[i] = lvl
		current = lvl
	}

	return a.Smooth(levels)
}

// bareLineLevel 无编号前缀的标题：短标题视为当前层级的下一级
func (a *Analyzer) bareLineLevel(title string, current int) int {
	if textutil.RuneLen(title) > a.cfg.BareLineMaxLen {
		return current
	}
	switch current {
	case 1:
		return 2
	case 2:
		return 3
	default:
		return current
	}
}

// decideFirstSeen 首次出现的归一化前缀定级，结果会被记住并复用
func (a *Analyzer) decideFirstSeen(pfx Prefix, idx, current int, prev string, counts map[string]int, hasChapter, hasDun bool) int {
	b := func(cond bool) int {
		if cond {
			return 1
		}
		return 0
	}

	switch pfx.Norm {
	case NormChapter, NormPart, NormPiece:
		return 1
	case NormVolume:
		// 册嵌在部分之下
		return 2
	case NormAttach, NormAttachTbl, NormAttachApp, NormAttachFig:
		return 2
	}

	// 数字编号前缀的层级由编号形态决定，不看出现次数
	switch pfx.Norm {
	case NormDun:
		return 1 + b(hasChapter)
	case NormDot1:
		return 1 + b(hasChapter) + b(hasDun)
	case NormDot2:
		return 2 + b(hasChapter) + b(hasDun)
	case NormDot3:
		return 3
	}

	// 仅出现一次且位于目录前部的前缀多为独立一级章节
	if counts[pfx.Norm] == 1 && idx < a.cfg.UniqueEarlyIndex {
		return 1
	}

	// 高频出现的前缀是结构性的兄弟序列，沿用当前层级
	if counts[pfx.Norm] > a.cfg.RareMaxCount {
		return current
	}

	// 罕见前缀与前一条目比较强弱
	sr := PrefixStrength(pfx.Norm)
	pr := PrefixStrength(prev)
	switch {
	case prev == "" || sr == pr:
		return current
	case sr > pr:
		return current - 1
	default:
		return current + 1
	}
}

// Smooth 前向平滑：禁止层级跳跃，levels[i] ≤ levels[i-1]+1
func (a *Analyzer) Smooth(levels []int) []int {
	for i := range levels {
		levels[i] = a.clamp(levels[i])
		if i > 0 && levels[i] > levels[i-1]+1 {
			levels[i] = levels[i-1] + 1
		}
	}
	return levels
}

func (a *Analyzer) clamp(lvl int) int {
	if lvl < 1 {
		return 1
	}
	if lvl > a.cfg.MaxLevel {
		return a.cfg.MaxLevel
	}
	return lvl
}

// MismatchRate 统计推断层级与Word大纲级别的不一致率
// outline中0表示该标题无大纲级别，不参与比较
func MismatchRate(assigned, outline []int) float64 {
	compared, mismatched := 0, 0
	for i := range assigned {
		if i >= len(outline) || outline[i] <= 0 {
			continue
		}
		compared++
		if assigned[i] != outline[i] {
			mismatched++
		}
	}
	if compared == 0 {
		return 0
	}
	return float64(mismatched) / float64(compared)
}

func prevNorm(prefixes []Prefix, i int) string {
	if i == 0 {
		return ""
	}
	return prefixes[i-1].Norm
}

func firstKey(m map[string]int) string {
	for k := range m {
		return k
	}
	return ""
}
