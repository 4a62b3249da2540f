package locate

import (
	"github.com/fyerfyer/tender-parser/config"
	"github.com/fyerfyer/tender-parser/internal/docread"
	"github.com/fyerfyer/tender-parser/internal/models"
	"github.com/fyerfyer/tender-parser/internal/textutil"
	"github.com/fyerfyer/tender-parser/internal/toc"
	"github.com/sirupsen/logrus"
)

// Locator 正文定位器
// 把目录条目映射到正文段落索引；搜索游标单调前进，绝不回退
type Locator struct {
	cfg    config.LocateConfig
	logger *logrus.Logger
}

// NewLocator 创建正文定位器
func NewLocator(cfg config.LocateConfig, logger *logrus.Logger) *Locator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Locator{cfg: cfg, logger: logger}
}

// LocateAll 为每条目录项定位正文段落，生成扁平章节列表
// 未定位到的条目保留为 ParaStartIdx = ParaEndIdx = -1
// 返回的章节已按"直到下一个同级或更高级标题"计算好结束索引
func (l *Locator) LocateAll(paras []*docread.Paragraph, items []toc.Item, tocEndIdx int) []*models.ChapterNode {
	paraKeys := make([]keys, len(paras))
	for i, p := range paras {
		paraKeys[i] = makeKeys(p.Text)
	}

	metaRegion := l.detectMetadataRegions(paras, paraKeys, items, tocEndIdx)

	nodes := make([]*models.ChapterNode, 0, len(items))
	cursor := tocEndIdx + 1
	if cursor < 0 {
		cursor = 0
	}

	for order, item := range items {
		tk := makeKeys(item.Title)
		start, reason := l.locateOne(paras, paraKeys, tk, cursor, metaRegion)
		if start >= 0 {
			cursor = start + 1
			l.logger.WithFields(logrus.Fields{
				"title": item.Title,
				"para":  start,
				"via":   reason,
			}).Debug("toc entry located")
		} else {
			l.logger.WithField("title", item.Title).Warn("toc entry not located in body")
		}

		nodes = append(nodes, &models.ChapterNode{
			Title:             item.Title,
			Level:             item.Level,
			OrderIndex:        order,
			ParaStartIdx:      start,
			ParaEndIdx:        -1,
			ChapterType:       models.ChapterOther,
			ContractPotential: item.IsContractPotential,
		})
	}

	ComputeEndIndices(nodes, len(paras)-1)
	return nodes
}

// locateOne 两阶段定位单条目录项
// 严格阶段（L1-L3）命中即返回；宽松阶段（L4-L7）收集候选取最高分
func (l *Locator) locateOne(paras []*docread.Paragraph, paraKeys []keys, tk keys, cursor int, metaRegion []bool) (int, string) {
	// 严格阶段
	for i := cursor; i < len(paras); i++ {
		if paraKeys[i].collapsed == "" {
			continue
		}
		p := paras[i]
		if matchExact(tk, paraKeys[i], p, l.cfg.ShortParaLen) || matchNormalized(tk, paraKeys[i], p, l.cfg.ShortParaLen) {
			if l.skipByMetadataGuard(i, p, metaRegion) {
				continue
			}
			return i, "strict"
		}
		if matchNoPrefix(tk, paraKeys[i], p) {
			return i, "no_prefix"
		}
	}

	// 宽松阶段
	bestIdx, bestScore := -1, 0
	bestReason := ""
	for i := cursor; i < len(paras); i++ {
		if paraKeys[i].collapsed == "" {
			continue
		}
		score, reason := l.looseScore(tk, paraKeys[i])
		if score > bestScore {
			bestIdx, bestScore, bestReason = i, score, reason
		}
	}
	if bestIdx >= 0 {
		return bestIdx, bestReason
	}
	return -1, ""
}

// looseScore 取L4-L7中的最高分
func (l *Locator) looseScore(tk, pk keys) (int, string) {
	best, reason := 0, ""
	if s, r := scoreCoreKeyword(tk, pk, l.cfg.MinKeywordLen); s > best {
		best, reason = s, r
	}
	if s, r := scorePartContains(tk, pk); s > best {
		best, reason = s, r
	}
	if s, r := scoreFuzzy(tk, pk, l.cfg.FuzzyThreshold); s > best {
		best, reason = s, r
	}
	if s, r := scoreLax(tk, pk); s > best {
		best, reason = s, r
	}
	if s, r := scoreCnArabic(tk, pk); s > best {
		best, reason = s, r
	}
	return best, reason
}

// skipByMetadataGuard 命中段落位于元数据列表区时跳过
// 真正的"第X章"标题样式段落不受此限制
func (l *Locator) skipByMetadataGuard(idx int, p *docread.Paragraph, metaRegion []bool) bool {
	if idx >= len(metaRegion) || !metaRegion[idx] {
		return false
	}
	if p.IsHeading() && textutil.HasChapterPrefix(p.Text) {
		return false
	}
	return true
}

// detectMetadataRegions 识别"文件构成"式的元数据列表区
// 连续的短段落逐条复述目录标题、其间几乎没有正文时，整段标记为列表区
func (l *Locator) detectMetadataRegions(paras []*docread.Paragraph, paraKeys []keys, items []toc.Item, tocEndIdx int) []bool {
	region := make([]bool, len(paras))

	titleNorms := make(map[string]bool, len(items))
	for _, it := range items {
		titleNorms[textutil.Normalize(it.Title)] = true
	}

	isTitleEcho := func(i int) bool {
		if textutil.RuneLen(paraKeys[i].collapsed) > l.cfg.MetadataTitleLen {
			return false
		}
		if titleNorms[paraKeys[i].norm] {
			return true
		}
		for norm := range titleNorms {
			if norm != "" && textutil.Ratio(paraKeys[i].norm, norm) >= l.cfg.MetadataEchoSim {
				return true
			}
		}
		return false
	}

	i := tocEndIdx + 1
	if i < 0 {
		i = 0
	}
	for ; i < len(paras); i++ {
		if !isTitleEcho(i) {
			continue
		}
		// 从i开始展开一个候选列表区
		runStart := i
		runEnd := i
		echoes := 1
		gapChars := 0
		for j := i + 1; j < len(paras); j++ {
			if isTitleEcho(j) {
				echoes++
				runEnd = j
				gapChars = 0
				continue
			}
			gapChars += textutil.CountChars(paras[j].Text)
			if gapChars >= l.cfg.MetadataMaxGap {
				break
			}
		}
		if echoes >= l.cfg.MetadataMinTitles {
			for k := runStart; k <= runEnd; k++ {
				region[k] = true
			}
		}
		i = runEnd
	}
	return region
}

// ComputeEndIndices 计算每章的结束段落索引
// 结束于下一个同级或更高级章节的前一段；没有则到文档末尾
// 由此保证父章节的范围覆盖全部后代
func ComputeEndIndices(nodes []*models.ChapterNode, lastParaIdx int) {
	for i, n := range nodes {
		if !n.Located() {
			continue
		}
		end := lastParaIdx
		for j := i + 1; j < len(nodes); j++ {
			if !nodes[j].Located() {
				continue
			}
			if nodes[j].Level <= n.Level {
				end = nodes[j].ParaStartIdx - 1
				break
			}
		}
		if end < n.ParaStartIdx {
			end = n.ParaStartIdx
		}
		n.ParaEndIdx = end
	}
}

// OutlineLevels 收集已定位章节起始段落的Word标题级别
// 与统计推断的层级做一致性校验
func OutlineLevels(paras []*docread.Paragraph, nodes []*models.ChapterNode) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		if !n.Located() || n.ParaStartIdx >= len(paras) {
			continue
		}
		p := paras[n.ParaStartIdx]
		if lvl := p.OutlineHeadingLevel(); lvl > 0 {
			out[i] = lvl
		} else if lvl := p.HeadingLevel(); lvl > 0 {
			out[i] = lvl
		}
	}
	return out
}
