package enrich

import (
	"strings"

	"github.com/fyerfyer/tender-parser/config"
	"github.com/fyerfyer/tender-parser/internal/docread"
	"github.com/fyerfyer/tender-parser/internal/models"
	"github.com/fyerfyer/tender-parser/internal/textutil"
	"github.com/sirupsen/logrus"
)

// ContractDetector 合同条款聚类检测器
// 处理"投标文件格式"类章节末尾粘连合同文本的情况：
// 用加权关键词密度的滑动窗口找到合同聚类起点，把章节一分为二
type ContractDetector struct {
	cfg    config.ContractConfig
	logger *logrus.Logger
}

// NewContractDetector 创建合同聚类检测器
func NewContractDetector(cfg config.ContractConfig, logger *logrus.Logger) *ContractDetector {
	if logger == nil {
		logger = logrus.New()
	}
	return &ContractDetector{cfg: cfg, logger: logger}
}

// SplitAll 对所有标记为合同潜在的章节尝试拆分
// 拆出的新章节插在原章节之后，返回调整后的扁平列表
func (d *ContractDetector) SplitAll(doc *docread.Document, nodes []*models.ChapterNode) []*models.ChapterNode {
	out := make([]*models.ChapterNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
		if !n.ContractPotential || !n.Located() {
			continue
		}
		if extra := d.split(doc, n); extra != nil {
			out = append(out, extra)
		}
	}
	for i, n := range out {
		n.OrderIndex = i
	}
	return out
}

// split 在章节内寻找合同聚类并拆分
// 拆分需同时满足：聚类占比在配置区间内，聚类前的正文部分足够实
func (d *ContractDetector) split(doc *docread.Document, n *models.ChapterNode) *models.ChapterNode {
	start, end := n.ParaStartIdx, n.ParaEndIdx
	total := end - start + 1
	if total < d.cfg.WindowSize {
		return nil
	}

	winStart := d.findDenseWindow(doc, start, end)
	if winStart < 0 {
		return nil
	}

	clusterStart := d.refineStart(doc, winStart, start, end)
	clusterEnd := d.findClusterEnd(doc, winStart, end)

	// 占比门用扫描出的聚类终点；局部密集但尾部是普通正文时在此被拦下
	clusterParas := clusterEnd - clusterStart + 1
	ratio := float64(clusterParas) / float64(total)
	if ratio < d.cfg.MinClusterRatio || ratio > d.cfg.MaxClusterRatio {
		d.logger.WithFields(logrus.Fields{
			"title": n.Title,
			"ratio": ratio,
		}).Debug("contract cluster ratio out of range, keep chapter intact")
		return nil
	}

	headChars, headParas := 0, 0
	for i := start; i < clusterStart; i++ {
		if t := doc.Paragraph(i).Text; strings.TrimSpace(t) != "" {
			headChars += textutil.CountChars(t)
			headParas++
		}
	}
	if headChars < d.cfg.MinHeadChars || headParas < d.cfg.MinHeadParas {
		return nil
	}

	d.logger.WithFields(logrus.Fields{
		"title":         n.Title,
		"cluster_start": clusterStart,
	}).Info("contract cluster detected, splitting chapter")

	extra := &models.ChapterNode{
		Title:        models.ContractSplitTitle,
		Level:        n.Level,
		ParaStartIdx: clusterStart,
		ParaEndIdx:   end,
		ChapterType:  models.ChapterContractContent,
	}
	extra.AddTag("contract_cluster")
	n.ParaEndIdx = clusterStart - 1
	return extra
}

// findClusterEnd 从密集窗口起点按步长前扫，返回密度跌破阈值前最后一个密集窗口的终点
func (d *ContractDetector) findClusterEnd(doc *docread.Document, winStart, chapEnd int) int {
	endIdx := winStart + d.cfg.WindowSize - 1
	if endIdx > chapEnd {
		endIdx = chapEnd
	}
	for ws := winStart + d.cfg.StepSize; ws+d.cfg.WindowSize-1 <= chapEnd; ws += d.cfg.StepSize {
		we := ws + d.cfg.WindowSize - 1
		if d.windowDensity(doc, ws, we) < d.cfg.DensityThreshold {
			break
		}
		endIdx = we
	}
	return endIdx
}

// findDenseWindow 滑动窗口扫描，返回首个密度超阈值的窗口起点
func (d *ContractDetector) findDenseWindow(doc *docread.Document, start, end int) int {
	for ws := start; ws+d.cfg.WindowSize-1 <= end; ws += d.cfg.StepSize {
		we := ws + d.cfg.WindowSize - 1
		if d.windowDensity(doc, ws, we) >= d.cfg.DensityThreshold {
			return ws
		}
	}
	return -1
}

// windowDensity 窗口内的加权合同关键词密度，归一到[0,1]
func (d *ContractDetector) windowDensity(doc *docread.Document, ws, we int) float64 {
	score, chars := 0, 0
	for i := ws; i <= we && i < doc.ParagraphCount(); i++ {
		text := doc.Paragraph(i).Text
		chars += textutil.CountChars(text)
		for kw, w := range d.cfg.KeywordWeights {
			score += strings.Count(text, kw) * w
		}
	}
	if chars == 0 {
		return 0
	}
	density := float64(score) * 1000 / float64(chars) / 50
	if density > 1 {
		density = 1
	}
	return density
}

// refineStart 校准聚类起点
// 先在窗口前回溯强关键词（合同文本常以"合同的组成"等引入），
// 再退而在窗口内向前找首个强关键词段落
func (d *ContractDetector) refineStart(doc *docread.Document, winStart, chapStart, chapEnd int) int {
	backLimit := winStart - d.cfg.BackScanParas
	if backLimit < chapStart {
		backLimit = chapStart
	}
	for i := winStart - 1; i >= backLimit; i-- {
		if d.hasStrongKeyword(doc.Paragraph(i).Text) {
			return i
		}
	}
	winEnd := winStart + d.cfg.WindowSize - 1
	if winEnd > chapEnd {
		winEnd = chapEnd
	}
	for i := winStart; i <= winEnd; i++ {
		if d.hasStrongKeyword(doc.Paragraph(i).Text) {
			return i
		}
	}
	return winStart
}

func (d *ContractDetector) hasStrongKeyword(text string) bool {
	for _, kw := range d.cfg.StrongKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
