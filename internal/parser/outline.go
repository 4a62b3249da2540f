package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyerfyer/tender-parser/internal/docread"
	"github.com/fyerfyer/tender-parser/internal/levels"
	"github.com/fyerfyer/tender-parser/internal/locate"
	"github.com/fyerfyer/tender-parser/internal/models"
	"github.com/fyerfyer/tender-parser/internal/textutil"
)

// outlineChapters 大纲级别降级管线
// 没有目录时直接按Word标题样式和大纲级别扫出章节骨架
func (s *Service) outlineChapters(doc *docread.Document) []*models.ChapterNode {
	maxLevel := s.cfg.Parser.Level.MaxLevel
	bareMax := s.cfg.Parser.Level.BareLineMaxLen

	var nodes []*models.ChapterNode
	for _, p := range doc.Paragraphs() {
		lvl := headingLevel(p)
		if lvl == 0 {
			continue
		}
		text := textutil.CollapseSpace(p.Text)
		if text == "" {
			continue
		}
		if !candidateTitle(text, bareMax) {
			continue
		}
		if lvl > maxLevel {
			lvl = maxLevel
		}

		n := &models.ChapterNode{
			Title:        text,
			Level:        lvl,
			OrderIndex:   len(nodes),
			ParaStartIdx: p.Index,
			ParaEndIdx:   -1,
			ChapterType:  models.ChapterOther,
			// 大纲管线没有目录关键词可依据，一二级章节一律送合同聚类检测
			ContractPotential: lvl <= 2,
		}
		n.AddTag(fmt.Sprintf("outline_level_%d", lvl))
		nodes = append(nodes, n)
	}

	locate.ComputeEndIndices(nodes, doc.ParagraphCount()-1)
	return nodes
}

// scanChapters 无目录时的LLM兜底管线
// 全篇扫出带编号前缀的段落作为候选标题，送LLM定级后重建章节
func (s *Service) scanChapters(ctx context.Context, doc *docread.Document) []*models.ChapterNode {
	maxTitles := s.cfg.Parser.Anomaly.LLMScanMaxTitles
	bareMax := s.cfg.Parser.Level.BareLineMaxLen

	var paraIdx []int
	var titles []string
	for _, p := range doc.Paragraphs() {
		text := textutil.CollapseSpace(p.Text)
		if text == "" {
			continue
		}
		if levels.ExtractPrefix(text).Norm == "" {
			continue
		}
		// "7.3 长说明文字"类编号条款不是标题，章节前缀不受长度限制
		if !textutil.HasChapterPrefix(text) && textutil.RuneLen(text) > bareMax {
			continue
		}
		paraIdx = append(paraIdx, p.Index)
		titles = append(titles, text)
		if len(titles) >= maxTitles {
			break
		}
	}
	if len(titles) == 0 {
		return nil
	}

	lv, err := s.analyzer.AnalyzeLLM(ctx, s.llmClient, titles)
	if err != nil {
		s.logger.WithError(err).Warn("llm level analysis failed, keeping primary result")
		return nil
	}

	nodes := make([]*models.ChapterNode, 0, len(titles))
	for i, title := range titles {
		n := &models.ChapterNode{
			Title:             title,
			Level:             lv[i],
			OrderIndex:        i,
			ParaStartIdx:      paraIdx[i],
			ParaEndIdx:        -1,
			ChapterType:       models.ChapterOther,
			ContractPotential: lv[i] <= 2,
		}
		n.AddTag("llm_scan")
		nodes = append(nodes, n)
	}
	locate.ComputeEndIndices(nodes, doc.ParagraphCount()-1)
	return nodes
}

// headingLevel 段落的标题级别，0表示非标题
// Word大纲级别优先，其次标题样式名，再次加粗短行按一级处理
func headingLevel(p *docread.Paragraph) int {
	if lvl := p.OutlineHeadingLevel(); lvl > 0 {
		return lvl
	}
	if p.IsHeading() {
		if lvl := p.HeadingLevel(); lvl > 0 {
			return lvl
		}
		return 1
	}
	if p.RunHeading && textutil.HasChapterPrefix(p.Text) {
		return 1
	}
	return 0
}

// candidateTitle 过滤封面元数据行和长句
// "招标编号：xxx"类的键值行以及超长段落不是章节标题，
// 以章节前缀开头的不在此限
func candidateTitle(text string, bareMax int) bool {
	if textutil.HasChapterPrefix(text) {
		return true
	}
	if textutil.RuneLen(text) > bareMax {
		return false
	}
	if strings.ContainsAny(text, ":：") {
		return false
	}
	return true
}
