package parser

import (
	"context"
	"sort"

	"github.com/fyerfyer/tender-parser/internal/docread"
	"github.com/fyerfyer/tender-parser/internal/enrich"
	"github.com/fyerfyer/tender-parser/internal/models"
	"github.com/fyerfyer/tender-parser/internal/toc"
)

// ParseQuick 两阶段接口的第一阶段
// 只做目录提取和层级分析，秒级返回章节骨架供前端先行展示；
// 段落范围和字数留待Enrich填充
func (s *Service) ParseQuick(ctx context.Context, path string) (*models.QuickResult, error) {
	doc, err := docread.Open(path)
	if err != nil {
		return nil, err
	}

	tocResult, err := s.extractor.Extract(doc)
	if err != nil {
		return nil, err
	}

	titles := toc.Titles(tocResult.Items)
	lv := s.quickLevels(ctx, titles)
	if err := toc.ApplyLevels(tocResult.Items, lv); err != nil {
		return nil, err
	}

	flat := make([]*models.ChapterNode, 0, len(tocResult.Items))
	for i, item := range tocResult.Items {
		flat = append(flat, &models.ChapterNode{
			Title:        item.Title,
			Level:        item.Level,
			OrderIndex:   i,
			ParaStartIdx: -1,
			ParaEndIdx:   -1,
			ChapterType:  models.ChapterOther,
		})
	}

	roots := enrich.BuildTree(flat)
	s.classify.ClassifyAll(roots)
	return &models.QuickResult{
		Chapters:  roots,
		TocEndIdx: tocResult.EndIdx,
	}, nil
}

// quickLevels 层级分析，配置允许且客户端可用时优先LLM
func (s *Service) quickLevels(ctx context.Context, titles []string) []int {
	if s.cfg.LLM.UseForLevels && s.llmClient != nil {
		lv, err := s.analyzer.AnalyzeLLM(ctx, s.llmClient, titles)
		if err == nil {
			return lv
		}
		s.logger.WithError(err).Warn("llm level analysis failed, using statistical analysis")
	}
	return s.analyzer.Analyze(titles)
}

// Enrich 两阶段接口的第二阶段
// 按快速结果的章节骨架完成正文定位、合同拆分、内容增强和分类
func (s *Service) Enrich(ctx context.Context, path string, quick *models.QuickResult) (*models.EnrichResult, error) {
	doc, err := docread.Open(path)
	if err != nil {
		return nil, err
	}

	flat := enrich.FlattenOrdered(quick.Chapters)
	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].OrderIndex < flat[j].OrderIndex
	})

	items := make([]toc.Item, 0, len(flat))
	for _, n := range flat {
		items = append(items, toc.Item{
			Title:               n.Title,
			Level:               n.Level,
			IsContractPotential: toc.ContractPotential(s.cfg.Parser.TOC, n.Title),
		})
	}

	located := s.locator.LocateAll(doc.Paragraphs(), items, quick.TocEndIdx)
	for i, n := range flat {
		n.ParaStartIdx = located[i].ParaStartIdx
		n.ParaEndIdx = located[i].ParaEndIdx
		n.ContractPotential = located[i].ContractPotential
	}

	roots := s.finishPass(doc, flat)
	return &models.EnrichResult{
		Chapters:   roots,
		Statistics: s.buildStatistics(roots),
	}, nil
}
