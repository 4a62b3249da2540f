package parser

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fyerfyer/tender-parser/config"
	"github.com/fyerfyer/tender-parser/internal/cache"
	"github.com/fyerfyer/tender-parser/internal/docread"
	"github.com/fyerfyer/tender-parser/internal/enrich"
	"github.com/fyerfyer/tender-parser/internal/levels"
	"github.com/fyerfyer/tender-parser/internal/llm"
	"github.com/fyerfyer/tender-parser/internal/locate"
	"github.com/fyerfyer/tender-parser/internal/models"
	"github.com/fyerfyer/tender-parser/internal/toc"
	"github.com/sirupsen/logrus"
)

// Service 标书结构解析服务
// 组合目录提取、层级分析、正文定位、内容增强各环节，
// 对外提供 ParseSmart、ParseQuick、Enrich、ExportChapters 四个操作
type Service struct {
	cfg       *config.Config
	logger    *logrus.Logger
	llmClient llm.Client
	store     cache.Cache

	extractor *toc.Extractor
	analyzer  *levels.Analyzer
	locator   *locate.Locator
	enricher  *enrich.Enricher
	contract  *enrich.ContractDetector
	classify  *enrich.Classifier
}

// Option 解析服务配置选项
type Option func(*Service)

// WithLLMClient 注入大模型客户端，用于层级分析降级
func WithLLMClient(client llm.Client) Option {
	return func(s *Service) { s.llmClient = client }
}

// WithCache 注入解析结果缓存
func WithCache(store cache.Cache) Option {
	return func(s *Service) { s.store = store }
}

// WithLogger 注入日志器
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService 创建解析服务
func NewService(cfg *config.Config, opts ...Option) *Service {
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.New()
	}

	p := cfg.Parser
	s.extractor = toc.NewExtractor(p.TOC, s.logger)
	s.analyzer = levels.NewAnalyzer(p.Level, s.logger)
	s.locator = locate.NewLocator(p.Locate, s.logger)
	s.enricher = enrich.NewEnricher(p.Preview, s.logger)
	s.contract = enrich.NewContractDetector(p.Contract, s.logger)
	s.classify = enrich.NewClassifier(p.Classify, s.logger)
	return s
}

// ParseSmart 一次性完成结构解析
// 主路径为目录管线；目录缺失时降级到大纲级别管线；
// 结果异常且配置了大模型时再用LLM层级分析重试一轮
func (s *Service) ParseSmart(ctx context.Context, path string) (*models.ParseResult, error) {
	startTime := time.Now()

	fileHash := s.cachedHash(path)
	if cached := s.loadCached(fileHash, "smart"); cached != nil {
		s.logger.WithField("path", path).Info("parse result served from cache")
		return cached, nil
	}

	doc, err := docread.Open(path)
	if err != nil {
		return nil, err
	}

	result := s.parseSmartDoc(ctx, doc)
	result.Elapsed = time.Since(startTime).Seconds()

	if result.Success {
		s.saveCached(fileHash, "smart", result)
	}
	return result, nil
}

func (s *Service) parseSmartDoc(ctx context.Context, doc *docread.Document) *models.ParseResult {
	result := &models.ParseResult{}

	flat, method, tocItems := s.structurePass(doc)
	result.PrimaryMethod = method

	// 异常检测对两条主管线一视同仁，必要时切到LLM兜底管线重做一轮
	reasons := s.detectAnomalies(flat, doc.ParagraphCount())
	if len(flat) == 0 {
		reasons = []string{"未识别出任何章节"}
	}
	if len(reasons) > 0 {
		if redone := s.retryWithLLM(ctx, doc, tocItems, reasons); len(redone) > 0 {
			result.FallbackFrom = method
			result.FallbackReason = reasons[0]
			result.PrimaryMethod = models.MethodLLMLevel
			flat = redone
		} else {
			s.logger.WithField("reasons", reasons).Warn("parse result anomalous, no llm fallback available")
		}
	}

	if len(flat) == 0 {
		result.Error = models.ErrNoChapters.Error()
		return result
	}

	roots := s.finishPass(doc, flat)
	result.Success = true
	result.Chapters = roots
	result.Statistics = s.buildStatistics(roots)
	result.KeySections = enrich.ExtractKeySections(roots)
	return result
}

// structurePass 生成扁平的已定位章节列表
// 返回值附带主路径标识和目录条目（供LLM重试复用）
func (s *Service) structurePass(doc *docread.Document) ([]*models.ChapterNode, string, []toc.Item) {
	tocResult, err := s.extractor.Extract(doc)
	if err != nil {
		if !errors.Is(err, models.ErrTOCNotFound) {
			s.logger.WithError(err).Warn("toc extraction failed, falling back to outline pipeline")
		}
		return s.outlineChapters(doc), models.MethodOutlineLevel, nil
	}

	titles := toc.Titles(tocResult.Items)
	lv := s.analyzer.Analyze(titles)
	if err := toc.ApplyLevels(tocResult.Items, lv); err != nil {
		s.logger.WithError(err).Error("level assignment mismatch")
		return s.outlineChapters(doc), models.MethodOutlineLevel, nil
	}

	flat := s.locator.LocateAll(doc.Paragraphs(), tocResult.Items, tocResult.EndIdx)
	s.checkOutlineMismatch(doc, flat)
	return flat, models.MethodTOCExact, tocResult.Items
}

// retryWithLLM LLM兜底管线
// 有目录条目时重新定级并重新定位；没有目录（大纲管线或零章节）时
// 改为扫描正文编号段落重建章节。LLM不可用或解析失败时返回nil，保留主结果
func (s *Service) retryWithLLM(ctx context.Context, doc *docread.Document, items []toc.Item, reasons []string) []*models.ChapterNode {
	if s.llmClient == nil {
		return nil
	}
	s.logger.WithField("reasons", reasons).Info("retrying level analysis with llm")

	if len(items) == 0 {
		return s.scanChapters(ctx, doc)
	}

	titles := toc.Titles(items)
	lv, err := s.analyzer.AnalyzeLLM(ctx, s.llmClient, titles)
	if err != nil {
		s.logger.WithError(err).Warn("llm level analysis failed, keeping statistical result")
		return nil
	}
	if err := toc.ApplyLevels(items, lv); err != nil {
		return nil
	}

	// 定位游标仍从目录之后开始
	tocEnd := 0
	if tocResult, terr := s.extractor.Extract(doc); terr == nil {
		tocEnd = tocResult.EndIdx
	}
	return s.locator.LocateAll(doc.Paragraphs(), items, tocEnd)
}

// finishPass 合同拆分、内容增强、分类、建树
func (s *Service) finishPass(doc *docread.Document, flat []*models.ChapterNode) []*models.ChapterNode {
	flat = s.contract.SplitAll(doc, flat)
	s.enricher.EnrichAll(doc, flat)
	roots := enrich.BuildTree(flat)
	s.classify.ClassifyAll(roots)
	return roots
}

// checkOutlineMismatch 对照Word大纲级别校验统计层级
func (s *Service) checkOutlineMismatch(doc *docread.Document, flat []*models.ChapterNode) {
	outline := locate.OutlineLevels(doc.Paragraphs(), flat)
	assigned := make([]int, len(flat))
	for i, n := range flat {
		assigned[i] = n.Level
	}
	rate := levels.MismatchRate(assigned, outline)
	if rate > s.cfg.Parser.Level.OutlineMismatchWarn {
		s.logger.WithField("mismatch_rate", rate).Warn("assigned levels disagree with document outline levels")
	}
}

// buildStatistics 根章节口径的统计汇总
func (s *Service) buildStatistics(roots []*models.ChapterNode) models.Statistics {
	totalWords := 0
	for _, n := range roots {
		totalWords += n.WordCount
	}
	return models.Statistics{
		TotalChapters:           models.CountChapters(roots),
		TotalWords:              totalWords,
		EstimatedProcessingCost: float64(totalWords) / 1000 * s.cfg.Parser.CostPerThousandChars,
	}
}

func (s *Service) cachedHash(path string) string {
	if s.store == nil {
		return ""
	}
	h, err := cache.HashFile(path)
	if err != nil {
		s.logger.WithError(err).Debug("file hash failed, cache skipped")
		return ""
	}
	return h
}

func (s *Service) loadCached(fileHash, mode string) *models.ParseResult {
	if s.store == nil || fileHash == "" {
		return nil
	}
	raw, found, err := s.store.Get(cache.ResultKey(fileHash, mode))
	if err != nil || !found {
		return nil
	}
	var result models.ParseResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil
	}
	return &result
}

func (s *Service) saveCached(fileHash, mode string, result *models.ParseResult) {
	if s.store == nil || fileHash == "" {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.store.Set(cache.ResultKey(fileHash, mode), string(raw), 0); err != nil {
		s.logger.WithError(err).Debug("cache write failed")
	}
}
