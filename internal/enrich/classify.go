package enrich

import (
	"regexp"

	"github.com/fyerfyer/tender-parser/config"
	"github.com/fyerfyer/tender-parser/internal/models"
	"github.com/sirupsen/logrus"
)

// Classifier 章节语义分类器
// 按配置规则顺序对标题做正则匹配，先命中先得，全不命中归为其他
type Classifier struct {
	rules  []compiledRule
	logger *logrus.Logger
}

type compiledRule struct {
	re  *regexp.Regexp
	typ models.ChapterType
}

// NewClassifier 编译分类规则，非法正则跳过并告警
func NewClassifier(cfg config.ClassifyConfig, logger *logrus.Logger) *Classifier {
	if logger == nil {
		logger = logrus.New()
	}
	c := &Classifier{logger: logger}
	for _, r := range cfg.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"pattern": r.Pattern,
				"error":   err,
			}).Warn("invalid classify rule pattern, skipped")
			continue
		}
		c.rules = append(c.rules, compiledRule{re: re, typ: models.ChapterType(r.Type)})
	}
	return c
}

// Classify 返回标题对应的章节类别
func (c *Classifier) Classify(title string) models.ChapterType {
	for _, r := range c.rules {
		if r.re.MatchString(title) {
			return r.typ
		}
	}
	return models.ChapterOther
}

// ClassifyAll 对章节树递归分类
// 合同聚类拆分出的章节已带类别，不再覆盖
func (c *Classifier) ClassifyAll(nodes []*models.ChapterNode) {
	for _, n := range nodes {
		n.Walk(func(ch *models.ChapterNode) {
			if ch.ChapterType == "" || ch.ChapterType == models.ChapterOther {
				ch.ChapterType = c.Classify(ch.Title)
			}
		})
	}
}

// ExtractKeySections 从分类结果中按文档顺序收集关键章节标题
func ExtractKeySections(nodes []*models.ChapterNode) models.KeySections {
	var ks models.KeySections
	for _, n := range nodes {
		n.Walk(func(ch *models.ChapterNode) {
			switch ch.ChapterType {
			case models.ChapterBusinessResponse:
				ks.BusinessResponse = append(ks.BusinessResponse, ch.Title)
			case models.ChapterTechnicalSpec:
				ks.TechnicalSpec = append(ks.TechnicalSpec, ch.Title)
			case models.ChapterContractContent, models.ChapterContractTerms:
				ks.ContractContent = append(ks.ContractContent, ch.Title)
			}
		})
	}
	return ks
}
