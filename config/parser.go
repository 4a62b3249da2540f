package config

// ParserConfig 结构解析器的全部启发式规则
// 规则作为数据注入解析管线，便于调参和单独测试
type ParserConfig struct {
	TOC      TOCConfig      `mapstructure:"toc"`
	Level    LevelConfig    `mapstructure:"level"`
	Locate   LocateConfig   `mapstructure:"locate"`
	Contract ContractConfig `mapstructure:"contract"`
	Classify ClassifyConfig `mapstructure:"classify"`
	Anomaly  AnomalyConfig  `mapstructure:"anomaly"`
	Preview  PreviewConfig  `mapstructure:"preview"`

	// CostPerThousandChars 每千字的处理成本估算，用于statistics
	CostPerThousandChars float64 `mapstructure:"cost_per_thousand_chars"`
}

// TOCConfig 目录检测与解析规则
type TOCConfig struct {
	ScanParagraphs    int      `mapstructure:"scan_paragraphs"`     // 目录标题扫描范围（正文前N段）
	MaxScanParagraphs int      `mapstructure:"max_scan_paragraphs"` // 目录条目扫描上限
	MaxEntries        int      `mapstructure:"max_entries"`         // 目录条目数上限
	MaxMisses         int      `mapstructure:"max_misses"`          // 连续未命中多少行后终止
	HeadingMisses     int      `mapstructure:"heading_misses"`      // 几次未命中后遇到标题样式即终止
	EchoSimilarity    float64  `mapstructure:"echo_similarity"`     // 与首条目录项的相似度阈值（正文开始信号）
	PagelessMaxLen    int      `mapstructure:"pageless_max_len"`    // 无页码条目的长度上限
	MinIndentEMU      int64    `mapstructure:"min_indent_emu"`      // 无页码条目的最小左缩进
	TitleKeywords     []string `mapstructure:"title_keywords"`      // 目录标题关键词
	ContractKeywords  []string `mapstructure:"contract_keywords"`   // 合同潜在章节关键词
	ContractExcludes  []string `mapstructure:"contract_excludes"`   // 合同潜在章节排除词
}

// LevelConfig 层级分析规则
type LevelConfig struct {
	MaxLevel            int     `mapstructure:"max_level"`             // 最大层级
	BareLineMaxLen      int     `mapstructure:"bare_line_max_len"`     // 无前缀标题的长度上限（超长继承当前层级）
	UniqueEarlyIndex    int     `mapstructure:"unique_early_index"`    // 唯一前缀且条目序号小于此值时判为一级
	RareMaxCount        int     `mapstructure:"rare_max_count"`        // 出现次数不超过此值视为罕见前缀
	OutlineMismatchWarn float64 `mapstructure:"outline_mismatch_warn"` // 与Word大纲级别的不一致率告警阈值
	LLMMaxTitles        int     `mapstructure:"llm_max_titles"`        // 送入LLM的标题数上限
}

// LocateConfig 正文定位规则
type LocateConfig struct {
	FuzzyThreshold     float64 `mapstructure:"fuzzy_threshold"`      // 模糊匹配相似度下限
	MinKeywordLen      int     `mapstructure:"min_keyword_len"`      // 核心关键词匹配的最小长度
	ShortParaLen       int     `mapstructure:"short_para_len"`       // 包含匹配允许的段落长度上限
	MetadataMinTitles  int     `mapstructure:"metadata_min_titles"`  // 元数据列表区最少标题数
	MetadataMaxGap     int     `mapstructure:"metadata_max_gap"`     // 元数据列表区标题间的最大字符数
	MetadataTitleLen   int     `mapstructure:"metadata_title_len"`   // 元数据列表区内标题行的长度上限
	MetadataEchoSim    float64 `mapstructure:"metadata_echo_sim"`    // 标题行视为目录复述的相似度下限
}

// ContractConfig 合同聚类检测规则
type ContractConfig struct {
	WindowSize       int                `mapstructure:"window_size"`        // 滑动窗口大小（段落数）
	StepSize         int                `mapstructure:"step_size"`          // 滑动步长
	DensityThreshold float64            `mapstructure:"density_threshold"`  // 合同密度阈值
	MinClusterRatio  float64            `mapstructure:"min_cluster_ratio"`  // 聚类占章节比例下限
	MaxClusterRatio  float64            `mapstructure:"max_cluster_ratio"`  // 聚类占章节比例上限
	MinHeadChars     int                `mapstructure:"min_head_chars"`     // 聚类前正文部分的最少字符数
	MinHeadParas     int                `mapstructure:"min_head_paras"`     // 聚类前正文部分的最少段落数
	BackScanParas    int                `mapstructure:"back_scan_paras"`    // 向前回溯强关键词的段落数
	KeywordWeights   map[string]int     `mapstructure:"keyword_weights"`    // 合同关键词权重表
	StrongKeywords   []string           `mapstructure:"strong_keywords"`    // 聚类起点定位用的强关键词
}

// ClassifyRule 章节分类规则，按顺序匹配，先命中先得
type ClassifyRule struct {
	Pattern string `mapstructure:"pattern"` // 标题正则
	Type    string `mapstructure:"type"`    // 章节类别
}

// ClassifyConfig 章节分类规则集
type ClassifyConfig struct {
	Rules []ClassifyRule `mapstructure:"rules"`
}

// AnomalyConfig 解析结果异常判定与LLM兜底阈值
type AnomalyConfig struct {
	MinLevel1Count   int `mapstructure:"min_level1_count"`     // 一级章节数下限
	MaxAvgParasPerL1 int `mapstructure:"max_avg_paras_per_l1"` // 每个一级章节的平均段落数上限
	LLMScanMaxTitles int `mapstructure:"llm_scan_max_titles"`  // LLM兜底管线送审的候选标题上限
}

// PreviewConfig 预览提取规则
type PreviewConfig struct {
	MaxLines   int `mapstructure:"max_lines"`    // 最多提取行数
	MaxLineLen int `mapstructure:"max_line_len"` // 单行截断长度
	TableRows  int `mapstructure:"table_rows"`   // 首个表格最多展示行数
}

// DefaultParserConfig 返回内置的解析规则默认值
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		TOC: TOCConfig{
			ScanParagraphs:    50,
			MaxScanParagraphs: 150,
			MaxEntries:        200,
			MaxMisses:         5,
			HeadingMisses:     2,
			EchoSimilarity:    0.70,
			PagelessMaxLen:    50,
			MinIndentEMU:      200000,
			TitleKeywords: []string{
				"目录", "目 录", "contents", "table of contents",
				"catalogue", "index", "章节目录", "内容目录",
			},
			ContractKeywords: []string{
				"合同条款", "合同文本", "合同范本", "合同协议", "合同格式",
				"通用条款", "专用条款", "拟签合同", "合同草稿", "合同主要条款",
			},
			ContractExcludes: []string{
				"投标人须知", "投标邀请", "附件", "用户需求", "技术要求",
				"评分", "评审", "开标", "报价", "资格审查",
			},
		},
		Level: LevelConfig{
			MaxLevel:            3,
			BareLineMaxLen:      40,
			UniqueEarlyIndex:    10,
			RareMaxCount:        5,
			OutlineMismatchWarn: 0.30,
			LLMMaxTitles:        200,
		},
		Locate: LocateConfig{
			FuzzyThreshold:    0.60,
			MinKeywordLen:     4,
			ShortParaLen:      20,
			MetadataMinTitles: 3,
			MetadataMaxGap:    100,
			MetadataTitleLen:  30,
			MetadataEchoSim:   0.85,
		},
		Contract: ContractConfig{
			WindowSize:       50,
			StepSize:         10,
			DensityThreshold: 0.20,
			MinClusterRatio:  0.20,
			MaxClusterRatio:  0.80,
			MinHeadChars:     1000,
			MinHeadParas:     5,
			BackScanParas:    30,
			KeywordWeights: map[string]int{
				"甲方": 3, "乙方": 3, "丙方": 3,
				"违约金": 2, "履约保证金": 2, "本合同": 2, "合同生效": 2,
				"合同解除": 2, "合同终止": 2, "争议解决": 2,
				"付款": 1, "验收": 1, "保密": 1, "仲裁": 1,
				"赔偿": 1, "违约责任": 1, "不可抗力": 1, "知识产权": 1,
			},
			StrongKeywords: []string{"甲方", "乙方", "本合同", "合同的组成"},
		},
		Classify: ClassifyConfig{
			Rules: []ClassifyRule{
				{Pattern: `投标邀请|招标公告|采购公告|竞谈公告`, Type: "invitation"},
				{Pattern: `投标人须知|应答人须知|供应商须知`, Type: "bidder_notice"},
				{Pattern: `评标办法|评分标准|评审办法|评分细则`, Type: "evaluation"},
				{Pattern: `合同条款|合同格式|通用条款|专用条款`, Type: "contract_terms"},
				{Pattern: `服务合同|采购合同|合同正文|合同书|合同范本|合同协议`, Type: "contract_content"},
				{Pattern: `投标文件格式|资格证明|授权委托书|响应文件格式`, Type: "business_response"},
				{Pattern: `技术规范|技术要求|技术需求|用户需求`, Type: "technical_spec"},
				{Pattern: `^附件|^附录|^附表|^附图`, Type: "appendix"},
			},
		},
		Anomaly: AnomalyConfig{
			MinLevel1Count:   3,
			MaxAvgParasPerL1: 150,
			LLMScanMaxTitles: 200,
		},
		Preview: PreviewConfig{
			MaxLines:   5,
			MaxLineLen: 100,
			TableRows:  3,
		},
		CostPerThousandChars: 0.05,
	}
}

// mergeParserDefaults 对未配置的解析规则字段回填默认值
// viper只覆盖配置文件中出现的字段，未出现的保持零值
func mergeParserDefaults(p ParserConfig) ParserConfig {
	def := DefaultParserConfig()
	if p.TOC.ScanParagraphs == 0 {
		p.TOC = def.TOC
	}
	if p.Level.MaxLevel == 0 {
		p.Level = def.Level
	}
	if p.Locate.FuzzyThreshold == 0 {
		p.Locate = def.Locate
	}
	if p.Locate.MetadataEchoSim == 0 {
		p.Locate.MetadataEchoSim = def.Locate.MetadataEchoSim
	}
	if p.Contract.WindowSize == 0 {
		p.Contract = def.Contract
	}
	if len(p.Classify.Rules) == 0 {
		p.Classify = def.Classify
	}
	if p.Anomaly.MinLevel1Count == 0 {
		p.Anomaly = def.Anomaly
	}
	if p.Anomaly.LLMScanMaxTitles == 0 {
		p.Anomaly.LLMScanMaxTitles = def.Anomaly.LLMScanMaxTitles
	}
	if p.Preview.MaxLines == 0 {
		p.Preview = def.Preview
	}
	if p.CostPerThousandChars == 0 {
		p.CostPerThousandChars = def.CostPerThousandChars
	}
	return p
}
