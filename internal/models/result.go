package models

// 解析主路径标识
const (
	MethodTOCExact     = "toc_exact"     // 目录精确匹配管线
	MethodOutlineLevel = "outline_level" // 大纲级别/标题样式管线
	MethodLLMLevel     = "llm_level"     // 大模型层级分析管线
)

// Statistics 解析结果统计信息
// TotalWords 仅累加根章节，避免父子重复计数
type Statistics struct {
	TotalChapters           int     `json:"total_chapters"`
	TotalWords              int     `json:"total_words"`
	EstimatedProcessingCost float64 `json:"estimated_processing_cost"`
}

// KeySections 下游标书生成关注的三类关键章节标题
type KeySections struct {
	BusinessResponse []string `json:"business_response"`
	TechnicalSpec    []string `json:"technical_spec"`
	ContractContent  []string `json:"contract_content"`
}

// ParseResult parse_smart 的完整返回结果
type ParseResult struct {
	Success        bool           `json:"success"`
	Error          string         `json:"error,omitempty"`
	Chapters       []*ChapterNode `json:"chapters"`
	Statistics     Statistics     `json:"statistics"`
	PrimaryMethod  string         `json:"primary_method"`
	FallbackFrom   string         `json:"fallback_from,omitempty"`
	FallbackReason string         `json:"fallback_reason,omitempty"`
	KeySections    KeySections    `json:"key_sections"`
	Elapsed        float64        `json:"elapsed"` // 秒
}

// QuickResult parse_quick 的返回结果
// 章节树仅含标题与层级，范围和字数留待 enrich 填充
type QuickResult struct {
	Chapters  []*ChapterNode `json:"chapters"`
	TocEndIdx int            `json:"toc_end_idx"`
}

// EnrichResult enrich 的返回结果
type EnrichResult struct {
	Chapters   []*ChapterNode `json:"chapters"`
	Statistics Statistics     `json:"statistics"`
}

// ExportResult export_chapters 的返回结果
type ExportResult struct {
	FilePath string   `json:"file_path"`
	Titles   []string `json:"titles"`
	Count    int      `json:"count"`
}
