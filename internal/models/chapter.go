package models

// ChapterType 章节语义类别
type ChapterType string

const (
	// ChapterInvitation 投标邀请/招标公告
	ChapterInvitation ChapterType = "invitation"
	// ChapterBidderNotice 投标人须知
	ChapterBidderNotice ChapterType = "bidder_notice"
	// ChapterEvaluation 评标办法/评分标准
	ChapterEvaluation ChapterType = "evaluation"
	// ChapterContractTerms 合同条款/合同格式
	ChapterContractTerms ChapterType = "contract_terms"
	// ChapterContractContent 合同正文/合同范本
	ChapterContractContent ChapterType = "contract_content"
	// ChapterBusinessResponse 投标文件格式/资格证明等商务应答材料
	ChapterBusinessResponse ChapterType = "business_response"
	// ChapterTechnicalSpec 技术规范/技术需求
	ChapterTechnicalSpec ChapterType = "technical_spec"
	// ChapterAppendix 附件/附录
	ChapterAppendix ChapterType = "appendix"
	// ChapterOther 其他
	ChapterOther ChapterType = "other"
)

// ContractSplitTitle 合同条款聚类拆分出的新章节标题
const ContractSplitTitle = "【检测到合同条款，需人工确认】"

// NotLocatedPreview 未在正文中定位到的章节预览文本
const NotLocatedPreview = "（未定位）"

// ChapterNode 章节树节点
// 解析器输出的唯一结构化实体；树建成后对解析器只读
type ChapterNode struct {
	ID           string        `json:"id"`             // 层级化ID，如 ch_3、ch_3_2_1
	Level        int           `json:"level"`          // 层级，1-3
	Title        string        `json:"title"`          // 章节标题（保留编号前缀，去除装饰符号）
	ParaStartIdx int           `json:"para_start_idx"` // 起始段落索引（含），未定位为-1
	ParaEndIdx   int           `json:"para_end_idx"`   // 结束段落索引（含），未定位为-1
	WordCount    int           `json:"word_count"`     // 字数（去除空白后的字符数）
	PreviewText  string        `json:"preview_text"`   // 预览文本
	HasTable     bool          `json:"has_table"`      // 范围内是否包含表格
	ContentTags  []string      `json:"content_tags"`   // 内容标记
	ChapterType  ChapterType   `json:"chapter_type"`   // 语义类别
	OrderIndex   int           `json:"order_index"`    // 原始目录顺序
	Children     []*ChapterNode `json:"children"`      // 子章节

	// ContractPotential 标题命中合同关键词，进入合同聚类检测
	// 管线内部使用，不序列化
	ContractPotential bool `json:"-"`
}

// AddTag 添加内容标记，重复标记忽略
func (n *ChapterNode) AddTag(tag string) {
	for _, t := range n.ContentTags {
		if t == tag {
			return
		}
	}
	n.ContentTags = append(n.ContentTags, tag)
}

// Located 章节是否已定位到正文
func (n *ChapterNode) Located() bool {
	return n.ParaStartIdx >= 0
}

// Walk 先序遍历以n为根的子树
func (n *ChapterNode) Walk(fn func(node *ChapterNode)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// FlattenChapters 先序展开章节树为扁平列表
func FlattenChapters(roots []*ChapterNode) []*ChapterNode {
	var flat []*ChapterNode
	for _, r := range roots {
		r.Walk(func(node *ChapterNode) {
			flat = append(flat, node)
		})
	}
	return flat
}

// CountChapters 统计章节树节点总数
func CountChapters(roots []*ChapterNode) int {
	return len(FlattenChapters(roots))
}
