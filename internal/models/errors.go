package models

import "errors"

var (
	// ErrUnsupportedFormat 不支持的文档格式（如旧版.doc）
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrDocumentCorrupt 文档损坏或无法读取
	ErrDocumentCorrupt = errors.New("document corrupt")

	// ErrTOCNotFound 未检测到目录，可降级到大纲级别管线
	ErrTOCNotFound = errors.New("toc not found")

	// ErrNoChapters 所有策略均未识别出章节
	ErrNoChapters = errors.New("no chapters identified")

	// ErrEntryNotLocated 单条目录项未定位到正文
	ErrEntryNotLocated = errors.New("toc entry not located")
)

// MsgUnsupportedDoc 旧版.doc格式的用户提示，需原样透出给前端
const MsgUnsupportedDoc = "不支持旧版 .doc 格式，请先在 Word 中另存为 .docx 后重新上传"
