package pdfconv

import "context"

// Converter docx与pdf之间的格式转换接缝
// 本地没有可靠的docx渲染器，转换委托给外部服务实现
type Converter interface {
	// ToPDF 把docx转换为pdf，返回生成文件的路径
	ToPDF(ctx context.Context, docxPath, outDir string) (string, error)
}
