package pdfconv

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Probe PDF探测结果
// 上传为PDF的标书先探测：原生文本PDF可直接抽文本，
// 扫描版需要送OCR逐页识别
type Probe struct {
	PageCount int    // 总页数
	HasText   bool   // 是否含可抽取的原生文本层
	Text      string // 抽取到的全文，扫描版为空
}

// ProbeFile 探测PDF文件的文本层
func ProbeFile(path string) (*Probe, error) {
	conf := model.NewDefaultConfiguration()

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf page count: %v", err)
	}

	text, err := extractText(path, conf)
	if err != nil {
		// 抽取失败按扫描版处理，交给OCR
		return &Probe{PageCount: pageCount}, nil
	}

	return &Probe{
		PageCount: pageCount,
		HasText:   hasTextOperators(text),
		Text:      text,
	}, nil
}

// hasTextOperators 判断内容流中是否出现文本绘制算子
// 扫描版PDF的页面内容只有图片绘制，没有Tj/TJ
func hasTextOperators(content string) bool {
	return strings.Contains(content, "Tj") || strings.Contains(content, "TJ")
}

// extractText 抽取PDF各页文本并按页码顺序拼接
func extractText(path string, conf *model.Configuration) (string, error) {
	tmpDir, err := os.MkdirTemp("", "pdfcpu_extract_")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := api.ExtractContentFile(path, tmpDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract text from pdf: %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted text dir: %v", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var all strings.Builder
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(tmpDir, e.Name()))
		if err != nil {
			continue
		}
		if all.Len() > 0 {
			all.WriteString("\n\n")
		}
		all.Write(data)
	}
	return strings.TrimSpace(all.String()), nil
}
