package pdfconv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/tender-parser/internal/ocr"
)

// 文本来源
const (
	SourceNativeText = "native_text"
	SourceOCR        = "ocr"
)

// PDFText PDF文本化结果
// 结构解析基于.docx，PDF输入先经此预处理拿到全文
type PDFText struct {
	PageCount int            `json:"page_count"`
	Source    string         `json:"source"`          // native_text 或 ocr
	Text      string         `json:"text"`            // 按页码顺序拼接的全文
	Pages     map[int]string `json:"pages,omitempty"` // OCR来源时的按页文本，页码从1起
}

// ExtractText 把PDF转成文本
// 原生文本PDF直接抽取文本层；扫描版逐页提取页面图片送OCR识别
func ExtractText(ctx context.Context, path string, ocrClient ocr.Client, logger *logrus.Logger) (*PDFText, error) {
	if logger == nil {
		logger = logrus.New()
	}

	probe, err := ProbeFile(path)
	if err != nil {
		return nil, err
	}
	if probe.HasText {
		logger.WithField("pages", probe.PageCount).Info("pdf has native text layer")
		return &PDFText{
			PageCount: probe.PageCount,
			Source:    SourceNativeText,
			Text:      probe.Text,
		}, nil
	}

	if ocrClient == nil {
		return nil, errors.New("scanned pdf requires an ocr client")
	}

	conf := model.NewDefaultConfiguration()
	pages := scannedPages(path, probe.PageCount, conf, logger)
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page images extracted from scanned pdf: %s", path)
	}

	logger.WithField("pages", len(pages)).Info("routing scanned pdf to ocr")
	texts, err := ocrClient.RecognizePages(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("ocr recognition failed: %w", err)
	}

	return &PDFText{
		PageCount: probe.PageCount,
		Source:    SourceOCR,
		Text:      joinPages(texts),
		Pages:     texts,
	}, nil
}

// scannedPages 逐页提取页面图片
// 单页提取失败只记录，OCR按页容错，不因个别坏页整体放弃
func scannedPages(path string, pageCount int, conf *model.Configuration, logger *logrus.Logger) []ocr.Page {
	var pages []ocr.Page
	for pg := 1; pg <= pageCount; pg++ {
		img, err := pageImage(path, pg, conf)
		if err != nil {
			logger.WithError(err).WithField("page", pg).Warn("page image extraction failed")
			continue
		}
		pages = append(pages, ocr.Page{PageNum: pg, Image: img})
	}
	return pages
}

// pageImage 提取指定页的整页图片
// 扫描版PDF每页即一张整页图，多图时取首张
func pageImage(path string, page int, conf *model.Configuration) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "pdfcpu_images_")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := api.ExtractImagesFile(path, tmpDir, []string{strconv.Itoa(page)}, conf); err != nil {
		return nil, fmt.Errorf("failed to extract images from page %d: %v", page, err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted image dir: %v", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		return os.ReadFile(filepath.Join(tmpDir, e.Name()))
	}
	return nil, fmt.Errorf("no image found on page %d", page)
}

// joinPages 按页码升序拼接OCR结果
func joinPages(texts map[int]string) string {
	nums := make([]int, 0, len(texts))
	for n := range texts {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var b strings.Builder
	for _, n := range nums {
		t := strings.TrimSpace(texts[n])
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(t)
	}
	return b.String()
}
