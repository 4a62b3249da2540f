package pdfconv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/tender-parser/config"
	"github.com/fyerfyer/tender-parser/internal/ocr"
)

// writeScannedPDF 每页嵌一张整页灰度图，模拟扫描件
func writeScannedPDF(t *testing.T, pages int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range img.Pix {
		img.Pix[i] = 180
	}
	img.SetGray(0, 0, color.Gray{Y: 20})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	pdf := gofpdf.New("P", "mm", "A4", "")
	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("scan", opt, bytes.NewReader(buf.Bytes()))
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.ImageOptions("scan", 10, 10, 180, 260, false, opt, 0, "")
	}
	path := filepath.Join(t.TempDir(), "scanned_image.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

// ocrPageServer 按请求页码返回"第<n>页文本"
func ocrPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Pages []struct {
				PageNum int    `json:"page_num"`
				Image   string `json:"image"`
			} `json:"pages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var resp struct {
			Pages []struct {
				PageNum int    `json:"page_num"`
				Text    string `json:"text"`
			} `json:"pages"`
		}
		for _, p := range req.Pages {
			assert.NotEmpty(t, p.Image)
			resp.Pages = append(resp.Pages, struct {
				PageNum int    `json:"page_num"`
				Text    string `json:"text"`
			}{PageNum: p.PageNum, Text: fmt.Sprintf("第%d页文本", p.PageNum)})
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestExtractTextNativePDF(t *testing.T) {
	text, err := ExtractText(context.Background(), writeTextPDF(t, 2), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, SourceNativeText, text.Source)
	assert.Equal(t, 2, text.PageCount)
	assert.NotEmpty(t, text.Text)
	assert.Empty(t, text.Pages)
}

func TestExtractTextScannedNeedsOCR(t *testing.T) {
	_, err := ExtractText(context.Background(), writeImageOnlyPDF(t), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr")
}

func TestExtractTextScannedViaOCR(t *testing.T) {
	srv := ocrPageServer(t)
	defer srv.Close()

	client := ocr.NewClient(config.OCRConfig{BaseURL: srv.URL}, nil)
	text, err := ExtractText(context.Background(), writeScannedPDF(t, 2), client, nil)
	require.NoError(t, err)

	assert.Equal(t, SourceOCR, text.Source)
	assert.Equal(t, 2, text.PageCount)
	require.Len(t, text.Pages, 2)
	assert.Equal(t, "第1页文本", text.Pages[1])
	assert.Equal(t, "第2页文本", text.Pages[2])
	assert.Equal(t, "第1页文本\n\n第2页文本", text.Text)
}

func TestJoinPagesOrderAndGaps(t *testing.T) {
	got := joinPages(map[int]string{3: "尾页", 1: "首页", 2: "  "})
	assert.Equal(t, "首页\n\n尾页", got)
}
