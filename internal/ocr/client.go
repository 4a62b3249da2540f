package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/tender-parser/config"
)

// Client OCR服务客户端接口
// 扫描版文档的页面图片经OCR转为文本后再进入结构解析
type Client interface {
	// RecognizePages 识别页面图片，返回按页码索引的文本
	RecognizePages(ctx context.Context, pages []Page) (map[int]string, error)
}

// Page 待识别的单页图片
type Page struct {
	PageNum int    // 页码，从1开始
	Image   []byte // 图片字节，PNG或JPEG
}

// APIError OCR服务返回的错误
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ocr api error (status code: %d): %s", e.StatusCode, e.Message)
}

// HTTPClient OCR服务的HTTP客户端
// 按页数和字节数双重上限分批发送，单批失败不影响其余批次
type HTTPClient struct {
	client *http.Client
	cfg    config.OCRConfig
	logger *logrus.Logger
}

// NewClient 创建OCR客户端
func NewClient(cfg config.OCRConfig, logger *logrus.Logger) *HTTPClient {
	if logger == nil {
		logger = logrus.New()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cfg:    cfg,
		logger: logger,
	}
}

type ocrRequest struct {
	BatchID string         `json:"batch_id"`
	Pages   []ocrPageInput `json:"pages"`
}

type ocrPageInput struct {
	PageNum int    `json:"page_num"`
	Image   string `json:"image"` // base64
}

type ocrResponse struct {
	Pages []ocrPageOutput `json:"pages"`
}

type ocrPageOutput struct {
	PageNum int    `json:"page_num"`
	Text    string `json:"text"`
}

// RecognizePages 分批识别页面
// 返回映射保留原始页码，失败批次的页缺席而不是整体失败；
// 所有批次都失败时返回最后一个错误
func (c *HTTPClient) RecognizePages(ctx context.Context, pages []Page) (map[int]string, error) {
	result := make(map[int]string, len(pages))
	batches := c.splitBatches(pages)

	var lastErr error
	failed := 0
	for _, batch := range batches {
		texts, err := c.recognizeBatch(ctx, batch)
		if err != nil {
			failed++
			lastErr = err
			c.logger.WithError(err).WithField("pages", len(batch)).Warn("ocr batch failed")
			continue
		}
		for num, text := range texts {
			result[num] = text
		}
	}

	if failed == len(batches) && len(batches) > 0 {
		return nil, fmt.Errorf("all %d ocr batches failed: %w", failed, lastErr)
	}
	return result, nil
}

// splitBatches 按单批页数和字节数上限切分
// 单页超限时独占一批，交给服务端裁决
func (c *HTTPClient) splitBatches(pages []Page) [][]Page {
	maxPages := c.cfg.MaxPagesPerReq
	if maxPages <= 0 {
		maxPages = 10
	}
	maxBytes := c.cfg.MaxBytesPerReq
	if maxBytes <= 0 {
		maxBytes = 4 * 1024 * 1024
	}

	var batches [][]Page
	var cur []Page
	var curBytes int64
	for _, p := range pages {
		size := int64(len(p.Image))
		if len(cur) > 0 && (len(cur) >= maxPages || curBytes+size > maxBytes) {
			batches = append(batches, cur)
			cur = nil
			curBytes = 0
		}
		cur = append(cur, p)
		curBytes += size
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

func (c *HTTPClient) recognizeBatch(ctx context.Context, batch []Page) (map[int]string, error) {
	reqBody := ocrRequest{BatchID: uuid.New().String()}
	for _, p := range batch {
		reqBody.Pages = append(reqBody.Pages, ocrPageInput{
			PageNum: p.PageNum,
			Image:   base64.StdEncoding.EncodeToString(p.Image),
		})
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ocr request: %w", err)
	}

	url := c.cfg.BaseURL + "/api/ocr/recognize"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
		}
		if jerr := json.Unmarshal(body, &payload); jerr == nil && payload.Message != "" {
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = string(body)
		}
		return nil, apiErr
	}

	var out ocrResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ocr response: %w", err)
	}

	texts := make(map[int]string, len(out.Pages))
	for _, p := range out.Pages {
		texts[p.PageNum] = p.Text
	}
	return texts, nil
}
