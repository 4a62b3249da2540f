package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/tender-parser/config"
)

func makePages(n, size int) []Page {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{PageNum: i + 1, Image: bytes.Repeat([]byte{0xFF}, size)}
	}
	return pages
}

// echoServer 按请求页码返回"page-<n>"文本
func echoServer(t *testing.T, batchCount *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(batchCount, 1)
		assert.Equal(t, "/api/ocr/recognize", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ocrRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.BatchID)

		var out ocrResponse
		for _, p := range req.Pages {
			out.Pages = append(out.Pages, ocrPageOutput{
				PageNum: p.PageNum,
				Text:    fmt.Sprintf("page-%d", p.PageNum),
			})
		}
		json.NewEncoder(w).Encode(out)
	}))
}

func TestRecognizePagesBatchByCount(t *testing.T) {
	var batches int32
	srv := echoServer(t, &batches)
	defer srv.Close()

	c := NewClient(config.OCRConfig{BaseURL: srv.URL, MaxPagesPerReq: 4}, nil)
	texts, err := c.RecognizePages(context.Background(), makePages(10, 100))
	require.NoError(t, err)

	assert.EqualValues(t, 3, atomic.LoadInt32(&batches))
	require.Len(t, texts, 10)
	assert.Equal(t, "page-1", texts[1])
	assert.Equal(t, "page-10", texts[10])
}

func TestRecognizePagesBatchByBytes(t *testing.T) {
	var batches int32
	srv := echoServer(t, &batches)
	defer srv.Close()

	// 每页300字节，1KB上限下每批最多3页
	c := NewClient(config.OCRConfig{BaseURL: srv.URL, MaxPagesPerReq: 10, MaxBytesPerReq: 1024}, nil)
	texts, err := c.RecognizePages(context.Background(), makePages(7, 300))
	require.NoError(t, err)

	assert.EqualValues(t, 3, atomic.LoadInt32(&batches))
	assert.Len(t, texts, 7)
}

func TestRecognizePagesOversizePageAlone(t *testing.T) {
	pages := []Page{
		{PageNum: 1, Image: make([]byte, 100)},
		{PageNum: 2, Image: make([]byte, 2048)},
		{PageNum: 3, Image: make([]byte, 100)},
	}

	c := NewClient(config.OCRConfig{MaxPagesPerReq: 10, MaxBytesPerReq: 1024}, nil)
	batches := c.splitBatches(pages)

	require.Len(t, batches, 3)
	assert.Equal(t, 1, batches[0][0].PageNum)
	assert.Equal(t, 2, batches[1][0].PageNum)
	assert.Equal(t, 3, batches[2][0].PageNum)
}

func TestRecognizePagesPartialFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		var req ocrRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// 第二批失败，其余正常
		if n == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(&APIError{Message: "engine overloaded"})
			return
		}
		var out ocrResponse
		for _, p := range req.Pages {
			out.Pages = append(out.Pages, ocrPageOutput{PageNum: p.PageNum, Text: "ok"})
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	c := NewClient(config.OCRConfig{BaseURL: srv.URL, MaxPagesPerReq: 2}, nil)
	texts, err := c.RecognizePages(context.Background(), makePages(6, 10))
	require.NoError(t, err)

	// 失败批次的页缺席，不影响整体结果
	assert.Len(t, texts, 4)
	_, ok := texts[3]
	assert.False(t, ok)
}

func TestRecognizePagesAllBatchesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(&APIError{Message: "service down"})
	}))
	defer srv.Close()

	c := NewClient(config.OCRConfig{BaseURL: srv.URL, MaxPagesPerReq: 2}, nil)
	_, err := c.RecognizePages(context.Background(), makePages(4, 10))
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "service down", apiErr.Message)
}

func TestRecognizePagesEmpty(t *testing.T) {
	c := NewClient(config.OCRConfig{}, nil)
	texts, err := c.RecognizePages(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, texts)
}
