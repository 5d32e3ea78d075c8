//go:build integration

// Package integration 针对运行中服务的集成测试
//
// 运行方式：
//
//	go run ./cmd/api                                   # 或 go run ./cmd/web
//	go test -tags=integration ./test/integration/...
//
// BOOKCATALOG_BASE_URL指定服务地址，默认http://localhost:8080
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Timeout HTTP请求超时时间
const Timeout = 10 * time.Second

// BaseURL 服务地址
func BaseURL() string {
	if u := os.Getenv("BOOKCATALOG_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

// BookData 图书响应
type BookData struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Description *string    `json:"description"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// BookListData 列表响应
type BookListData struct {
	Books      []BookData `json:"books"`
	Pagination struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"totalPages"`
	} `json:"pagination"`
}

// ErrorData 错误响应
type ErrorData struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Response 状态码与原始响应体
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode 解析响应体
func (r *Response) Decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, v), "解析JSON响应失败: %s", string(r.Body))
}

// Do 发送请求，body为nil时不带请求体
func Do(t *testing.T, method, path string, body interface{}) *Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "JSON序列化失败")
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, BaseURL()+path, reader)
	require.NoError(t, err, "创建HTTP请求失败")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败(服务是否已启动?)")
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	return &Response{StatusCode: resp.StatusCode, Body: raw}
}

// UniqueTitle 生成不重复的书名，避免多次运行互相影响
func UniqueTitle(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// CreateTestBook 创建图书并在测试结束时删除
func CreateTestBook(t *testing.T, title, author string) BookData {
	t.Helper()

	resp := Do(t, http.MethodPost, "/api/books", map[string]interface{}{
		"title":  title,
		"author": author,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "创建图书失败: %s", string(resp.Body))

	var b BookData
	resp.Decode(t, &b)
	t.Cleanup(func() {
		Do(t, http.MethodDelete, fmt.Sprintf("/api/books/%d", b.ID), nil)
	})
	return b
}
