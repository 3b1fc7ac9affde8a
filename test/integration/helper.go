package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// 教学说明：集成测试辅助工具
// 这些测试需要一个运行中的服务(含MySQL),通过HTTP黑盒验证完整链路。
// 服务未启动时整个用例跳过,不算失败。

const (
	// BaseURL API基础URL
	BaseURL = "http://localhost:8080/api/v1"
	// PingURL 健康检查URL
	PingURL = "http://localhost:8080/ping"
	// Timeout HTTP请求超时时间
	Timeout = 30 * time.Second
)

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ChatData 对话响应数据
type ChatData struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// BookListData 图书列表响应数据
type BookListData struct {
	List       []BookItem `json:"list"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// BookItem 图书列表项
type BookItem struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
	Category string `json:"category"`
}

// OrderItem 订单列表项
type OrderItem struct {
	ID           uint   `json:"id"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	BookTitle    string `json:"book_title"`
	Quantity     int    `json:"quantity"`
	Total        int64  `json:"total"`
	StatusText   string `json:"status_text"`
}

var httpClient = &http.Client{Timeout: Timeout}

// RequireServer 检查服务是否在运行,没有则跳过用例
func RequireServer(t *testing.T) {
	t.Helper()
	resp, err := httpClient.Get(PingURL)
	if err != nil {
		t.Skipf("服务未启动,跳过集成测试: %v", err)
	}
	resp.Body.Close()
}

// NewSessionID 生成测试会话ID
func NewSessionID() string {
	return "it-" + uuid.NewString()
}

// PostJSON 发送POST请求并解析统一响应
func PostJSON(t *testing.T, url string, body interface{}) *Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err, "序列化请求失败")

	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err, "请求失败")
	defer resp.Body.Close()

	return parseResponse(t, resp)
}

// GetJSON 发送GET请求并解析统一响应
func GetJSON(t *testing.T, url string) *Response {
	t.Helper()

	resp, err := httpClient.Get(url)
	require.NoError(t, err, "请求失败")
	defer resp.Body.Close()

	return parseResponse(t, resp)
}

// SendChat 发送一条对话消息,返回助手回复
func SendChat(t *testing.T, sessionID, message string) string {
	t.Helper()

	resp := PostJSON(t, BaseURL+"/chat", map[string]interface{}{
		"session_id": sessionID,
		"message":    message,
	})
	require.Equal(t, 0, resp.Code, "对话接口应该成功: %s", resp.Message)

	var data ChatData
	require.NoError(t, json.Unmarshal(resp.Data, &data), "解析对话响应失败")
	require.NotEmpty(t, data.Reply, "回复不能为空")

	t.Logf("[%s] user: %s", sessionID, message)
	t.Logf("[%s] bot:  %.120s", sessionID, data.Reply)
	return data.Reply
}

func parseResponse(t *testing.T, resp *http.Response) *Response {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应失败")

	var r Response
	require.NoError(t, json.Unmarshal(raw, &r), "解析响应失败: %s", string(raw))
	return &r
}

// FindBookByTitle 从列表接口按书名查找图书
func FindBookByTitle(t *testing.T, title string) *BookItem {
	t.Helper()

	resp := GetJSON(t, fmt.Sprintf("%s/books?keyword=%s&page_size=50", BaseURL, url.QueryEscape(title)))
	require.Equal(t, 0, resp.Code, "图书列表应该成功")

	var data BookListData
	require.NoError(t, json.Unmarshal(resp.Data, &data), "解析图书列表失败")

	for i := range data.List {
		if data.List[i].Title == title {
			return &data.List[i]
		}
	}
	return nil
}
