// Package llm 封装Ollama大模型服务的HTTP客户端
//
// 设计说明:
// 1. 大模型是整条链路里最不可靠的依赖:慢、会超时、服务可能没起
// 2. 所有调用包在熔断器里:连续失败后快速拒绝,不让每条消息都等满超时
// 3. 调用方(意图分类、回复润色)对失败全部有降级路径,这里只负责把
//    错误如实返回,不做重试
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookchat/internal/infrastructure/config"
	"github.com/xiebiao/bookchat/pkg/circuitbreaker"
	"github.com/xiebiao/bookchat/pkg/metrics"
)

// Client Ollama客户端
type Client struct {
	baseURL        string
	chatModel      string
	embeddingModel string
	maxTokens      int
	temperature    float64
	httpClient     *http.Client
	breaker        *circuitbreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewClient 创建Ollama客户端
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Ollama.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := circuitbreaker.New("ollama", circuitbreaker.Config{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			logger.Warn("熔断器状态变化",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &Client{
		baseURL:        cfg.Ollama.BaseURL,
		chatModel:      cfg.Ollama.ChatModel,
		embeddingModel: cfg.Ollama.EmbeddingModel,
		maxTokens:      cfg.Ollama.MaxTokens,
		temperature:    cfg.Ollama.Temperature,
		httpClient:     &http.Client{Timeout: timeout},
		breaker:        breaker,
		logger:         logger,
	}
}

// generateRequest /api/generate请求体(非流式)
type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate 文本生成(意图分类、回复润色共用)
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	var result string
	err := c.breaker.Do(func() error {
		req := generateRequest{
			Model:  c.chatModel,
			Prompt: prompt,
			Stream: false,
			Options: map[string]interface{}{
				"num_predict": c.maxTokens,
				"temperature": c.temperature,
			},
		}

		var resp generateResponse
		if err := c.post(ctx, "/api/generate", req, &resp); err != nil {
			return err
		}
		result = resp.Response
		return nil
	})

	c.observe("generate", start, err)
	if err != nil {
		return "", err
	}
	return result, nil
}

// embedRequest /api/embed请求体
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed 文本向量化(向量索引构建与查询共用)
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	start := time.Now()

	var result []float64
	err := c.breaker.Do(func() error {
		req := embedRequest{
			Model: c.embeddingModel,
			Input: text,
		}

		var resp embedResponse
		if err := c.post(ctx, "/api/embed", req, &resp); err != nil {
			return err
		}
		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
			return fmt.Errorf("embedding响应为空")
		}
		result = resp.Embeddings[0]
		return nil
	})

	c.observe("embed", start, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// post 发送JSON请求并解析响应
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求Ollama失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("Ollama返回%d: %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析Ollama响应失败: %w", err)
	}
	return nil
}

// observe 记录调用指标
func (c *Client) observe(op string, start time.Time, err error) {
	result := "success"
	switch {
	case err == nil:
		metrics.LLMRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	case err == circuitbreaker.ErrOpenState || err == circuitbreaker.ErrTooManyRequests:
		result = "rejected"
	default:
		result = "failure"
		metrics.LLMRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
	metrics.LLMRequestsTotal.WithLabelValues(op, result).Inc()
}
