package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultEndpoint はOpenRouter互換のチャット補完エンドポイントです。
	DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	// DefaultModel は既定の画像生成モデルです。
	DefaultModel = "bytedance-seed/seedream-4.5"
	// DefaultTimeout は1呼び出しあたりの上限時間です。
	DefaultTimeout = 120 * time.Second

	maxErrorBodyBytes = 4 << 10
)

// OpenRouterConfig は OpenRouterClient の構築設定です。
type OpenRouterConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Referer  string
	Title    string
	Timeout  time.Duration
}

// OpenRouterClient はOpenRouter経由で画像生成を行う ImageProvider 実装です。
type OpenRouterClient struct {
	cfg        OpenRouterConfig
	httpClient *http.Client
	fetcher    HTTPClient // image_url 形状のリモート画像取得用
}

// NewOpenRouterClient は依存関係を検証して OpenRouterClient を初期化します。
// fetcher は nil を許容します（リモートURL形状のレスポンスのみ失敗します）。
func NewOpenRouterClient(cfg OpenRouterConfig, fetcher HTTPClient) (*OpenRouterClient, error) {
	if cfg.APIKey == "" {
		return nil, NewError(KindConfiguration, "OpenRouterのAPIキーが設定されていません")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &OpenRouterClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		fetcher:    fetcher,
	}, nil
}

// Generate はプロンプトと入力写真を送信し、生成画像を1枚返します。
func (c *OpenRouterClient) Generate(ctx context.Context, req Request) (*Image, error) {
	body, err := json.Marshal(c.buildPayload(req))
	if err != nil {
		return nil, WrapError(KindInvalidInput, err, "リクエストの組み立てに失敗しました")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(KindInvalidInput, err, "リクエストの生成に失敗しました")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		httpReq.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, WrapError(KindTimeout, err, "生成呼び出しがタイムアウトしました")
		}
		return nil, WrapError(KindUpstream, err, "生成呼び出しに失敗しました")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewError(KindRateLimited, "呼び出し回数の上限に達しています")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, NewError(KindUpstream, "HTTP %d: %s", resp.StatusCode, snippet)
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, WrapError(KindUpstream, err, "レスポンスのパースに失敗しました")
	}
	if parsed.Error != nil {
		return nil, NewError(KindUpstream, "生成側エラー: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, NewError(KindUpstream, "レスポンスに選択肢が含まれていません")
	}

	return decodeMessage(ctx, parsed.Choices[0].Message, c.fetcher)
}

// buildPayload はチャット補完形式のリクエストボディを組み立てます。
// image_size を寸法の第一権威とし、image_config には比率ヒントのみを添えます
// （プリセット image_size との競合を避けるため、併記はしません）。
func (c *OpenRouterClient) buildPayload(req Request) map[string]any {
	dataURL := fmt.Sprintf("data:%s;base64,%s", req.MimeType, req.ImageBase64)

	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": req.Prompt},
					map[string]any{
						"type":      "image_url",
						"image_url": map[string]any{"url": dataURL},
					},
				},
			},
		},
		"max_tokens": 4096,
	}

	if req.Width > 0 && req.Height > 0 {
		payload["image_size"] = map[string]any{
			"width":  req.Width,
			"height": req.Height,
		}
		if req.AspectRatio != "" {
			payload["image_config"] = map[string]any{
				"aspect_ratio": req.AspectRatio,
			}
		}
	}
	return payload
}
