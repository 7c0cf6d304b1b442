package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiImageModel はGeminiバックエンドの既定モデルです。
const DefaultGeminiImageModel = "gemini-3-pro-image-preview"

// GeminiClient はGemini APIを直接叩く ImageProvider 実装です。
// 入力写真・生成画像ともにインラインデータで受け渡します。
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient はAPIキーを検証して GeminiClient を初期化します。
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, NewError(KindConfiguration, "GeminiのAPIキーが設定されていません")
	}
	if model == "" {
		model = DefaultGeminiImageModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, WrapError(KindConfiguration, err, "Geminiクライアントの初期化に失敗しました")
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Generate はプロンプトと入力写真をインラインパーツで送信し、生成画像を返します。
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Image, error) {
	photo, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return nil, WrapError(KindInvalidInput, err, "入力写真のデコードに失敗しました")
	}

	prompt := req.Prompt
	if req.AspectRatio != "" {
		// Geminiは寸法フィールドを持たないため、比率はプロンプト側で念押しする
		prompt = fmt.Sprintf("%s\n\nOutput aspect ratio: %s.", prompt, req.AspectRatio)
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: req.MimeType, Data: photo}},
		},
	}}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, WrapError(KindTimeout, err, "生成呼び出しがタイムアウトしました")
		}
		return nil, WrapError(KindUpstream, err, "生成呼び出しに失敗しました")
	}

	return parseGeminiResponse(resp)
}

// parseGeminiResponse は候補のパーツ列から最初の画像を取り出します。
// 画像がなくテキストのみの場合は生成拒否として扱います。
func parseGeminiResponse(resp *genai.GenerateContentResponse) (*Image, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, NewError(KindUpstream, "レスポンスに候補が含まれていません")
	}

	var refusal strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return &Image{
				Base64:   base64.StdEncoding.EncodeToString(part.InlineData.Data),
				MimeType: mime,
			}, nil
		}
		if part.Text != "" {
			refusal.WriteString(part.Text)
		}
	}

	if text := strings.TrimSpace(refusal.String()); text != "" {
		if len(text) > 200 {
			text = text[:200]
		}
		return nil, NewError(KindContentInvalid, "画像の代わりにテキストが返されました: %s", text)
	}
	return nil, NewError(KindContentInvalid, "レスポンスに画像が含まれていません")
}
