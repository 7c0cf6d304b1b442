package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// プロバイダのレスポンスは複数の封筒形状で届きます。
// ここでは既知の形状を明示的に判別し、未知の形状は黙って
// 「画像なし」に落とさず、大きな音を立てて失敗させます。

type chatCompletionResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error"`
}

type apiError struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatMessage struct {
	// Content は文字列（拒否文）または配列（パーツ列）のどちらでも届きます。
	Content json.RawMessage `json:"content"`
	Images  []imagePayload  `json:"images"`
}

// imagePayload は images[] 要素の全既知バリアントを重ねた受け皿です。
type imagePayload struct {
	Type       string       `json:"type"`
	ImageURL   *imageURLRef `json:"image_url"`
	InlineData *inlineData  `json:"inline_data"`
	Data       string       `json:"data"`
	MimeType   string       `json:"mime_type"`
}

type imageURLRef struct {
	URL string `json:"url"`
}

type inlineData struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

// payloadShape は封筒形状の判別結果です。
type payloadShape int

const (
	shapeUnknown payloadShape = iota
	shapeDataURL              // image_url.url が data: URL
	shapeRemoteURL            // image_url.url が http(s) URL
	shapeInlineData           // inline_data オブジェクト
	shapeDirectData           // 直接の data フィールド
)

// classifyPayload は images[] 要素の形状を判別します。
func classifyPayload(p imagePayload) payloadShape {
	switch {
	case p.ImageURL != nil && strings.HasPrefix(p.ImageURL.URL, "data:"):
		return shapeDataURL
	case p.ImageURL != nil && (strings.HasPrefix(p.ImageURL.URL, "http://") || strings.HasPrefix(p.ImageURL.URL, "https://")):
		return shapeRemoteURL
	case p.InlineData != nil && p.InlineData.Data != "":
		return shapeInlineData
	case p.Data != "":
		return shapeDirectData
	}
	return shapeUnknown
}

// decodeMessage はメッセージから画像を取り出します。
// 画像がなくテキストだけが返った場合は、生成拒否として KindContentInvalid を返します。
func decodeMessage(ctx context.Context, msg chatMessage, fetcher HTTPClient) (*Image, error) {
	for _, p := range msg.Images {
		img, err := decodePayload(ctx, p, fetcher)
		if err != nil {
			return nil, err
		}
		if img != nil {
			return img, nil
		}
	}

	// content が配列の場合、画像パーツが紛れていることがある
	var parts []imagePayload
	if len(msg.Content) > 0 && json.Unmarshal(msg.Content, &parts) == nil {
		for _, p := range parts {
			switch p.Type {
			case "output_image", "image", "image_url":
				img, err := decodePayload(ctx, p, fetcher)
				if err != nil {
					return nil, err
				}
				if img != nil {
					return img, nil
				}
			}
		}
	}

	// content が文字列なら、画像の代わりに返されたテキスト（＝拒否）
	var text string
	if len(msg.Content) > 0 && json.Unmarshal(msg.Content, &text) == nil && strings.TrimSpace(text) != "" {
		if len(text) > 200 {
			text = text[:200]
		}
		return nil, NewError(KindContentInvalid, "画像の代わりにテキストが返されました: %s", text)
	}

	return nil, NewError(KindContentInvalid, "レスポンスに画像が含まれていません")
}

// decodePayload は判別済み形状ごとに画像を復元します。
// 未知の形状はここでエラーになります（新形状の黙殺防止）。
func decodePayload(ctx context.Context, p imagePayload, fetcher HTTPClient) (*Image, error) {
	switch classifyPayload(p) {
	case shapeDataURL:
		return parseDataURL(p.ImageURL.URL)

	case shapeRemoteURL:
		if fetcher == nil {
			return nil, NewError(KindUpstream, "リモート画像URLを取得する手段がありません: %s", p.ImageURL.URL)
		}
		data, err := fetcher.FetchBytes(ctx, p.ImageURL.URL)
		if err != nil {
			return nil, WrapError(KindUpstream, err, "リモート画像の取得に失敗しました")
		}
		mime := p.MimeType
		if mime == "" {
			mime = "image/png"
		}
		return &Image{Base64: base64.StdEncoding.EncodeToString(data), MimeType: mime}, nil

	case shapeInlineData:
		mime := p.InlineData.MimeType
		if mime == "" {
			mime = "image/png"
		}
		return &Image{Base64: p.InlineData.Data, MimeType: mime}, nil

	case shapeDirectData:
		mime := p.MimeType
		if mime == "" {
			mime = "image/png"
		}
		return &Image{Base64: p.Data, MimeType: mime}, nil

	case shapeUnknown:
		// Type だけ合っていて中身が空のパーツ等は「該当なし」として読み飛ばす
		if p.ImageURL == nil && p.InlineData == nil && p.Data == "" {
			return nil, nil
		}
		return nil, NewError(KindUpstream, "未知のレスポンス形状です (type=%q)", p.Type)
	}
	return nil, nil
}

// parseDataURL は "data:image/png;base64,xxxx" 形式のURLを分解します。
func parseDataURL(url string) (*Image, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return nil, NewError(KindUpstream, "data: URLではありません")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, NewError(KindUpstream, "data: URLにペイロード区切りがありません")
	}
	mime, _, _ := strings.Cut(meta, ";")
	if mime == "" {
		mime = "image/png"
	}
	return &Image{Base64: payload, MimeType: mime}, nil
}
