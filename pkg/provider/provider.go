package provider

import "context"

// Request は画像生成プロバイダへの1回分の呼び出し内容です。
// 入力写真はbase64で運び、目標寸法はヒントとしてプロバイダに渡します。
type Request struct {
	Prompt      string
	ImageBase64 string
	MimeType    string
	Width       int
	Height      int
	AspectRatio string
}

// Image はプロバイダから返された生成画像です。
type Image struct {
	Base64   string
	MimeType string
}

// HTTPClient はリモート画像の取得に使う最小限のHTTP抽象です。
// go-http-kit のクライアントがこれを満たします。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// ImageProvider は外部画像生成サービスの抽象です。
// 返却エラーは *Error で分類され、呼び出し側がリトライ判断に使います。
type ImageProvider interface {
	Generate(ctx context.Context, req Request) (*Image, error)
}
