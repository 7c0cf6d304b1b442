package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultProvider        = "openrouter"
	DefaultImageModel      = "bytedance-seed/seedream-4.5"
	DefaultGeminiModel     = "gemini-3-pro-image-preview"
	DefaultHTTPTimeout     = 120 * time.Second
	DefaultRateInterval    = 2 * time.Second
	DefaultListenAddr      = ":8080"
	DefaultWorldsFile      = "examples/worlds.yaml"
	DefaultOutputDir       = "output/sprites" // CLI実行時のデフォルト保存先なのだ
	DefaultSiteReferer     = "https://github.com/shouni/go-sprite-kit"
	DefaultSiteTitle       = "Sprite Forge"
	DefaultSessionCeiling  = 10
	DefaultTransitionDelay = 4 * time.Second
)

// Config はアプリケーション全体の環境設定（APIキーや接続先設定）を保持する構造体なのだ。
type Config struct {
	Provider string // "openrouter" または "gemini"

	// --- OpenRouter 接続設定 ---
	OpenRouterAPIKey string
	ImageModel       string
	SiteReferer      string
	SiteTitle        string

	// --- Gemini 接続設定 ---
	GeminiAPIKey     string
	GeminiImageModel string

	Options ForgeOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		Provider:         envutil.GetEnv("SPRITE_PROVIDER", DefaultProvider),
		OpenRouterAPIKey: envutil.GetEnv("OPENROUTER_API_KEY", ""),
		ImageModel:       envutil.GetEnv("IMAGE_MODEL", DefaultImageModel),
		SiteReferer:      envutil.GetEnv("SITE_REFERER", DefaultSiteReferer),
		SiteTitle:        envutil.GetEnv("SITE_TITLE", DefaultSiteTitle),
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultGeminiModel),
	}
	return cfg
}

// ForgeOptions は CLI フラグから渡される実行時のパラメータなのだ。
type ForgeOptions struct {
	// ソース入力関連
	WorldsFile string // --worlds
	WorldID    string // --world
	PhotoFile  string // --photo
	PlayerName string // --name
	OutputDir  string // --output-dir

	// 合成関連
	ComposeLocal bool   // --compose-local
	FontFile     string // --font

	// サーバー関連
	ListenAddr      string // --listen
	SessionCeiling  int    // --session-ceiling
	TransitionDelay time.Duration

	// 実行制御
	HTTPTimeout  time.Duration // --http-timeout
	RateInterval time.Duration // --rate-interval
	AllowPartial bool          // --allow-partial: 片側成功を許容する旧挙動
}
