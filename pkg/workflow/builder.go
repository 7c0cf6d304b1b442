package workflow

import (
	"context"
	"fmt"

	"github.com/shouni/go-http-kit/httpkit"
	"golang.org/x/time/rate"

	"github.com/shouni/go-sprite-kit/internal/config"
	"github.com/shouni/go-sprite-kit/pkg/compositor"
	"github.com/shouni/go-sprite-kit/pkg/content"
	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/provider"
	"github.com/shouni/go-sprite-kit/pkg/runner"
	"github.com/shouni/go-sprite-kit/pkg/session"
	"github.com/shouni/go-sprite-kit/pkg/world"
)

// Builder はワールド定義・生成器・セッション管理を束ねて各実行実体を構築するのだ。
type Builder struct {
	cfg      *config.Config
	worlds   world.Map
	composer *generator.Composer
	sessions *session.Store
}

// NewBuilder は設定からワールド定義の読み込みと接続先の初期化までを行うのだ。
func NewBuilder(ctx context.Context, cfg *config.Config) (*Builder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg は必須です")
	}

	worlds, err := world.LoadWorlds(cfg.Options.WorldsFile)
	if err != nil {
		return nil, fmt.Errorf("ワールド定義の読み込みに失敗しました: %w", err)
	}

	imgProvider, err := buildProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	interval := cfg.Options.RateInterval
	if interval <= 0 {
		interval = config.DefaultRateInterval
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	composer := generator.NewComposer(imgProvider, limiter, content.NewRandomizer())
	composer.AllowPartial = cfg.Options.AllowPartial

	ceiling := cfg.Options.SessionCeiling
	if ceiling <= 0 {
		ceiling = config.DefaultSessionCeiling
	}
	delay := cfg.Options.TransitionDelay
	if delay <= 0 {
		delay = config.DefaultTransitionDelay
	}
	sessions := session.NewStore(session.DefaultSessionTTL, ceiling, delay)

	return &Builder{
		cfg:      cfg,
		worlds:   worlds,
		composer: composer,
		sessions: sessions,
	}, nil
}

// Worlds は読み込み済みのワールドマップを返すのだ。
func (b *Builder) Worlds() world.Map { return b.worlds }

// Composer は生成オーケストレーターを返すのだ。
func (b *Builder) Composer() *generator.Composer { return b.composer }

// Sessions はセッションストアを返すのだ。
func (b *Builder) Sessions() *session.Store { return b.sessions }

// BuildForgeRunner はCLI一発実行用の Runner を構築するのだ。
func (b *Builder) BuildForgeRunner() (*runner.ForgeRunner, error) {
	comp, err := b.buildCompositor()
	if err != nil {
		return nil, err
	}
	return runner.NewForgeRunner(b.composer, comp, nil), nil
}

// buildCompositor はオプションに応じた合成器を構築するのだ。
func (b *Builder) buildCompositor() (*compositor.Compositor, error) {
	mode := compositor.ModePassThrough
	if b.cfg.Options.ComposeLocal {
		mode = compositor.ModeLocal
	}
	comp, err := compositor.New(mode, b.cfg.Options.FontFile)
	if err != nil {
		return nil, fmt.Errorf("合成器の初期化に失敗しました: %w", err)
	}
	return comp, nil
}

// buildProvider は設定に応じた画像生成の接続先を初期化するのだ。
func buildProvider(ctx context.Context, cfg *config.Config) (provider.ImageProvider, error) {
	timeout := cfg.Options.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}

	switch cfg.Provider {
	case "", config.DefaultProvider:
		httpClient := httpkit.New(timeout)
		return provider.NewOpenRouterClient(provider.OpenRouterConfig{
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.ImageModel,
			Referer: cfg.SiteReferer,
			Title:   cfg.SiteTitle,
			Timeout: timeout,
		}, httpClient)
	case "gemini":
		return provider.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiImageModel)
	default:
		return nil, fmt.Errorf("未知のプロバイダ指定です: %s", cfg.Provider)
	}
}
