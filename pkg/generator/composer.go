package generator

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shouni/go-sprite-kit/pkg/content"
	"github.com/shouni/go-sprite-kit/pkg/imagecheck"
	"github.com/shouni/go-sprite-kit/pkg/prompt"
	"github.com/shouni/go-sprite-kit/pkg/provider"
	"github.com/shouni/go-sprite-kit/pkg/session"
	"github.com/shouni/go-sprite-kit/pkg/world"
)

// ForgeRequest は1回の二重生成に必要な入力一式です。
type ForgeRequest struct {
	World       *world.Entry
	ImageBase64 string
	MimeType    string
	PlayerName  string

	// テストや再現実行のための事前抽選内容。nil の場合は内部で抽選します。
	Card    *content.CardContent
	SceneUI *content.SceneUI
}

// ForgeResult は二重生成の最終結果と、抽選されたゲーム的要素を保持します。
type ForgeResult struct {
	Name    string
	Card    content.CardContent
	SceneUI content.SceneUI
	Outcome DualOutcome
}

// Composer はカードとシーンの二重生成を統括するオーケストレーターです。
// プロンプト合成、並列生成、1回限りの強化再試行、全成否の集約までを担います。
type Composer struct {
	provider   provider.ImageProvider
	limiter    *rate.Limiter
	randomizer *content.Randomizer

	// AllowPartial は片側成功を成功として扱う旧挙動の明示的な退避口です。
	// 既定は false（両方成功した場合のみ成功）。
	AllowPartial bool

	logger *slog.Logger
}

// NewComposer は Composer を生成します。limiter が nil の場合、送出制限は行いません。
func NewComposer(p provider.ImageProvider, limiter *rate.Limiter, r *content.Randomizer) *Composer {
	if r == nil {
		r = content.NewRandomizer()
	}
	return &Composer{
		provider:   p,
		limiter:    limiter,
		randomizer: r,
		logger:     slog.Default(),
	}
}

// GenerateDualOutput は写真からカードとシーンを並列生成します。
// 上限確認は最初の送出より前に行われ、超過時は一切の外部呼び出しを行いません。
// 集約ポリシーは全成否（all-or-nothing）で、片側失敗は全体失敗として扱います。
func (c *Composer) GenerateDualOutput(ctx context.Context, sess *session.Session, req ForgeRequest) (*ForgeResult, error) {
	if err := c.preflight(req); err != nil {
		return nil, err
	}

	if sess != nil {
		if err := sess.BeginGeneration(); err != nil {
			return nil, err
		}
	}

	name := c.randomizer.ResolveName(req.World, req.PlayerName)

	var card content.CardContent
	if req.Card != nil {
		card = *req.Card
	} else {
		picked, err := c.randomizer.PickCardContent(req.World)
		if err != nil {
			c.finish(sess, false)
			return nil, provider.WrapError(provider.KindConfiguration, err, "カード内容の抽選に失敗しました")
		}
		card = picked
	}
	var ui content.SceneUI
	if req.SceneUI != nil {
		ui = *req.SceneUI
	} else {
		ui = c.randomizer.PickSceneUI(req.World)
	}

	cardPrompt := prompt.CompileCard(req.World, card, name)
	scenePrompt := prompt.CompileScene(req.World, ui)

	result := &ForgeResult{Name: name, Card: card, SceneUI: ui}

	var g errgroup.Group
	g.Go(func() error {
		result.Outcome.Card = c.generateWithRetry(ctx, prompt.OutputCard, cardPrompt, req)
		return nil
	})
	g.Go(func() error {
		result.Outcome.Scene = c.generateWithRetry(ctx, prompt.OutputScene, scenePrompt, req)
		return nil
	})
	_ = g.Wait()

	c.aggregate(&result.Outcome)
	c.finish(sess, result.Outcome.Success)

	return result, nil
}

// preflight は外部送出の前に設定と入力の健全性を確認します。
func (c *Composer) preflight(req ForgeRequest) error {
	if c.provider == nil {
		return provider.NewError(provider.KindConfiguration, "画像生成の接続先が設定されていません")
	}
	if req.World == nil {
		return provider.NewError(provider.KindInvalidInput, "ワールドが指定されていません")
	}
	if strings.TrimSpace(req.ImageBase64) == "" {
		return provider.NewError(provider.KindInvalidInput, "入力写真が空です")
	}
	if !imagecheck.IsSupportedMimeType(req.MimeType) {
		return provider.NewError(provider.KindInvalidInput, "対応していない画像形式です: %s", req.MimeType)
	}
	return nil
}

// generateWithRetry は1出力ぶんの生成を行います。初回が呼び出し失敗または
// 構造検証失敗に終わった場合のみ、強化プロンプトでちょうど1回だけ再試行します。
func (c *Composer) generateWithRetry(ctx context.Context, kind prompt.OutputType, compiled prompt.CompiledPrompt, req ForgeRequest) Outcome {
	img, err := c.attempt(ctx, compiled, req)
	if err == nil {
		return Outcome{Success: true, Image: img, Attempts: 1}
	}

	c.logger.Warn("初回生成に失敗したため、強化プロンプトで再試行します",
		"output", string(kind), "error", err)

	img, retryErr := c.attempt(ctx, prompt.Harden(compiled), req)
	if retryErr == nil {
		return Outcome{Success: true, Image: img, Attempts: 2}
	}
	return Outcome{Success: false, Err: retryErr, Attempts: 2}
}

// attempt は送出制限の獲得、1回の生成呼び出し、構造検証までを行います。
func (c *Composer) attempt(ctx context.Context, compiled prompt.CompiledPrompt, req ForgeRequest) (*provider.Image, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, provider.WrapError(provider.KindTimeout, err, "送出待機中に中断されました")
		}
	}

	img, err := c.provider.Generate(ctx, provider.Request{
		Prompt:      compiled.Text,
		ImageBase64: req.ImageBase64,
		MimeType:    req.MimeType,
		Width:       compiled.Width,
		Height:      compiled.Height,
		AspectRatio: compiled.AspectRatio,
	})
	if err != nil {
		return nil, err
	}

	if report := imagecheck.Validate(img.Base64); !report.OK {
		return nil, provider.NewError(provider.KindContentInvalid,
			"生成画像の構造検証に失敗しました: %s", strings.Join(report.Issues, "; "))
	}
	return img, nil
}

// aggregate は両出力の成否を集約し、失敗時の分類と文言を確定させます。
func (c *Composer) aggregate(d *DualOutcome) {
	d.Success = d.Card.Success && d.Scene.Success
	if !d.Success && c.AllowPartial && (d.Card.Success || d.Scene.Success) {
		d.Success = true
	}
	if d.Success {
		return
	}

	// カード側の失敗を優先して分類する。両側失敗でも文言は1つに畳む。
	failed := d.Card.Err
	if failed == nil {
		failed = d.Scene.Err
	}
	d.ErrorKind = provider.KindOf(failed)
	d.Message = Narrative(d.ErrorKind)
}

func (c *Composer) finish(sess *session.Session, success bool) {
	if sess == nil {
		return
	}
	sess.CompleteGeneration(success)
}
