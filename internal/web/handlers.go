package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/provider"
	"github.com/shouni/go-sprite-kit/pkg/session"
)

const sessionCookie = "sprite_session"

type generateRequest struct {
	ImageData  string `json:"imageData"`
	MimeType   string `json:"mimeType"`
	ThemeID    string `json:"themeId"`
	PlayerName string `json:"playerName"`
}

// imageBody は生成画像1枚分の返却形式です。
type imageBody struct {
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
}

type generateResponse struct {
	Success         bool       `json:"success"`
	Name            string     `json:"name,omitempty"`
	CardImage       *imageBody `json:"cardImage,omitempty"`
	WorldSceneImage *imageBody `json:"worldSceneImage,omitempty"`
	Error           string     `json:"error,omitempty"`
	ErrorCode       string     `json:"errorCode,omitempty"`
}

// handleThemes は選択可能なワールドの要約一覧を返します。
func (s *Server) handleThemes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"themes": s.worlds.Summaries()})
}

// handleGenerate は写真からカードとシーンの二重生成を実行します。
// 失敗は常に物語調の文言と分類コードに畳んで返し、内部の詳細は漏らしません。
func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, provider.KindInvalidInput)
		return
	}

	w := s.worlds.FindWorld(req.ThemeID)
	if w == nil {
		s.fail(c, provider.KindInvalidInput)
		return
	}

	sess := s.sessionFrom(c)

	result, err := s.composer.GenerateDualOutput(c.Request.Context(), sess, generator.ForgeRequest{
		World:       w,
		ImageBase64: stripDataURL(req.ImageData),
		MimeType:    req.MimeType,
		PlayerName:  req.PlayerName,
	})
	if err != nil {
		kind := provider.KindOf(err)
		slog.Warn("生成要求を受理できませんでした",
			"session", sess.ID, "theme", req.ThemeID, "kind", string(kind))
		s.fail(c, kind)
		return
	}

	if !result.Outcome.Success {
		c.JSON(statusFor(result.Outcome.ErrorKind), generateResponse{
			Success:   false,
			Error:     result.Outcome.Message,
			ErrorCode: string(result.Outcome.ErrorKind),
		})
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		Success:         true,
		Name:            result.Name,
		CardImage:       imageBodyOf(result.Outcome.Card.Image),
		WorldSceneImage: imageBodyOf(result.Outcome.Scene.Image),
	})
}

// handleSessionState は開示状態と消費済み生成回数を返します。
func (s *Server) handleSessionState(c *gin.Context) {
	sess := s.sessionFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"sessionId":   sess.ID,
		"state":       string(sess.Reveal().State()),
		"generations": sess.Generations(),
	})
}

type revealRequest struct {
	Event string `json:"event"`
}

// handleReveal はクライアント操作による開示イベントを状態機械に送ります。
// 受理できないイベントは状態を変えずに 409 を返します。
func (s *Server) handleReveal(c *gin.Context) {
	var req revealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, provider.KindInvalidInput)
		return
	}

	sess := s.sessionFrom(c)

	var ev session.RevealEvent
	switch req.Event {
	case "continue":
		ev = session.EventContinue
	case "advance":
		ev = session.EventAdvance
	case "reset":
		ev = session.EventReset
	default:
		s.fail(c, provider.KindInvalidInput)
		return
	}

	state, err := sess.Reveal().Fire(ev)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"state":   string(sess.Reveal().State()),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "state": string(state)})
}

// sessionFrom はヘッダーまたはクッキーからセッションを特定し、
// 未知の場合は新規発行してクッキーに書き戻します。
func (s *Server) sessionFrom(c *gin.Context) *session.Session {
	id := c.GetHeader("X-Session-ID")
	if id == "" {
		if cookie, err := c.Cookie(sessionCookie); err == nil {
			id = cookie
		}
	}
	if id == "" {
		generated, err := session.NewSessionID()
		if err != nil {
			// エントロピー枯渇はまず起きないが、起きたら接続単位のIDで代替する
			generated = fmt.Sprintf("fallback-%s", c.ClientIP())
		}
		id = generated
	}

	c.SetCookie(sessionCookie, id, int(session.DefaultSessionTTL.Seconds()), "/", "", false, true)
	c.Header("X-Session-ID", id)
	return s.sessions.GetOrCreate(id)
}

// fail は分類コードを物語調の文言に変換して応答します。
func (s *Server) fail(c *gin.Context, kind provider.Kind) {
	c.JSON(statusFor(kind), generateResponse{
		Success:   false,
		Error:     generator.Narrative(kind),
		ErrorCode: string(kind),
	})
}

// statusFor は分類コードをHTTPステータスに対応付けます。
func statusFor(kind provider.Kind) int {
	switch kind {
	case provider.KindInvalidInput:
		return http.StatusBadRequest
	case provider.KindRateLimited:
		return http.StatusTooManyRequests
	case provider.KindTimeout:
		return http.StatusGatewayTimeout
	case provider.KindConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// imageBodyOf は生成画像を返却形式に詰め替えます。片側失敗時の nil はそのまま伝播し、
// 対応するフィールドはレスポンスから省かれます。
func imageBodyOf(img *provider.Image) *imageBody {
	if img == nil {
		return nil
	}
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &imageBody{ImageBase64: img.Base64, MimeType: mimeType}
}

// stripDataURL はクライアントがデータURL形式で送ってきた場合に接頭辞を取り除きます。
func stripDataURL(data string) string {
	if !strings.HasPrefix(data, "data:") {
		return data
	}
	if idx := strings.Index(data, ","); idx >= 0 {
		return data[idx+1:]
	}
	return data
}
