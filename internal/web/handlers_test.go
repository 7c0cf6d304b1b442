package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-sprite-kit/pkg/content"
	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/provider"
	"github.com/shouni/go-sprite-kit/pkg/session"
	"github.com/shouni/go-sprite-kit/pkg/world"
)

type stubProvider struct {
	err error
}

func (s *stubProvider) Generate(ctx context.Context, req provider.Request) (*provider.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	raw := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 120)...)
	return &provider.Image{
		Base64:   base64.StdEncoding.EncodeToString(raw),
		MimeType: "image/png",
	}, nil
}

func testWorlds() world.Map {
	return world.Map{
		"neon-dungeon": {
			ID:      "neon-dungeon",
			Label:   "ネオンダンジョン",
			Titles:  []string{"影の勇者"},
			Classes: []string{"魔導剣士"},
			StatPools: []world.StatPool{
				{Label: "HP", Values: []string{"320"}},
				{Label: "MP", Values: []string{"88"}},
				{Label: "ATK", Values: []string{"45"}},
				{Label: "LUK", Values: []string{"7"}},
			},
		},
	}
}

func newTestServer(p provider.ImageProvider, ceiling int) *Server {
	composer := generator.NewComposer(p, nil, content.NewSeededRandomizer(1))
	// 自動切替タイマーがテスト中に発火しないよう、十分長い遅延にする
	sessions := session.NewStore(time.Hour, ceiling, time.Minute)
	return NewServer(testWorlds(), composer, sessions, nil)
}

func postJSON(t *testing.T, s *Server, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func validGenerateBody() map[string]string {
	return map[string]string{
		"imageData": base64.StdEncoding.EncodeToString([]byte("photo-bytes")),
		"mimeType":  "image/jpeg",
		"themeId":   "neon-dungeon",
	}
}

func TestHandleThemes(t *testing.T) {
	s := newTestServer(&stubProvider{}, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/themes", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Themes []world.Summary `json:"themes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Themes, 1)
	assert.Equal(t, "neon-dungeon", body.Themes[0].ID)
}

func TestHandleGenerate(t *testing.T) {
	t.Run("成功時は両画像をbase64とMIMEタイプの組で返すこと", func(t *testing.T) {
		s := newTestServer(&stubProvider{}, 10)

		rec := postJSON(t, s, "/api/generate", validGenerateBody(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp generateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.NotNil(t, resp.CardImage)
		require.NotNil(t, resp.WorldSceneImage)
		assert.Equal(t, "image/png", resp.CardImage.MimeType)
		assert.Equal(t, "image/png", resp.WorldSceneImage.MimeType)
		assert.NotEmpty(t, resp.CardImage.ImageBase64)
		assert.NotEmpty(t, resp.WorldSceneImage.ImageBase64)
		assert.NotEmpty(t, rec.Header().Get("X-Session-ID"))
	})

	t.Run("データURL接頭辞付きの入力も受理されること", func(t *testing.T) {
		s := newTestServer(&stubProvider{}, 10)

		body := validGenerateBody()
		body["imageData"] = "data:image/jpeg;base64," + body["imageData"]
		rec := postJSON(t, s, "/api/generate", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("未知のテーマは物語調の文言で拒否されること", func(t *testing.T) {
		s := newTestServer(&stubProvider{}, 10)

		body := validGenerateBody()
		body["themeId"] = "does-not-exist"
		rec := postJSON(t, s, "/api/generate", body, nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp generateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, string(provider.KindInvalidInput), resp.ErrorCode)
		assert.NotContains(t, resp.Error, "API")
	})

	t.Run("非対応の画像形式は拒否されること", func(t *testing.T) {
		s := newTestServer(&stubProvider{}, 10)

		body := validGenerateBody()
		body["mimeType"] = "image/gif"
		rec := postJSON(t, s, "/api/generate", body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("生成失敗時は分類コードと文言を返すこと", func(t *testing.T) {
		s := newTestServer(&stubProvider{
			err: provider.NewError(provider.KindUpstream, "生成呼び出しが失敗しました"),
		}, 10)

		rec := postJSON(t, s, "/api/generate", validGenerateBody(), nil)
		require.Equal(t, http.StatusBadGateway, rec.Code)

		var resp generateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, string(provider.KindUpstream), resp.ErrorCode)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("セッション上限到達後は429で拒否されること", func(t *testing.T) {
		s := newTestServer(&stubProvider{}, 1)
		header := map[string]string{"X-Session-ID": "fixed-session"}

		rec := postJSON(t, s, "/api/generate", validGenerateBody(), header)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = postJSON(t, s, "/api/generate", validGenerateBody(), header)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		var resp generateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(provider.KindRateLimited), resp.ErrorCode)
	})
}

func TestHandleReveal(t *testing.T) {
	t.Run("シーン公開後のcontinueで切替状態に進むこと", func(t *testing.T) {
		s := newTestServer(&stubProvider{}, 10)
		header := map[string]string{"X-Session-ID": "reveal-session"}

		rec := postJSON(t, s, "/api/generate", validGenerateBody(), header)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = postJSON(t, s, "/api/reveal", map[string]string{"event": "continue"}, header)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool   `json:"success"`
			State   string `json:"state"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, string(session.StateTransition), resp.State)
	})

	t.Run("待機状態でのcontinueは409で拒否されること", func(t *testing.T) {
		s := newTestServer(&stubProvider{}, 10)
		header := map[string]string{"X-Session-ID": "idle-session"}

		rec := postJSON(t, s, "/api/reveal", map[string]string{"event": "continue"}, header)
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("未知のイベント名は拒否されること", func(t *testing.T) {
		s := newTestServer(&stubProvider{}, 10)
		rec := postJSON(t, s, "/api/reveal", map[string]string{"event": "explode"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// TestGenerateRevealScenario は名前未入力のままの一連の流れを通しで検証します。
// 生成成功 → シーン公開 → 切替 → カード公開 → 初期化、の順で状態が進むこと、
// および世界観から抽選された代役の名前が正規化済みで返ることを確認します。
func TestGenerateRevealScenario(t *testing.T) {
	s := newTestServer(&stubProvider{}, 10)
	header := map[string]string{"X-Session-ID": "scenario-session"}

	stateOf := func() (string, int) {
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.Header.Set("X-Session-ID", "scenario-session")
		rec := httptest.NewRecorder()
		s.Engine().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			State       string `json:"state"`
			Generations int    `json:"generations"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.State, resp.Generations
	}

	fire := func(event string) string {
		rec := postJSON(t, s, "/api/reveal", map[string]string{"event": event}, header)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			State string `json:"state"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.State
	}

	// 名前は空のまま送る
	body := validGenerateBody()
	rec := postJSON(t, s, "/api/generate", body, header)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	// 世界観から抽選された代役の名前が正規化済みで返ること
	assert.NotEmpty(t, resp.Name)
	assert.LessOrEqual(t, len([]rune(resp.Name)), 13)
	assert.Equal(t, strings.ToUpper(resp.Name), resp.Name)

	state, generations := stateOf()
	assert.Equal(t, string(session.StateSceneReveal), state)
	assert.Equal(t, 1, generations)

	assert.Equal(t, string(session.StateTransition), fire("continue"))
	assert.Equal(t, string(session.StateCardReveal), fire("advance"))
	assert.Equal(t, string(session.StateIdle), fire("reset"))
}

func TestHandleSessionState(t *testing.T) {
	s := newTestServer(&stubProvider{}, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("X-Session-ID", "state-session")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		SessionID   string `json:"sessionId"`
		State       string `json:"state"`
		Generations int    `json:"generations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "state-session", resp.SessionID)
	assert.Equal(t, string(session.StateIdle), resp.State)
	assert.Zero(t, resp.Generations)
}
