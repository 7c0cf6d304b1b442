package generator

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	"github.com/shouni/go-sprite-kit/pkg/provider"
)

// validImageBase64 は構造検証を通過する最小の PNG データを返します。
func validImageBase64() string {
	raw := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 120)...)
	return base64.StdEncoding.EncodeToString(raw)
}

// mockProvider は呼び出し回数を出力種別ごとに記録するテスト用の生成器です。
// behavior が nil の場合は常に有効な画像を返します。
type mockProvider struct {
	mu         sync.Mutex
	cardCalls  int
	sceneCalls int
	prompts    []string

	// behavior は (出力種別, その種別での通算呼び出し回数) を受け取ります。
	behavior func(output string, call int) (*provider.Image, error)
}

func (m *mockProvider) Generate(ctx context.Context, req provider.Request) (*provider.Image, error) {
	m.mu.Lock()
	output := "scene"
	if strings.Contains(req.Prompt, "CARD TEXT") {
		output = "card"
	}
	var call int
	if output == "card" {
		m.cardCalls++
		call = m.cardCalls
	} else {
		m.sceneCalls++
		call = m.sceneCalls
	}
	m.prompts = append(m.prompts, req.Prompt)
	behavior := m.behavior
	m.mu.Unlock()

	if behavior != nil {
		return behavior(output, call)
	}
	return &provider.Image{Base64: validImageBase64(), MimeType: "image/png"}, nil
}

func (m *mockProvider) calls() (card, scene int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cardCalls, m.sceneCalls
}

func (m *mockProvider) promptFor(output string, call int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker := "HUD TEXT"
	if output == "card" {
		marker = "CARD TEXT"
	}
	seen := 0
	for _, p := range m.prompts {
		if strings.Contains(p, marker) {
			seen++
			if seen == call {
				return p
			}
		}
	}
	return ""
}
