package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CardStatCount はカードに刻印されるステータスの固定数です。
// カード面のレイアウトが4行で設計されているため、この値は変更できません。
const CardStatCount = 4

// StatPool はカードステータス1枠分の候補値プールです。
type StatPool struct {
	Label  string   `yaml:"label"`
	Values []string `yaml:"values"`
}

// UIElementPool はシーンHUDの追加表示要素の候補プールです。
type UIElementPool struct {
	Label  string   `yaml:"label"`
	Values []string `yaml:"values"`
}

// OutputSize は生成画像の明示的なピクセル寸法です。
// 指定がないワールドはプロンプト側のグローバル既定値を使用します。
type OutputSize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Entry は1テーマ分の世界観定義を保持します。
// 起動時に一度だけロードされ、以後は不変として扱われます。
type Entry struct {
	ID          string `yaml:"id"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`

	// --- プロンプト素材 ---
	CardStyle       string `yaml:"card_style"`
	SceneStyle      string `yaml:"scene_style"`
	CameraDirective string `yaml:"camera_directive"`

	// --- カード/シーンの抽選プール ---
	Titles    []string        `yaml:"titles"`
	Classes   []string        `yaml:"classes"`
	Names     []string        `yaml:"names"`
	StatPools []StatPool      `yaml:"stat_pools"`
	UIPools   []UIElementPool `yaml:"ui_pools"`

	// --- 出力設定 ---
	CardSize  *OutputSize `yaml:"card_size"`
	SceneSize *OutputSize `yaml:"scene_size"`
	FramePath string      `yaml:"frame_path"`
}

// Map はワールドIDをキーとした検索用マップです。
type Map map[string]Entry

type worldFile struct {
	Worlds []Entry `yaml:"worlds"`
}

// LoadWorlds は指定されたファイルパスからYAMLを読み込み、ワールドマップを返します。
func LoadWorlds(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ワールド定義ファイルの読み込みに失敗しました: %w", err)
	}
	return GetWorlds(data)
}

// GetWorlds はYAMLバイト列からワールドマップをパースして返します。
// データ authoring 上の欠陥（ステータスプール不足など）はこの時点で弾きます。
func GetWorlds(data []byte) (Map, error) {
	var f worldFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ワールド定義のパースに失敗しました: %w", err)
	}
	if len(f.Worlds) == 0 {
		return nil, fmt.Errorf("ワールド定義が1件も見つかりません")
	}

	m := make(Map, len(f.Worlds))
	for i, w := range f.Worlds {
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("ワールド定義 %d 件目 (%q) が不正です: %w", i+1, w.ID, err)
		}
		if _, dup := m[w.ID]; dup {
			return nil, fmt.Errorf("ワールドID %q が重複しています", w.ID)
		}
		m[w.ID] = w
	}
	return m, nil
}

// Validate はロード時のデータ検証を行います。
// カードは常に4ステータス構成のため、プールが4未満のワールドは
// 実行時に黙って切り詰めるのではなく、ここで大きな音を立てて失敗させます。
func (w Entry) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("id は必須です")
	}
	if w.Label == "" {
		return fmt.Errorf("label は必須です")
	}
	if len(w.Titles) == 0 {
		return fmt.Errorf("titles には最低1件の候補が必要です")
	}
	if len(w.Classes) == 0 {
		return fmt.Errorf("classes には最低1件の候補が必要です")
	}
	if len(w.StatPools) < CardStatCount {
		return fmt.Errorf("stat_pools は最低 %d 件必要です (現在 %d 件)", CardStatCount, len(w.StatPools))
	}
	for _, p := range w.StatPools {
		if p.Label == "" || len(p.Values) == 0 {
			return fmt.Errorf("stat_pool %q に空のラベルまたは値があります", p.Label)
		}
	}
	for _, p := range w.UIPools {
		if p.Label == "" || len(p.Values) == 0 {
			return fmt.Errorf("ui_pool %q に空のラベルまたは値があります", p.Label)
		}
	}
	if s := w.CardSize; s != nil && (s.Width <= 0 || s.Height <= 0) {
		return fmt.Errorf("card_size の寸法が不正です: %dx%d", s.Width, s.Height)
	}
	if s := w.SceneSize; s != nil && (s.Width <= 0 || s.Height <= 0) {
		return fmt.Errorf("scene_size の寸法が不正です: %dx%d", s.Width, s.Height)
	}
	return nil
}

// FindWorld はIDからワールド定義を特定します。見つからない場合は nil を返します。
func (m Map) FindWorld(id string) *Entry {
	if m == nil {
		return nil
	}
	if w, ok := m[id]; ok {
		res := w
		return &res
	}
	return nil
}
