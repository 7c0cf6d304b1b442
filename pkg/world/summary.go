package world

import "sort"

// Summary はテーマ選択UI向けの読み取り専用プロジェクションです。
type Summary struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Titles      []string `json:"titles"`
}

// Summaries は全ワールドの概要一覧をID順で返します。
// 常に同じ並びを得るため、キーでソートしてから走査します。
func (m Map) Summaries() []Summary {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Summary, 0, len(keys))
	for _, k := range keys {
		w := m[k]
		titles := make([]string, len(w.Titles))
		copy(titles, w.Titles)
		out = append(out, Summary{
			ID:          w.ID,
			Label:       w.Label,
			Description: w.Description,
			Icon:        w.Icon,
			Titles:      titles,
		})
	}
	return out
}
