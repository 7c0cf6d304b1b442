package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestParseGeminiResponse(t *testing.T) {
	t.Run("インラインデータから画像を復元できること", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("fake")}},
					},
				},
			}},
		}
		img, err := parseGeminiResponse(resp)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType)
		assert.NotEmpty(t, img.Base64)
	})

	t.Run("テキストのみの応答は生成拒否として扱われること", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: "I will not draw this."}},
				},
			}},
		}
		_, err := parseGeminiResponse(resp)
		require.Error(t, err)
		assert.Equal(t, KindContentInvalid, KindOf(err))
	})

	t.Run("空レスポンスは upstream に分類されること", func(t *testing.T) {
		_, err := parseGeminiResponse(&genai.GenerateContentResponse{})
		assert.Equal(t, KindUpstream, KindOf(err))
	})
}
