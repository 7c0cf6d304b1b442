package imagecheck

import (
	"bytes"
	"encoding/base64"
	"strings"
)

// MinBase64Length は明らかに切り詰められたペイロードを弾く下限文字数です。
// この長さ未満のbase64は正常な画像であり得ません。
const MinBase64Length = 128

// sniffPrefixLen は先頭シグネチャ判定のためにデコードするbase64文字数です。
// 16文字で12バイトが得られ、WebPのRIFFヘッダ判定まで賄えます。
const sniffPrefixLen = 16

// Report は構造検証の結果です。全チェックは独立しており、
// 呼び出し側が完全な診断ログを残せるよう、問題点は途中で打ち切らずに全て収集します。
type Report struct {
	OK     bool
	Format string // 判定できた場合のみ: "png" / "jpeg" / "webp"
	Issues []string
}

// Validate はbase64文字列の構造的な妥当性を検査します。
// これはあくまでスニフテストであり、画像の内容がプロンプトに
// 合致しているかどうかは一切保証しません。
func Validate(b64 string) Report {
	var r Report

	if b64 == "" {
		r.Issues = append(r.Issues, "ペイロードが空です")
		r.OK = false
		return r
	}

	if len(b64) < MinBase64Length {
		r.Issues = append(r.Issues, "ペイロードが短すぎます（切り詰めの疑い）")
	}

	if format, ok := sniffFormat(b64); ok {
		r.Format = format
	} else {
		r.Issues = append(r.Issues, "既知の画像シグネチャ (PNG/JPEG/WebP) ではありません")
	}

	if !validAlphabet(b64) {
		r.Issues = append(r.Issues, "base64として不正な文字を含んでいます")
	}

	if len(b64)%4 != 0 {
		r.Issues = append(r.Issues, "base64長が4の倍数ではありません（パディング不正）")
	}

	r.OK = len(r.Issues) == 0
	return r
}

// IsSupportedMimeType は入力写真として受理できるMIMEタイプかを返します。
func IsSupportedMimeType(mime string) bool {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg", "image/png", "image/webp":
		return true
	}
	return false
}

var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
)

// sniffFormat はbase64の先頭だけをデコードし、バイナリシグネチャを判定します。
func sniffFormat(b64 string) (string, bool) {
	prefix := b64
	if len(prefix) > sniffPrefixLen {
		prefix = prefix[:sniffPrefixLen]
	}
	// 先頭断片にパディングが混ざるほど短い入力はそのまま判定
	prefix = strings.TrimRight(prefix, "=")

	head, err := base64.RawStdEncoding.DecodeString(prefix)
	if err != nil {
		return "", false
	}

	switch {
	case bytes.HasPrefix(head, pngMagic):
		return "png", true
	case bytes.HasPrefix(head, jpegMagic):
		return "jpeg", true
	case bytes.HasPrefix(head, riffMagic) && len(head) >= 12 && bytes.Equal(head[8:12], webpMagic):
		return "webp", true
	}
	return "", false
}

// validAlphabet はbase64アルファベットのみで構成されているかを検査します。
// '=' は末尾のパディング位置（最大2文字）でのみ許可します。
func validAlphabet(b64 string) bool {
	trimmed := strings.TrimRight(b64, "=")
	if len(b64)-len(trimmed) > 2 {
		return false
	}
	for _, c := range trimmed {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '+' || c == '/':
		default:
			return false
		}
	}
	return true
}
