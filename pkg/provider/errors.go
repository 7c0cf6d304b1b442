package provider

import (
	"context"
	"errors"
	"fmt"
)

// Kind は生成失敗の閉じた分類です。新しい値を追加する場合は
// 境界層（web/CLI）の文言マッピングも必ず更新すること。
type Kind string

const (
	KindConfiguration    Kind = "configuration"
	KindInvalidInput     Kind = "invalid_input"
	KindRateLimited      Kind = "rate_limited"
	KindTimeout          Kind = "timeout"
	KindUpstream         Kind = "upstream_error"
	KindContentInvalid   Kind = "content_invalid"
	KindGenerationFailed Kind = "generation_failed"
)

// Error は分類タグ付きの生成エラーです。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError は分類タグ付きエラーを生成します。
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError は既存のエラーを分類タグ付きでラップします。
func WrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf はエラーから分類タグを取り出します。
// タイムアウト系は分類前でも KindTimeout に正規化し、
// 分類不能なものは KindGenerationFailed に落とします。
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindGenerationFailed
}
