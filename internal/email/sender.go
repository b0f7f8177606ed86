// Package email は確認メールの組み立てと送信を提供する。
// 送信先はHTTPのメールAPIまたはAWS SESで、どちらもSenderとして扱う。
package email

//go:generate mockgen -source=sender.go -destination=../mocks/mock_sender.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
)

// ErrCircuitOpen はメールAPIのサーキットブレーカーがOpen状態で送信を拒否した場合のエラー。
var ErrCircuitOpen = errors.New("email api circuit breaker is open")

// Message は送信する1通のメール。
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender はメール送信のインターフェース。
// 送信は1回だけ試行し、失敗時は*SendErrorを返す。
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendError はメール送信の失敗を表す。
// StatusCodeはメールAPIが応答した場合のみ設定される。
type SendError struct {
	Provider   string
	StatusCode int
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *SendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("email send via %s failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("email send via %s failed: %v", e.Provider, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *SendError) Unwrap() error {
	return e.Err
}
