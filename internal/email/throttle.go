package email

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledSender は送信レートを制限するSenderのラッパー。
// 上限に達した場合はリクエストのコンテキストが終わるまで待機する。
type ThrottledSender struct {
	next    Sender
	limiter *rate.Limiter
}

// NewThrottledSender は毎秒perSecond通までに送信を制限するSenderを生成する。
func NewThrottledSender(next Sender, perSecond int) *ThrottledSender {
	if perSecond < 1 {
		perSecond = 1
	}
	return &ThrottledSender{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// Send は送信枠を待ってから次のSenderに委譲する。
func (t *ThrottledSender) Send(ctx context.Context, msg Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return &SendError{Provider: "throttle", Err: err}
	}
	return t.next.Send(ctx, msg)
}

var _ Sender = (*ThrottledSender)(nil)
