package model

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus は購読の確認状態を表す。
type SubscriptionStatus string

const (
	// StatusPendingConfirmation は購読登録済みだがメールアドレスの確認が済んでいない状態。
	StatusPendingConfirmation SubscriptionStatus = "pending_confirmation"
	// StatusConfirmed は確認リンクが踏まれ、購読が有効になった状態。
	StatusConfirmed SubscriptionStatus = "confirmed"
)

// NewSubscriber は検証済みの名前とメールアドレスの組。
// HTTP境界からワークフローへ渡す一時的な値で、それ自体は永続化しない。
type NewSubscriber struct {
	Name  SubscriberName
	Email SubscriberEmail
}

// NewSubscriberFromForm はフォームの生の値からNewSubscriberを生成する。
// 名前を先に、メールアドレスを後に検証し、最初に失敗したフィールドのエラーを返す。
func NewSubscriberFromForm(name, email string) (NewSubscriber, error) {
	n, err := ParseSubscriberName(name)
	if err != nil {
		return NewSubscriber{}, err
	}
	e, err := ParseSubscriberEmail(email)
	if err != nil {
		return NewSubscriber{}, err
	}
	return NewSubscriber{Name: n, Email: e}, nil
}

// Subscription は永続化された購読を表す。
// pending_confirmationで作成され、確認時に一度だけconfirmedへ遷移する。
type Subscription struct {
	ID        uuid.UUID
	Email     string
	Name      string
	CreatedAt time.Time
	Status    SubscriptionStatus
}

// ConfirmationToken は確認トークンと購読者IDの対応を表す。
type ConfirmationToken struct {
	Token        string
	SubscriberID uuid.UUID
}

// Account は確認フローを持たないアカウントを表す。
type Account struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
