// Package repository はデータ永続化のインターフェースを定義する。
package repository

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_repository.go -package=mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/hitoshi/stakevault/internal/model"
)

// SubscriptionRepository は購読と確認トークンの永続化インターフェース。
type SubscriptionRepository interface {
	// InsertPending は新しい購読をpending_confirmation状態で作成し、採番したIDを返す。
	InsertPending(ctx context.Context, subscriber model.NewSubscriber) (uuid.UUID, error)

	// StoreToken は確認トークンと購読者IDの対応を作成する。
	// InsertPendingが成功した購読IDに対してのみ呼び出すこと。
	StoreToken(ctx context.Context, subscriberID uuid.UUID, token string) error

	// Confirm はトークンに対応する購読をconfirmedへ遷移させ、その購読IDを返す。
	// 対応する購読がない場合はErrTokenNotFoundを返す。
	// 確認済みの購読に対する再確認は何も変更せず成功する。
	Confirm(ctx context.Context, token string) (uuid.UUID, error)

	// FindByID は指定IDの購読を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error)
}

// AccountRepository はアカウントの永続化インターフェース。
type AccountRepository interface {
	// Create はアカウントを作成する。
	Create(ctx context.Context, account *model.Account) error
}
