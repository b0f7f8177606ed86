package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/stakevault/internal/model"
)

// PostgresSubscriptionRepo はPostgreSQLを使用した購読リポジトリ。
// コネクションプールは*sql.DBが管理し、操作ごとに接続を取り出す。
type PostgresSubscriptionRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresSubscriptionRepo はPostgresSubscriptionRepoを生成する。
func NewPostgresSubscriptionRepo(db *sql.DB) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// InsertPending は新しい購読をpending_confirmation状態で作成する。
func (r *PostgresSubscriptionRepo) InsertPending(ctx context.Context, subscriber model.NewSubscriber) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, email, name, created_at, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, subscriber.Email.Inner(), subscriber.Name.Inner(), r.now(), string(model.StatusPendingConfirmation),
	)
	if err != nil {
		return uuid.Nil, &StoreError{Op: "insert_pending", Err: err}
	}
	return id, nil
}

// StoreToken は確認トークンと購読者IDの対応を作成する。
func (r *PostgresSubscriptionRepo) StoreToken(ctx context.Context, subscriberID uuid.UUID, token string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		 VALUES ($1, $2)`,
		token, subscriberID,
	)
	if err != nil {
		return &StoreError{Op: "store_token", Err: err}
	}
	return nil
}

// Confirm はトークンから購読者IDを引き、その購読をconfirmedに更新する。
func (r *PostgresSubscriptionRepo) Confirm(ctx context.Context, token string) (uuid.UUID, error) {
	var subscriberID uuid.UUID
	err := r.db.QueryRowContext(ctx,
		`SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1`,
		token,
	).Scan(&subscriberID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, &StoreError{Op: "confirm", Err: err}
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = $1 WHERE id = $2`,
		string(model.StatusConfirmed), subscriberID,
	)
	if err != nil {
		return uuid.Nil, &StoreError{Op: "confirm", Err: err}
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return uuid.Nil, &StoreError{Op: "confirm", Err: err}
	}
	// FKがあるため通常は起きないが、トークンだけが残っている場合は未検出として扱う
	if rowsAffected == 0 {
		return uuid.Nil, ErrTokenNotFound
	}

	return subscriberID, nil
}

// FindByID は指定IDの購読を取得する。見つからない場合はnilを返す。
func (r *PostgresSubscriptionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	sub := &model.Subscription{}
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at, status FROM subscriptions WHERE id = $1`,
		id,
	).Scan(&sub.ID, &sub.Email, &sub.Name, &sub.CreatedAt, &status)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "find_by_id", Err: err}
	}

	sub.Status = model.SubscriptionStatus(status)
	return sub, nil
}

// compile-time interface check
var _ SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)
