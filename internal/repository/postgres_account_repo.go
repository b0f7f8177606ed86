package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/stakevault/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// Create はアカウントを作成する。
func (r *PostgresAccountRepo) Create(ctx context.Context, account *model.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, username, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		account.ID, account.Email, account.Username, account.PasswordHash, account.CreatedAt,
	)
	if err != nil {
		return &StoreError{Op: "create_account", Err: err}
	}
	return nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
