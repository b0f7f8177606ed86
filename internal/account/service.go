// Package account はアカウント作成のドメインロジックを提供する。
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/stakevault/internal/model"
	"github.com/hitoshi/stakevault/internal/repository"
)

// Service はアカウント作成のサービス層。
// 入力値の業務ルールは持たず、パスワードのハッシュ化と保存のみを行う。
type Service struct {
	repo   repository.AccountRepository
	cost   int
	logger *slog.Logger
	now    func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.AccountRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		cost:   bcrypt.DefaultCost,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create はパスワードをbcryptでハッシュ化してアカウントを保存する。
func (s *Service) Create(ctx context.Context, email, username, password string) (*model.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, &model.ValidationError{Field: "password", Reason: "must be at most 72 bytes"}
	}
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	account := &model.Account{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}

	if err := s.repo.Create(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "アカウントの保存に失敗しました",
			slog.String("account_id", account.ID.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "アカウントを作成しました",
		slog.String("account_id", account.ID.String()),
		slog.String("username", username),
	)
	return account, nil
}
