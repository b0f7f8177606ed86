// Package subscription は購読の登録と確認のワークフローを提供する。
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hitoshi/stakevault/internal/email"
	"github.com/hitoshi/stakevault/internal/metrics"
	"github.com/hitoshi/stakevault/internal/model"
	"github.com/hitoshi/stakevault/internal/repository"
)

const tracerName = "github.com/hitoshi/stakevault/internal/subscription"

// confirmPath は確認リンクのパス。
const confirmPath = "/subscriptions/confirm"

// Stage はワークフローの状態。
type Stage string

const (
	StageReceived        Stage = "received"
	StageValidated       Stage = "validated"
	StagePersisted       Stage = "persisted"
	StageTokenIssued     Stage = "token_issued"
	StageEmailDispatched Stage = "email_dispatched"
	StageConfirmed       Stage = "confirmed"
	StageRejected        Stage = "rejected"
)

// RejectedError はワークフローがRejectedで終了したことを表す。
// Stageは到達できなかった状態を指す。
type RejectedError struct {
	Stage Stage
	Err   error
}

// Error はerrorインターフェースを実装する。
func (e *RejectedError) Error() string {
	return fmt.Sprintf("subscription rejected at %s: %v", e.Stage, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *RejectedError) Unwrap() error {
	return e.Err
}

// Deps はServiceの依存。Logger, Tracer, Metricsは省略できる。
type Deps struct {
	Repo     repository.SubscriptionRepository
	Tokens   TokenGenerator
	Sender   email.Sender
	Composer *email.Composer
	BaseURL  string
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Metrics  metrics.MetricsCollector
}

// Service は購読ワークフローのサービス層。
// リクエスト間で共有する状態を持たず、並行に呼び出してよい。
type Service struct {
	repo     repository.SubscriptionRepository
	tokens   TokenGenerator
	sender   email.Sender
	composer *email.Composer
	baseURL  string
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(deps Deps) *Service {
	s := &Service{
		repo:     deps.Repo,
		tokens:   deps.Tokens,
		sender:   deps.Sender,
		composer: deps.Composer,
		baseURL:  strings.TrimRight(deps.BaseURL, "/"),
		logger:   deps.Logger,
		tracer:   deps.Tracer,
		metrics:  deps.Metrics,
	}
	if s.tokens == nil {
		s.tokens = RandomTokenGenerator{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.metrics == nil {
		s.metrics = metrics.NopCollector{}
	}
	return s
}

// Subscribe はフォーム入力から購読を作成し、確認メールを送信する。
// 途中で失敗した場合もそれまでの書き込みは取り消さない。
func (s *Service) Subscribe(ctx context.Context, name, emailAddr string) (uuid.UUID, error) {
	ctx, span := s.tracer.Start(ctx, "subscription.subscribe",
		trace.WithAttributes(
			attribute.String("subscriber.email", emailAddr),
			attribute.String("subscriber.name", name),
		),
	)
	defer span.End()

	logger := s.logger.With(
		slog.String("subscriber_email", emailAddr),
		slog.String("subscriber_name", name),
	)
	logger.InfoContext(ctx, "購読リクエストを受け付けました", slog.String("stage", string(StageReceived)))

	subscriber, err := model.NewSubscriberFromForm(name, emailAddr)
	if err != nil {
		return uuid.Nil, s.reject(ctx, span, logger, StageValidated, err)
	}
	logger.InfoContext(ctx, "購読者の入力を検証しました", slog.String("stage", string(StageValidated)))

	subscriberID, err := s.repo.InsertPending(ctx, subscriber)
	if err != nil {
		return uuid.Nil, s.reject(ctx, span, logger, StagePersisted, err)
	}
	logger = logger.With(slog.String("subscriber_id", subscriberID.String()))
	span.SetAttributes(attribute.String("subscriber.id", subscriberID.String()))
	logger.InfoContext(ctx, "購読を確認待ちで保存しました", slog.String("stage", string(StagePersisted)))

	token := s.tokens.Generate()
	if err := s.repo.StoreToken(ctx, subscriberID, token); err != nil {
		return uuid.Nil, s.reject(ctx, span, logger, StageTokenIssued, err)
	}
	logger.InfoContext(ctx, "確認トークンを発行しました", slog.String("stage", string(StageTokenIssued)))

	msg, err := s.composer.ComposeConfirmation(subscriber.Name.Inner(), subscriber.Email.Inner(), s.confirmationLink(token))
	if err != nil {
		return uuid.Nil, s.reject(ctx, span, logger, StageEmailDispatched, err)
	}

	start := time.Now()
	err = s.sender.Send(ctx, msg)
	if err != nil {
		s.metrics.RecordEmailSend(metrics.SendResultFailure, time.Since(start))
		return uuid.Nil, s.reject(ctx, span, logger, StageEmailDispatched, err)
	}
	s.metrics.RecordEmailSend(metrics.SendResultSuccess, time.Since(start))

	s.metrics.RecordSubscriptionCreated()
	logger.InfoContext(ctx, "確認メールを送信しました", slog.String("stage", string(StageEmailDispatched)))
	return subscriberID, nil
}

// Confirm はトークンに対応する購読をconfirmedにする。
// 空のトークンはストアに問い合わせずに拒否する。
func (s *Service) Confirm(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "subscription.confirm")
	defer span.End()

	logger := s.logger
	logger.InfoContext(ctx, "購読確認リクエストを受け付けました", slog.String("stage", string(StageReceived)))

	if token == "" {
		s.metrics.RecordConfirmation(metrics.ConfirmResultInvalid)
		return s.reject(ctx, span, logger, StageConfirmed, model.NewMissingFieldError("subscription_token"))
	}

	subscriberID, err := s.repo.Confirm(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			s.metrics.RecordConfirmation(metrics.ConfirmResultNotFound)
		} else {
			s.metrics.RecordConfirmation(metrics.ConfirmResultError)
		}
		return s.reject(ctx, span, logger, StageConfirmed, err)
	}

	span.SetAttributes(attribute.String("subscriber.id", subscriberID.String()))
	s.metrics.RecordConfirmation(metrics.ConfirmResultConfirmed)
	logger.InfoContext(ctx, "購読を確認しました",
		slog.String("stage", string(StageConfirmed)),
		slog.String("subscriber_id", subscriberID.String()),
	)
	return nil
}

// reject は失敗をログ・トレース・メトリクスに記録し、RejectedErrorを返す。
func (s *Service) reject(ctx context.Context, span trace.Span, logger *slog.Logger, failed Stage, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(failed))

	attrs := []any{
		slog.String("stage", string(StageRejected)),
		slog.String("failed_stage", string(failed)),
		slog.String("error", err.Error()),
	}

	var verr *model.ValidationError
	if errors.As(err, &verr) || errors.Is(err, repository.ErrTokenNotFound) {
		logger.WarnContext(ctx, "リクエストを拒否しました", attrs...)
	} else {
		logger.ErrorContext(ctx, "購読ワークフローが失敗しました", attrs...)
	}

	if failed != StageConfirmed {
		s.metrics.RecordSubscriptionRejected(string(failed))
	}
	return &RejectedError{Stage: failed, Err: err}
}

// confirmationLink は確認リンクを組み立てる。
func (s *Service) confirmationLink(token string) string {
	q := url.Values{}
	q.Set("subscription_token", token)
	return s.baseURL + confirmPath + "?" + q.Encode()
}
