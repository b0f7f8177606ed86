// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/hitoshi/stakevault/internal/middleware"
	"github.com/hitoshi/stakevault/internal/model"
)

// maxFormBytes はフォームボディの上限サイズ。
const maxFormBytes = 1 << 20

// SubscriptionServiceInterface は購読ハンドラーが必要とするサービスインターフェース。
type SubscriptionServiceInterface interface {
	// Subscribe は購読を作成して確認メールを送信する。
	Subscribe(ctx context.Context, name, email string) (uuid.UUID, error)
	// Confirm は確認トークンに対応する購読を確認済みにする。
	Confirm(ctx context.Context, token string) error
}

// SubscriptionHandler は購読のHTTPハンドラー。
type SubscriptionHandler struct {
	service SubscriptionServiceInterface
}

// NewSubscriptionHandler はSubscriptionHandlerを生成する。
func NewSubscriptionHandler(service SubscriptionServiceInterface) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
	}
}

// messageResponse は成功時のAPIレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// Subscribe は新しい購読者を登録する。
// POST /subscriptions
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(w, r, "name", "email")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if _, err := h.service.Subscribe(r.Context(), form["name"], form["email"]); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessage(w, "New subscriber successfully created")
}

// Confirm は確認リンクのトークンで購読を確認する。
// GET /subscriptions/confirm?subscription_token=...
func (h *SubscriptionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("subscription_token") {
		handleServiceError(w, model.NewMissingFieldError("subscription_token"))
		return
	}

	if err := h.service.Confirm(r.Context(), query.Get("subscription_token")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessage(w, "Subscription confirmed")
}

// parseForm はurlencodedボディを読み、指定フィールドの値を返す。
// フィールドは指定順に検査し、最初に欠落したものをValidationErrorで返す。
// 値が空文字でもキーがあれば欠落とはみなさない。
func parseForm(w http.ResponseWriter, r *http.Request, fields ...string) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, &model.ValidationError{Field: "body", Reason: "request body could not be parsed as a form"}
	}

	values := make(map[string]string, len(fields))
	for _, field := range fields {
		if _, ok := r.PostForm[field]; !ok {
			return nil, model.NewMissingFieldError(field)
		}
		values[field] = r.PostForm.Get(field)
	}
	return values, nil
}

func writeMessage(w http.ResponseWriter, message string) {
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: message})
}
