package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/stakevault/internal/email"
	"github.com/hitoshi/stakevault/internal/middleware"
	"github.com/hitoshi/stakevault/internal/model"
	"github.com/hitoshi/stakevault/internal/repository"
)

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// 判定はラップを解いて行うため、RejectedErrorに包まれたエラーもそのまま渡してよい。
func handleServiceError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationAPIError(verr))
		return
	}

	if errors.Is(err, repository.ErrTokenNotFound) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewTokenNotFoundError())
		return
	}

	var storeErr *repository.StoreError
	if errors.As(err, &storeErr) {
		slog.Error("store failure", slog.String("op", storeErr.Op), slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewStoreFailedError(storeFailureMessage(storeErr.Op)))
		return
	}

	var sendErr *email.SendError
	if errors.As(err, &sendErr) {
		slog.Error("email send failure", slog.String("provider", sendErr.Provider), slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewEmailSendFailedError())
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, http.StatusInternalServerError, apiErr)
		return
	}

	// 上記以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// storeFailureMessage はストア操作ごとのクライアント向けメッセージを返す。
// ドライバのエラー文言は返さない。
func storeFailureMessage(op string) string {
	switch op {
	case "insert_pending":
		return "Failed to insert new subscriber into the database"
	case "store_token":
		return "Failed to store the confirmation token for a new subscriber"
	case "confirm":
		return "Failed to mark subscriber as confirmed"
	case "create_account":
		return "Failed to create account"
	default:
		return "Failed to access the database"
	}
}
