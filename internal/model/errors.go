// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// クライアントに返す原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, subscription, email, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeTokenNotFound    = "TOKEN_NOT_FOUND"
	ErrCodeStoreFailed      = "STORE_ERROR"
	ErrCodeEmailSendFailed  = "EMAIL_SEND_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ValidationError は購読者の入力値が不正であることを表す。
// Fieldには失敗したフォームフィールド名が入る。
type ValidationError struct {
	Field  string
	Reason string
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is invalid: %s", e.Field, e.Reason)
}

// NewMissingFieldError は必須フィールド欠落のValidationErrorを生成する。
func NewMissingFieldError(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "required field is missing"}
}

// NewValidationAPIError は入力検証エラーのAPIErrorを生成する。
func NewValidationAPIError(verr *ValidationError) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  verr.Error(),
		Category: "validation",
		Action:   fmt.Sprintf("%s の値を確認してから再度送信してください。", verr.Field),
	}
}

// NewTokenNotFoundError は確認トークンが存在しない場合のエラーを生成する。
func NewTokenNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenNotFound,
		Message:  "指定された確認トークンに対応する購読が見つかりません。",
		Category: "subscription",
		Action:   "確認メールに記載されたリンクをそのまま開いてください。",
	}
}

// NewStoreFailedError は永続化に失敗した場合のエラーを生成する。
func NewStoreFailedError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeStoreFailed,
		Message:  message,
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewEmailSendFailedError は確認メールの送信に失敗した場合のエラーを生成する。
func NewEmailSendFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailSendFailed,
		Message:  "Failed to send confirmation email",
		Category: "email",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は分類できない内部エラーを生成する。原因はクライアントに見せない。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
