package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/stakevault/internal/model"
)

// AccountServiceInterface はアカウントハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	Create(ctx context.Context, email, username, password string) (*model.Account, error)
}

// AccountHandler はアカウントのHTTPハンドラー。
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// Create はアカウントを作成する。
// POST /account/create
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(w, r, "email", "username", "password")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if _, err := h.service.Create(r.Context(), form["email"], form["username"], form["password"]); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessage(w, "Account successfully created")
}
