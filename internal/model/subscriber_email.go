package model

import (
	"github.com/go-playground/validator/v10"
)

// emailValidator はメールアドレス構文チェック用のバリデータ。
// validator.Validateは並行利用に対して安全。
var emailValidator = validator.New()

// SubscriberEmail は検証済みの購読者メールアドレスを表す。
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail は生の文字列を検証してSubscriberEmailを生成する。
// 空文字列、またはローカル部とドメインの構造を持たない文字列はValidationErrorを返す。
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	if raw == "" {
		return SubscriberEmail{}, &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if err := emailValidator.Var(raw, "email"); err != nil {
		return SubscriberEmail{}, &ValidationError{Field: "email", Reason: "is not a valid email address"}
	}
	return SubscriberEmail{value: raw}, nil
}

// Inner は元の文字列を返す。
func (e SubscriberEmail) Inner() string {
	return e.value
}

// String はfmt.Stringerを実装する。
func (e SubscriberEmail) String() string {
	return e.value
}
