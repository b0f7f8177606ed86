package model

import (
	"strings"

	"github.com/rivo/uniseg"
)

// MaxSubscriberNameGraphemes は購読者名の最大長（書記素クラスタ数）。
const MaxSubscriberNameGraphemes = 256

// forbiddenNameCharacters は購読者名に含めてはならない文字の集合。
const forbiddenNameCharacters = `/()"<>\{}`

// SubscriberName は検証済みの購読者名を表す。
// 生成はParseSubscriberNameを通してのみ行い、生成後は変更しない。
type SubscriberName struct {
	value string
}

// ParseSubscriberName は生の文字列を検証してSubscriberNameを生成する。
// 空白のみ、256書記素超過、禁止文字を含む場合はValidationErrorを返す。
// 空判定にのみトリムを使い、保持する値は元の文字列のまま。
func ParseSubscriberName(raw string) (SubscriberName, error) {
	if strings.TrimSpace(raw) == "" {
		return SubscriberName{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if uniseg.GraphemeClusterCount(raw) > MaxSubscriberNameGraphemes {
		return SubscriberName{}, &ValidationError{Field: "name", Reason: "must be at most 256 characters"}
	}
	if strings.ContainsAny(raw, forbiddenNameCharacters) {
		return SubscriberName{}, &ValidationError{Field: "name", Reason: "contains forbidden characters"}
	}
	return SubscriberName{value: raw}, nil
}

// Inner は元の文字列を返す。
func (n SubscriberName) Inner() string {
	return n.value
}

// String はfmt.Stringerを実装する。
func (n SubscriberName) String() string {
	return n.value
}
