// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer は送信メールに埋め込む値と描画済みHTML本文をサニタイズする。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 確認メールに必要なタグと属性のみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はメールコンテンツのサニタイズ機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// SanitizeText は利用者入力からタグを全て除去し、HTMLに埋め込める文字列を返す。
	SanitizeText(raw string) string
	// SanitizeHTML は描画済みHTML本文をサニタイズする。
	// 許可タグ（p, br, a, strong, em）のみを通過させ、aタグのhref属性はhttp/httpsの絶対URLのみ許可する。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeHTML(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフなので共有して使う。
type contentSanitizer struct {
	text *bluemonday.Policy
	html *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em")

	// 確認リンクは外部のメールクライアントで開かれるため絶対URLのみ
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.AllowRelativeURLs(false)

	return &contentSanitizer{
		text: bluemonday.StrictPolicy(),
		html: p,
	}
}

// SanitizeText は文字列からタグを除去する。
func (s *contentSanitizer) SanitizeText(raw string) string {
	return s.text.Sanitize(raw)
}

// SanitizeHTML はHTMLを許可リストでサニタイズする。
func (s *contentSanitizer) SanitizeHTML(rawHTML string) string {
	return s.html.Sanitize(rawHTML)
}

var _ ContentSanitizerService = (*contentSanitizer)(nil)
