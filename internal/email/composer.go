package email

import (
	"fmt"

	"github.com/osteele/liquid"

	"github.com/hitoshi/stakevault/internal/security"
)

const (
	confirmationSubject = "Welcome!"

	confirmationTextTemplate = "Hi {{ name }},\n" +
		"Welcome to our app\n" +
		"Visit {{ link }} to confirm your subscription"

	confirmationHTMLTemplate = "<p>Hi {{ name }},</p>" +
		"Welcome to our app<br />" +
		`Click <a href="{{ link }}">here</a> to confirm your subscription`
)

// Composer は確認メールの件名と本文を組み立てる。
// テンプレートは生成時に一度だけパースし、以降は並行に描画してよい。
type Composer struct {
	text      *liquid.Template
	html      *liquid.Template
	sanitizer security.ContentSanitizerService
}

// NewComposer はComposerの新しいインスタンスを生成する。
func NewComposer(sanitizer security.ContentSanitizerService) (*Composer, error) {
	engine := liquid.NewEngine()

	text, err := engine.ParseString(confirmationTextTemplate)
	if err != nil {
		return nil, fmt.Errorf("テキスト本文テンプレートのパースに失敗しました: %w", err)
	}
	html, err := engine.ParseString(confirmationHTMLTemplate)
	if err != nil {
		return nil, fmt.Errorf("HTML本文テンプレートのパースに失敗しました: %w", err)
	}

	return &Composer{
		text:      text,
		html:      html,
		sanitizer: sanitizer,
	}, nil
}

// ComposeConfirmation は購読確認メールを組み立てる。
// テキスト本文とHTML本文には同じ確認リンクが入る。
func (c *Composer) ComposeConfirmation(name, to, link string) (Message, error) {
	textBody, err := c.text.RenderString(liquid.Bindings{
		"name": name,
		"link": link,
	})
	if err != nil {
		return Message{}, fmt.Errorf("テキスト本文の描画に失敗しました: %w", err)
	}

	htmlBody, err := c.html.RenderString(liquid.Bindings{
		"name": c.sanitizer.SanitizeText(name),
		"link": link,
	})
	if err != nil {
		return Message{}, fmt.Errorf("HTML本文の描画に失敗しました: %w", err)
	}

	return Message{
		To:       to,
		Subject:  confirmationSubject,
		TextBody: textBody,
		HTMLBody: c.sanitizer.SanitizeHTML(htmlBody),
	}, nil
}
