package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

const providerSES = "ses"

// SESAPI はSESSenderが利用するSES v2 APIのサブセット。
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender はAWS SES v2でメールを送信するSender。
type SESSender struct {
	client SESAPI
	sender string
	logger *slog.Logger
}

// NewSESSender はAWSのデフォルト認証情報チェーンからSESクライアントを構築する。
func NewSESSender(ctx context.Context, region, sender string, logger *slog.Logger) (*SESSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("AWS設定の読み込みに失敗しました: %w", err)
	}
	return NewSESSenderWithClient(sesv2.NewFromConfig(awsCfg), sender, logger), nil
}

// NewSESSenderWithClient は既存のSESクライアントを使うSESSenderを生成する。
func NewSESSenderWithClient(client SESAPI, sender string, logger *slog.Logger) *SESSender {
	return &SESSender{
		client: client,
		sender: sender,
		logger: logger,
	}
}

// Send はSESでメールを1通送信する。
func (s *SESSender) Send(ctx context.Context, msg Message) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("SESでのメール送信に失敗しました", slog.String("error", err.Error()))
		return &SendError{Provider: providerSES, Err: err}
	}

	s.logger.Debug("SESでメールを送信しました", slog.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

var _ Sender = (*SESSender)(nil)
