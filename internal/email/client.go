package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

const (
	providerAPI = "api"

	// sendPath はメールAPIの送信エンドポイント。
	sendPath = "/email"

	cbName             = "email-api"
	cbFailureThreshold = 5
	cbMaxRequests      = 1
	cbTimeout          = 30 * time.Second
)

// APIClientConfig はAPIClientの設定。
type APIClientConfig struct {
	BaseURL   string
	Sender    string
	AuthToken string
	Timeout   time.Duration
}

// sendEmailRequest はメールAPIのリクエストボディ。
type sendEmailRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HTMLBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// APIClient はHTTPのメールAPIにメールを送信するSender。
// 5xxと接続失敗が連続するとサーキットブレーカーがOpenになり、
// クールダウンが明けるまで送信を試みずに失敗する。
type APIClient struct {
	httpClient *resty.Client
	cb         *gobreaker.CircuitBreaker
	baseURL    string
	sender     string
	authToken  string
	logger     *slog.Logger
}

// NewAPIClient はAPIClientの新しいインスタンスを生成する。
func NewAPIClient(cfg APIClientConfig, logger *slog.Logger) *APIClient {
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	cbSettings := gobreaker.Settings{
		Name:        cbName,
		MaxRequests: cbMaxRequests,
		Timeout:     cbTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cbFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("メールAPIのサーキットブレーカーの状態が変化しました",
				slog.String("cb_name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &APIClient{
		httpClient: httpClient,
		cb:         gobreaker.NewCircuitBreaker(cbSettings),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		sender:     cfg.Sender,
		authToken:  cfg.AuthToken,
		logger:     logger,
	}
}

// Send はメールAPIにメールを1通送信する。2xx以外の応答は全て失敗として扱う。
func (c *APIClient) Send(ctx context.Context, msg Message) error {
	body := sendEmailRequest{
		From:     c.sender,
		To:       msg.To,
		Subject:  msg.Subject,
		HTMLBody: msg.HTMLBody,
		TextBody: msg.TextBody,
	}

	start := time.Now()

	result, err := c.cb.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetAuthToken(c.authToken).
			SetBody(body).
			Post(c.baseURL + sendPath)
		if err != nil {
			return nil, &SendError{Provider: providerAPI, Err: err}
		}

		statusCode := resp.StatusCode()
		if statusCode >= 500 {
			return nil, &SendError{
				Provider:   providerAPI,
				StatusCode: statusCode,
				Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(resp.String())),
			}
		}
		// 4xxは送信内容の問題なのでブレーカーの失敗には数えない
		if !resp.IsSuccess() {
			return &SendError{
				Provider:   providerAPI,
				StatusCode: statusCode,
				Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(resp.String())),
			}, nil
		}
		return nil, nil
	})

	latencyMs := time.Since(start).Milliseconds()

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &SendError{Provider: providerAPI, Err: ErrCircuitOpen}
		}
		c.logger.Error("メールAPIへの送信に失敗しました",
			slog.String("error", err.Error()),
			slog.Int64("latency_ms", latencyMs),
		)
		return err
	}

	if sendErr, ok := result.(*SendError); ok {
		c.logger.Error("メールAPIがエラーステータスを返しました",
			slog.Int("http_status", sendErr.StatusCode),
			slog.Int64("latency_ms", latencyMs),
		)
		return sendErr
	}

	c.logger.Debug("メールAPIへの送信に成功しました", slog.Int64("latency_ms", latencyMs))
	return nil
}

var _ Sender = (*APIClient)(nil)
