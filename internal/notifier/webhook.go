package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"snippet-sharing-server/config"
	"snippet-sharing-server/internal/model"
)

const (
	EventActivation    = "user.activation"
	EventPasswordReset = "user.password_reset"
)

type webhookPayload struct {
	Event    string `json:"event"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// WebhookNotifier : отправляет токены активации и сброса пароля POST-запросом на webhook.
// Без URL только пишет событие в лог
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewWebhookNotifier(cfg *config.WebhookConfig, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.TimeoutDuration()},
		logger: logger.Named("notifier"),
	}
}

func (n *WebhookNotifier) NotifyActivation(ctx context.Context, user *model.User, token string) error {
	return n.send(ctx, EventActivation, user, token)
}

func (n *WebhookNotifier) NotifyPasswordReset(ctx context.Context, user *model.User, token string) error {
	return n.send(ctx, EventPasswordReset, user, token)
}

func (n *WebhookNotifier) send(ctx context.Context, event string, user *model.User, token string) error {
	if n.url == "" {
		n.logger.Info("webhook не настроен, событие только залогировано",
			zap.String("event", event),
			zap.Int64("user_id", user.ID),
		)
		return nil
	}

	body, err := json.Marshal(webhookPayload{
		Event:    event,
		Email:    user.Email,
		Username: user.Username,
		Token:    token,
	})
	if err != nil {
		return fmt.Errorf("[Notifier] ошибка сериализации: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("[Notifier] ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("[Notifier] ошибка отправки webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("[Notifier] webhook ответил статусом %d", resp.StatusCode)
	}

	n.logger.Debug("webhook отправлен",
		zap.String("event", event),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
