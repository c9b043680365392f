// Package push adapts the external push delivery gateway.
package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"
)

// ErrInvalidToken marks a recipient token the gateway no longer accepts.
// Terminal: the caller must not retry the send.
var ErrInvalidToken = errors.New("push: invalid token")

// Gateway delivers one push message to one device token. Best-effort and
// at-least-once; a failed send never blocks notification persistence.
type Gateway interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// FCM implements Gateway over Firebase Cloud Messaging.
type FCM struct {
	client *messaging.Client
}

// NewFCM wraps an initialized messaging client.
func NewFCM(client *messaging.Client) *FCM {
	return &FCM{client: client}
}

func (f *FCM) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	if _, err := f.client.Send(ctx, msg); err != nil {
		if messaging.IsUnregistered(err) {
			return fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

// Log is a Gateway that only logs, for local development with the in-memory
// ledger and no Firebase project.
type Log struct {
	Logger *slog.Logger
}

func (l *Log) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	l.Logger.Info("push (log gateway)", "token", token, "title", title, "body", body)
	return nil
}
