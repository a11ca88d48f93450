package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type identifies an auth domain event.
type Type string

const (
	TypeAccountRegistered Type = "auth.account.registered"
	TypeLoginSucceeded    Type = "auth.login.succeeded"
	TypeMFAEnabled        Type = "auth.mfa.enabled"
	TypeMFADisabled       Type = "auth.mfa.disabled"
	TypeBackupCodeUsed    Type = "auth.mfa.backup_code_used"
	TypeTokenRevoked      Type = "auth.token.revoked"
)

// Event is a fire-and-forget notification for downstream consumers
// (session analytics, anti-abuse). Never carries secret material.
type Event struct {
	ID      string                 `json:"id"`
	Type    Type                   `json:"type"`
	Subject string                 `json:"subject"`
	Time    time.Time              `json:"time"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// New creates an event with a fresh id and the current time.
func New(t Type, subject string, data map[string]interface{}) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    t,
		Subject: subject,
		Time:    time.Now().UTC(),
		Data:    data,
	}
}

// Publisher delivers events to a broker. Delivery is best-effort; auth
// operations never fail because publishing failed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops all events. Used when no broker is configured and in
// tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

var _ Publisher = NopPublisher{}
