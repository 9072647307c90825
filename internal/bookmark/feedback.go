package bookmark

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"jobmate/listing-service/internal/model"
)

// ─── Haptics ──────────────────────────────────────────────────────────────────

// HapticStyle selects the feedback pattern.
type HapticStyle string

const (
	HapticImpact  HapticStyle = "impact"
	HapticWarning HapticStyle = "warning"
)

// Haptics is the optional tactile-feedback capability of the host device.
// Failures are never surfaced to the user.
type Haptics interface {
	Feedback(ctx context.Context, style HapticStyle) error
}

// NoopHaptics is selected when the host has no haptics support.
type NoopHaptics struct{}

func (NoopHaptics) Feedback(context.Context, HapticStyle) error { return nil }

// HapticsFunc adapts a function to the Haptics interface.
type HapticsFunc func(ctx context.Context, style HapticStyle) error

func (f HapticsFunc) Feedback(ctx context.Context, style HapticStyle) error {
	if f == nil {
		return nil
	}
	return f(ctx, style)
}

// ─── Notifications ────────────────────────────────────────────────────────────

// NotificationBookmarkAdded is the Kind emitted when a job is bookmarked.
const NotificationBookmarkAdded = "bookmark_added"

// Notification is a user-visible confirmation.
type Notification struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"`
	JobID     model.JobID `json:"jobId"`
	Title     string      `json:"title,omitempty"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Notifier delivers confirmations to the presentation layer.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	slog.Info("notification", "kind", n.Kind, "jobId", n.JobID, "message", n.Message)
	return nil
}

// EventBookmarkAdded is the Redis channel RedisNotifier publishes on.
const EventBookmarkAdded = "EVENT_BOOKMARK_ADDED"

// RedisNotifier publishes notifications for SSE forwarding by the Gateway.
type RedisNotifier struct {
	rdb     redis.UniversalClient
	channel string
}

// NewRedisNotifier publishes on EventBookmarkAdded.
func NewRedisNotifier(rdb redis.UniversalClient) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: EventBookmarkAdded}
}

func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	event, err := json.Marshal(map[string]any{
		"type":         r.channel,
		"notification": n,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.channel, event).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", r.channel, err)
	}
	return nil
}

// ─── Confirmation ─────────────────────────────────────────────────────────────

// Prompt describes a confirmation the user must accept.
type Prompt struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	ConfirmLabel string `json:"confirmLabel"`
	CancelLabel  string `json:"cancelLabel"`
	Destructive  bool   `json:"destructive"`
}

// Confirmer asks the user to accept a Prompt.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) {
	return f(ctx, p)
}

// Confirmed is a Confirmer with a fixed answer, for consumers that collect
// the user's choice before calling Clear.
type Confirmed bool

func (c Confirmed) Confirm(context.Context, Prompt) (bool, error) { return bool(c), nil }

// ClearPrompt is shown before all bookmarks are removed.
var ClearPrompt = Prompt{
	Title:        "Clear All Bookmarks",
	Message:      "Are you sure you want to remove all bookmarked jobs?",
	ConfirmLabel: "Clear All",
	CancelLabel:  "Cancel",
	Destructive:  true,
}
