package adapter

import (
	"log/slog"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a user-facing, non-fatal report from the adapter.
type Notification struct {
	Level      Level
	Op         string
	CampaignID string
	Message    string
	Err        error
	At         time.Time
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(n Notification) {
	attrs := []any{"op", n.Op, "campaign_id", n.CampaignID}
	if n.Err != nil {
		attrs = append(attrs, "error", n.Err)
	}

	switch n.Level {
	case LevelError:
		l.logger.Error(n.Message, attrs...)
	case LevelWarning:
		l.logger.Warn(n.Message, attrs...)
	default:
		l.logger.Info(n.Message, attrs...)
	}
}
