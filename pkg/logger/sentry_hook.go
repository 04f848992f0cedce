package logger

import (
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

// SentryHook reenvía a Sentry los eventos de nivel error o superior.
type SentryHook struct {
	hub *sentry.Hub
}

// NewSentryHook construye el hook sobre el hub indicado.
func NewSentryHook(hub *sentry.Hub) SentryHook {
	return SentryHook{hub: hub}
}

// Run implementa zerolog.Hook.
func (h SentryHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if h.hub == nil || level < zerolog.ErrorLevel || level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}
	h.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentryLevel(level))
		scope.SetTag("logger", "zerolog")
		h.hub.CaptureMessage(msg)
	})
}

func sentryLevel(level zerolog.Level) sentry.Level {
	switch level {
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return sentry.LevelFatal
	default:
		return sentry.LevelError
	}
}
