package logger_test

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shopper-invoicing/pkg/logger"
)

func TestNew_JSONConNivel(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Env: "production", Level: "warn", Output: &buf})
	require.NoError(t, err)

	log.Info().Msg("no debe salir")
	log.Warn().Str("provider", "sandbox").Msg("sí debe salir")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "sandbox", entry["provider"])
	assert.Equal(t, "sí debe salir", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNew_NivelDesconocidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Env: "production", Level: "verbose", Output: &buf})
	require.NoError(t, err)

	log.Debug().Msg("oculto")
	assert.Zero(t, buf.Len())
	log.Info().Msg("visible")
	assert.NotZero(t, buf.Len())
}

func TestSentryHook_SoloNivelError(t *testing.T) {
	var (
		mu       sync.Mutex
		captured []*sentry.Event
	)
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn: "https://public@sentry.example.com/1",
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			captured = append(captured, event)
			mu.Unlock()
			return nil // no sale a la red
		},
	})
	require.NoError(t, err)
	hub := sentry.NewHub(client, sentry.NewScope())

	zl := zerolog.New(&bytes.Buffer{}).Hook(logger.NewSentryHook(hub))
	zl.Info().Msg("informativo")
	zl.Warn().Msg("advertencia")
	zl.Error().Msg("proveedor caído")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, captured, 1)
	assert.Equal(t, "proveedor caído", captured[0].Message)
	assert.Equal(t, sentry.LevelError, captured[0].Level)
}
