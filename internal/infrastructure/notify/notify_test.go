package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
	"github.com/jhoicas/shopper-invoicing/internal/infrastructure/notify"
)

// fakeSender registra los correos recibidos; puede bloquear o fallar.
type fakeSender struct {
	mu      sync.Mutex
	sent    []ports.EmailMessage
	err     error
	release chan struct{}
	started chan struct{}
}

func (s *fakeSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *fakeSender) Sent() []ports.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.EmailMessage(nil), s.sent...)
}

func testMessage() ports.EmailMessage {
	return ports.EmailMessage{
		From:     "facturas@example.com",
		To:       []string{"cliente@example.com"},
		Subject:  "Tu factura",
		HTMLBody: "<p>hola</p>",
		Attachments: []ports.EmailAttachment{
			{Filename: "factura.zip", ContentType: "application/zip", Content: []byte{0x50, 0x4b, 0x03, 0x04}},
		},
	}
}

func TestAsyncDispatcher_NoBloqueaYEnvia(t *testing.T) {
	sender := &fakeSender{release: make(chan struct{}), started: make(chan struct{}, 1)}
	d := notify.NewAsyncDispatcher(sender, time.Second, zerolog.Nop())

	require.NoError(t, d.Dispatch(context.Background(), testMessage()), "Dispatch retorna antes del envío")
	<-sender.started
	assert.Empty(t, sender.Sent(), "el envío sigue en curso")

	close(sender.release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	require.Len(t, sender.Sent(), 1)
	assert.Equal(t, "Tu factura", sender.Sent()[0].Subject)
}

func TestAsyncDispatcher_CopiaElMensaje(t *testing.T) {
	sender := &fakeSender{release: make(chan struct{}), started: make(chan struct{}, 1)}
	d := notify.NewAsyncDispatcher(sender, time.Second, zerolog.Nop())

	msg := testMessage()
	require.NoError(t, d.Dispatch(context.Background(), msg))
	<-sender.started
	msg.To[0] = "otro@example.com"
	msg.Attachments[0].Content[0] = 'X'
	close(sender.release)

	require.NoError(t, d.Close(context.Background()))
	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "cliente@example.com", sent[0].To[0])
	assert.Equal(t, byte(0x50), sent[0].Attachments[0].Content[0])
}

func TestAsyncDispatcher_SobreviveALaPeticion(t *testing.T) {
	sender := &fakeSender{}
	d := notify.NewAsyncDispatcher(sender, time.Second, zerolog.Nop())

	reqCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Dispatch(reqCtx, testMessage()))
	cancel() // la petición HTTP terminó

	require.NoError(t, d.Close(context.Background()))
	assert.Len(t, sender.Sent(), 1)
}

func TestAsyncDispatcher_ErrorSoloSeRegistra(t *testing.T) {
	var buf bytes.Buffer
	sender := &fakeSender{err: errors.New("smtp caído")}
	d := notify.NewAsyncDispatcher(sender, time.Second, zerolog.New(&buf))

	require.NoError(t, d.Dispatch(context.Background(), testMessage()))
	require.NoError(t, d.Close(context.Background()))
	assert.Contains(t, buf.String(), "smtp caído")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestAsyncDispatcher_TimeoutPorEnvio(t *testing.T) {
	var buf bytes.Buffer
	sender := &fakeSender{release: make(chan struct{})} // nunca se libera
	d := notify.NewAsyncDispatcher(sender, 20*time.Millisecond, zerolog.New(&buf))

	require.NoError(t, d.Dispatch(context.Background(), testMessage()))
	require.NoError(t, d.Close(context.Background()))
	assert.Contains(t, buf.String(), context.DeadlineExceeded.Error())
}

func TestAsyncDispatcher_Cerrado(t *testing.T) {
	d := notify.NewAsyncDispatcher(&fakeSender{}, time.Second, zerolog.Nop())
	require.NoError(t, d.Close(context.Background()))
	assert.ErrorIs(t, d.Dispatch(context.Background(), testMessage()), notify.ErrDispatcherClosed)
}

func TestAsyncDispatcher_CloseAcotado(t *testing.T) {
	sender := &fakeSender{release: make(chan struct{}), started: make(chan struct{}, 1)}
	d := notify.NewAsyncDispatcher(sender, time.Minute, zerolog.Nop())
	require.NoError(t, d.Dispatch(context.Background(), testMessage()))
	<-sender.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
	close(sender.release)
}

func TestNewSendEmailTask(t *testing.T) {
	task, err := notify.NewSendEmailTask(testMessage())
	require.NoError(t, err)
	assert.Equal(t, notify.TaskTypeSendEmail, task.Type())

	var decoded ports.EmailMessage
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, testMessage(), decoded)
}

func TestQueueDispatcher_Encola(t *testing.T) {
	mr := miniredis.RunT(t)
	q := notify.NewQueueDispatcher(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer q.Close()

	require.NoError(t, q.Dispatch(context.Background(), testMessage()))

	pending, err := mr.List("asynq:{default}:pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestQueueDispatcher_RedisCaido(t *testing.T) {
	mr := miniredis.RunT(t)
	q := notify.NewQueueDispatcher(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer q.Close()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, q.Dispatch(ctx, testMessage()))
}

func TestSendEmailHandler(t *testing.T) {
	sender := &fakeSender{}
	h := notify.NewSendEmailHandler(sender, time.Second, zerolog.Nop())

	task, err := notify.NewSendEmailTask(testMessage())
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))
	require.Len(t, sender.Sent(), 1)
	assert.Equal(t, testMessage(), sender.Sent()[0])
}

func TestSendEmailHandler_SinReintentos(t *testing.T) {
	h := notify.NewSendEmailHandler(&fakeSender{err: errors.New("smtp caído")}, time.Second, zerolog.Nop())
	task, err := notify.NewSendEmailTask(testMessage())
	require.NoError(t, err)
	assert.ErrorIs(t, h.ProcessTask(context.Background(), task), asynq.SkipRetry)

	bad := asynq.NewTask(notify.TaskTypeSendEmail, []byte("{"))
	assert.ErrorIs(t, h.ProcessTask(context.Background(), bad), asynq.SkipRetry)
}
