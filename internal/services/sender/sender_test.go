package sender

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/studio-directory/internal/config"
	"github.com/magabrotheeeer/studio-directory/internal/lib/smtp"
	"github.com/magabrotheeeer/studio-directory/internal/models"
)

type fakeWriteCloser struct {
	bytes.Buffer
}

func (f *fakeWriteCloser) Close() error { return nil }

type fakeClient struct {
	mailFrom string
	rcptTo   []string
	data     fakeWriteCloser
	quit     bool
}

func (f *fakeClient) Mail(from string) error { f.mailFrom = from; return nil }
func (f *fakeClient) Rcpt(to string) error   { f.rcptTo = append(f.rcptTo, to); return nil }
func (f *fakeClient) Data() (io.WriteCloser, error) {
	return &f.data, nil
}
func (f *fakeClient) Quit() error  { f.quit = true; return nil }
func (f *fakeClient) Close() error { return nil }

type fakeTransport struct {
	client     *fakeClient
	connectErr error
}

func (f *fakeTransport) Connect() (smtp.Client, error) {
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return f.client, nil
}

func (f *fakeTransport) GetSMTPUser() string { return "noreply@example.com" }

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestService(transport smtp.TransportInterface) *Service {
	cfg := &config.Config{}
	cfg.SMTP.BaseURL = "https://studios.example.com"
	return New(cfg, newNoopLogger(), transport)
}

func marshalJob(t *testing.T, job models.EmailJob) []byte {
	body, err := json.Marshal(job)
	require.NoError(t, err)
	return body
}

func TestSendEmailJob_Verification(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(&fakeTransport{client: client})

	body := marshalJob(t, models.EmailJob{
		Kind:        models.EmailKindVerification,
		To:          "studio@example.com",
		DisplayName: "Darkroom",
		Token:       "tok123",
	})

	require.NoError(t, svc.SendEmailJob(body))
	assert.Equal(t, "noreply@example.com", client.mailFrom)
	assert.Equal(t, []string{"studio@example.com"}, client.rcptTo)
	assert.True(t, client.quit)

	msg := client.data.String()
	assert.Contains(t, msg, "https://studios.example.com/api/v1/verify-email?token=tok123")
	assert.Contains(t, msg, "Darkroom")
	assert.Contains(t, msg, "Subject: Подтверждение адреса электронной почты")
}

func TestSendEmailJob_PasswordReset(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(&fakeTransport{client: client})

	body := marshalJob(t, models.EmailJob{
		Kind:        models.EmailKindPasswordReset,
		To:          "studio@example.com",
		DisplayName: "Darkroom",
		Token:       "tok456",
	})

	require.NoError(t, svc.SendEmailJob(body))
	msg := client.data.String()
	assert.Contains(t, msg, "reset-password?token=tok456")
	assert.Contains(t, msg, "Subject: Восстановление пароля")
}

func TestSendEmailJob_UnknownKind(t *testing.T) {
	svc := newTestService(&fakeTransport{client: &fakeClient{}})

	body := marshalJob(t, models.EmailJob{Kind: "unknown", To: "x@example.com"})
	assert.Error(t, svc.SendEmailJob(body))
}

func TestSendEmailJob_BadJSON(t *testing.T) {
	svc := newTestService(&fakeTransport{client: &fakeClient{}})
	assert.Error(t, svc.SendEmailJob([]byte("not a json")))
}

func TestSendEmailJob_ConnectError(t *testing.T) {
	svc := newTestService(&fakeTransport{connectErr: errors.New("smtp down")})

	body := marshalJob(t, models.EmailJob{
		Kind: models.EmailKindVerification,
		To:   "studio@example.com",
	})
	assert.Error(t, svc.SendEmailJob(body))
}
