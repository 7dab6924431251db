package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSender_Send(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewLogSender(slog.New(slog.NewTextHandler(&buf, nil)))

	err := s.Send(context.Background(), Message{
		To:      "a@x.com",
		From:    "old dude",
		Subject: "Pet-Server: Signup",
		Text:    "123456",
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "to=a@x.com")
	assert.Contains(t, buf.String(), "123456")
}

func TestSMTPSender_Send(t *testing.T) {
	t.Parallel()

	var (
		gotAddr string
		gotAuth smtp.Auth
		gotFrom string
		gotTo   []string
		gotMsg  []byte
	)
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "noreply@example.com"})
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	err := s.Send(context.Background(), Message{To: "a@x.com", From: "old dude", Subject: "hi", Text: "line1\nline2"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"a@x.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "From: \"old dude\" <noreply@example.com>\r\n")
	assert.Contains(t, string(gotMsg), "Subject: hi\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\nline1\r\nline2")
}

func TestSMTPSender_Send_NoAuthWithoutUsername(t *testing.T) {
	t.Parallel()

	s := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 25, From: "noreply@example.com"})
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.Nil(t, a)
		return nil
	}

	assert.NoError(t, s.Send(context.Background(), Message{To: "a@x.com"}))
}

func TestSMTPSender_Send_Errors(t *testing.T) {
	t.Parallel()

	t.Run("relay failure is wrapped", func(t *testing.T) {
		relayErr := errors.New("connection refused")
		s := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 25})
		s.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return relayErr }

		err := s.Send(context.Background(), Message{To: "a@x.com"})
		assert.ErrorIs(t, err, relayErr)
	})

	t.Run("cancelled context skips dialing", func(t *testing.T) {
		called := false
		s := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 25})
		s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
			called = true
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, s.Send(ctx, Message{To: "a@x.com"}), context.Canceled)
		assert.False(t, called)
	})
}
