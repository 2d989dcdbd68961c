package mailer

import (
	"assistbot/app/config"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendDisabled(t *testing.T) {
	c := New(config.Email{Host: "smtp.example.com"})

	assert.False(t, c.Enabled())
	assert.ErrorIs(t, c.Send(context.Background(), "s", "b"), ErrDisabled)
}

func TestBuildMessage(t *testing.T) {
	c := New(config.Email{
		Host:     "smtp.example.com",
		Port:     587,
		User:     "bot@example.com",
		Password: "secret",
		To:       "manager@example.com",
	})
	require.True(t, c.Enabled())
	assert.Equal(t, "manager@example.com", c.Recipient())

	msg, err := c.buildMessage("Новая заявка с сайта", "Имя: Анна")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "bot@example.com")
	assert.Contains(t, raw, "manager@example.com")
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	c := New(config.Email{User: "bot@example.com", To: "not an address"})

	_, err := c.buildMessage("s", "b")
	assert.Error(t, err)
}
