package mailer

import (
	"testing"

	"github.com/contactsbook/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
}

func (s staticTokens) IssueConfirmationToken(email string) (string, error) {
	return s.token, nil
}

func TestRenderConfirmation(t *testing.T) {
	m, err := New(config.MailConfig{
		Host: "localhost",
		Port: 1025,
		From: "noreply@example.com",
	}, staticTokens{token: "tok-123"})
	require.NoError(t, err)

	body, err := m.renderConfirmation(Job{
		Email:    "ada@example.com",
		Username: "ada",
		Host:     "https://contacts.example.com",
	}, "tok-123")
	require.NoError(t, err)

	assert.Contains(t, body, "ada")
	assert.Contains(t, body, "https://contacts.example.com/api/auth/confirmed_email/tok-123")
}
