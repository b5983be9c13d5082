package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

func TestMailer_SendVerification(t *testing.T) {
	sender := &recordingSender{}
	m, err := NewMailer(sender, "http://localhost:3000/")
	require.NoError(t, err)

	require.NoError(t, m.SendVerification(context.Background(), "ben@ben.com", "benben", "tok"))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, From, msg.From)
	assert.Equal(t, "ben@ben.com", msg.To)
	assert.Equal(t, "Verify your Postit email address", msg.Subject)
	assert.Contains(t, msg.Text, "http://localhost:3000/verify-email/tok")
	assert.Contains(t, msg.HTML, `href="http://localhost:3000/verify-email/tok"`)
	assert.Contains(t, msg.HTML, "benben")
}

func TestMailer_EscapesHTML(t *testing.T) {
	sender := &recordingSender{}
	m, err := NewMailer(sender, "http://localhost:3000")
	require.NoError(t, err)

	require.NoError(t, m.SendVerification(context.Background(), "ben@ben.com", "<b>ben</b>", "tok"))
	assert.NotContains(t, sender.sent[0].HTML, "<b>ben</b>")
}

func TestMailer_SenderError(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	m, err := NewMailer(sender, "http://localhost:3000")
	require.NoError(t, err)

	assert.Error(t, m.SendVerification(context.Background(), "ben@ben.com", "benben", "tok"))
}

func TestNewToken(t *testing.T) {
	a, b := NewToken(), NewToken()
	assert.NotEqual(t, a, b)

	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 73)
}
