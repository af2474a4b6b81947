package mailer

import (
	"context"
	"mime"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NoHostIsNoOp(t *testing.T) {
	m := New(Config{})
	_, ok := m.(NoOp)
	assert.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), []string{"a@cornell.edu"}, "s", "b"))
}

func TestSMTPMailer_Send(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	m := New(Config{Host: "smtp.example.com", Port: 2525, From: "noreply@example.com"}).(*smtpMailer)
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotTo = to
		gotMsg = string(msg)
		return nil
	}

	err := m.Send(context.Background(), []string{"a@cornell.edu", "b@cornell.edu"}, "Hello", "<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, []string{"a@cornell.edu", "b@cornell.edu"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Hello\r\n")
	assert.Contains(t, gotMsg, "To: a@cornell.edu, b@cornell.edu\r\n")
	assert.Contains(t, gotMsg, "<p>hi</p>")
}

func TestSMTPMailer_NoRecipients(t *testing.T) {
	m := New(Config{Host: "smtp.example.com"})
	assert.Error(t, m.Send(context.Background(), nil, "s", "b"))
}

func headers(t *testing.T, msg string) []string {
	t.Helper()
	head, _, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	return strings.Split(head, "\r\n")
}

func TestSMTPMailer_SubjectCannotInjectHeaders(t *testing.T) {
	var gotMsg string
	m := New(Config{Host: "smtp.example.com", From: "noreply@example.com"}).(*smtpMailer)
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	}

	subject := "New message from applicant Bob\r\nBcc: attacker@example.com\nReply-To: attacker@example.com"
	require.NoError(t, m.Send(context.Background(), []string{"owner@example.org"}, subject, "<p>hi</p>"))

	lines := headers(t, gotMsg)
	assert.Len(t, lines, 5)
	for _, line := range lines {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
		assert.False(t, strings.HasPrefix(line, "Reply-To:"), line)
	}
	assert.Contains(t, gotMsg, "Subject: New message from applicant Bob  Bcc: attacker@example.com Reply-To: attacker@example.com\r\n")
}

func TestSMTPMailer_EncodesNonASCIISubject(t *testing.T) {
	var gotMsg string
	m := New(Config{Host: "smtp.example.com", From: "noreply@example.com"}).(*smtpMailer)
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	}

	subject := "Application Update: Cornell Hyperloop \u2014 Accepted"
	require.NoError(t, m.Send(context.Background(), []string{"a@cornell.edu"}, subject, "<p>hi</p>"))

	var line string
	for _, h := range headers(t, gotMsg) {
		if strings.HasPrefix(h, "Subject: ") {
			line = strings.TrimPrefix(h, "Subject: ")
		}
	}
	assert.True(t, strings.HasPrefix(line, "=?utf-8?q?"), line)

	decoded, err := new(mime.WordDecoder).DecodeHeader(line)
	require.NoError(t, err)
	assert.Equal(t, subject, decoded)
}
