package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func TestOutboxSender_WritesDocument(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	sender, err := NewOutboxSender(fs, "mem://localhost/outbox")
	require.NoError(t, err)

	delivery := &Delivery{ID: "m1", Template: TemplateApproved, To: "ann@example.com", Subject: "ok", Body: "approved", SentAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, sender.Deliver(ctx, delivery))

	objects, err := fs.List(ctx, "mem://localhost/outbox")
	require.NoError(t, err)
	var found bool
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		data, err := fs.Download(ctx, object)
		require.NoError(t, err)
		var actual Delivery
		require.NoError(t, json.Unmarshal(data, &actual))
		assert.Equal(t, *delivery, actual)
		found = true
	}
	assert.True(t, found)
}

func TestSMTPSender_Deliver(t *testing.T) {
	_, err := NewSMTPSender(context.Background(), SMTPConfig{From: "noreply@example.com"})
	assert.Error(t, err)

	sender, err := NewSMTPSender(context.Background(), SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"})
	require.NoError(t, err)

	var gotAddr string
	var gotTo []string
	var gotMsg string
	sender.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}
	require.NoError(t, sender.Deliver(context.Background(), &Delivery{ID: "m1", To: "ann@example.com", Subject: "Code", Body: "line1\nline2"}))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"ann@example.com"}, gotTo)
	assert.True(t, strings.HasPrefix(gotMsg, "From: noreply@example.com\r\n"))
	assert.Contains(t, gotMsg, "Subject: Code\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "line1\r\nline2"))

	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay down") }
	assert.Error(t, sender.Deliver(context.Background(), &Delivery{To: "ann@example.com"}))
}
