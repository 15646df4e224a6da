package notify_test

import (
	"context"
	"errors"
	"testing"

	auth "github.com/goliatone/go-event-auth"
	"github.com/goliatone/go-event-auth/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureTransport struct {
	messages []notify.Message
	err      error
}

func (c *captureTransport) Deliver(_ context.Context, msg notify.Message) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, msg)
	return nil
}

func newMailer(t *testing.T) (*notify.Mailer, *captureTransport) {
	t.Helper()
	transport := &captureTransport{}
	mailer, err := notify.NewMailer(transport, "https://app.test/")
	require.NoError(t, err)
	return mailer, transport
}

var jane = auth.Recipient{Email: "jane@example.com", Name: "Jane Doe"}

func TestMailer_Templates(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		send     func(m *notify.Mailer) error
		subject  string
		template string
		contains []string
	}{
		{
			name:     "welcome",
			send:     func(m *notify.Mailer) error { return m.SendWelcome(ctx, jane) },
			subject:  "Welcome to Our App, Jane Doe!",
			template: notify.TemplateWelcome,
			contains: []string{"Welcome Jane Doe!", "https://app.test/auth/login"},
		},
		{
			name:     "account created",
			send:     func(m *notify.Mailer) error { return m.SendAccountCreated(ctx, jane, "Tmp#Pass123") },
			subject:  notify.SubjectAccountCreated,
			template: notify.TemplateAccountCreated,
			contains: []string{"Hello Jane Doe,", "Tmp#Pass123", "https://app.test/auth/login"},
		},
		{
			name: "password reset",
			send: func(m *notify.Mailer) error {
				return m.SendPasswordReset(ctx, jane, "https://app.test/auth/reset-password?email=jane%40example.com&token=abc")
			},
			subject:  notify.SubjectPasswordReset,
			template: notify.TemplatePasswordReset,
			contains: []string{"Reset Password", "token=abc"},
		},
		{
			name:     "password changed",
			send:     func(m *notify.Mailer) error { return m.SendPasswordChanged(ctx, jane) },
			subject:  notify.SubjectPasswordChanged,
			template: notify.TemplatePasswordChanged,
			contains: []string{"The password for your account was changed."},
		},
		{
			name: "roles assigned",
			send: func(m *notify.Mailer) error {
				return m.SendRoleAssignmentNotice(ctx, jane, []string{"Admin", "EventCreator"})
			},
			subject:  notify.SubjectRolesAssigned,
			template: notify.TemplateRolesAssigned,
			contains: []string{"<li>Admin</li>", "<li>EventCreator</li>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer, transport := newMailer(t)

			require.NoError(t, tt.send(mailer))
			require.Len(t, transport.messages, 1)

			msg := transport.messages[0]
			assert.Equal(t, jane.Email, msg.To)
			assert.Equal(t, jane.Name, msg.ToName)
			assert.Equal(t, tt.subject, msg.Subject)
			assert.Equal(t, tt.template, msg.Template)
			for _, s := range tt.contains {
				assert.Contains(t, msg.HTMLBody, s)
			}
			assert.NotContains(t, msg.TextBody, "<")
		})
	}
}

func TestMailer_ResetLinkSurvivesTextBody(t *testing.T) {
	mailer, transport := newMailer(t)
	link := "https://app.test/auth/reset-password?email=jane%40example.com&token=abc"

	require.NoError(t, mailer.SendPasswordReset(context.Background(), jane, link))
	require.Len(t, transport.messages, 1)

	msg := transport.messages[0]
	assert.Contains(t, msg.TextBody, link)
	assert.NotContains(t, msg.TextBody, "&amp;")
}

func TestMailer_EmptyRoles(t *testing.T) {
	mailer, transport := newMailer(t)

	require.NoError(t, mailer.SendRoleAssignmentNotice(context.Background(), jane, nil))
	require.Len(t, transport.messages, 1)
	assert.Contains(t, transport.messages[0].HTMLBody, "no longer has any roles")
}

func TestMailer_NameFallsBackToEmail(t *testing.T) {
	mailer, transport := newMailer(t)

	require.NoError(t, mailer.SendWelcome(context.Background(), auth.Recipient{Email: "solo@example.com"}))
	require.Len(t, transport.messages, 1)
	assert.Equal(t, "Welcome to Our App, solo@example.com!", transport.messages[0].Subject)
}

func TestMailer_Options(t *testing.T) {
	transport := &captureTransport{}
	mailer, err := notify.NewMailer(transport, "https://events.test",
		notify.WithAppName("Event Hub"),
		notify.WithLoginPath("/login"),
	)
	require.NoError(t, err)

	require.NoError(t, mailer.SendWelcome(context.Background(), jane))
	require.Len(t, transport.messages, 1)
	assert.Equal(t, "Welcome to Event Hub, Jane Doe!", transport.messages[0].Subject)
	assert.Contains(t, transport.messages[0].HTMLBody, "https://events.test/login")
}

func TestMailer_Errors(t *testing.T) {
	t.Run("requires transport", func(t *testing.T) {
		_, err := notify.NewMailer(nil, "https://app.test")
		assert.Error(t, err)
	})

	t.Run("requires recipient email", func(t *testing.T) {
		mailer, transport := newMailer(t)
		assert.Error(t, mailer.SendWelcome(context.Background(), auth.Recipient{Name: "Nobody"}))
		assert.Empty(t, transport.messages)
	})

	t.Run("propagates transport failure", func(t *testing.T) {
		boom := errors.New("smtp down")
		mailer, err := notify.NewMailer(&captureTransport{err: boom}, "https://app.test")
		require.NoError(t, err)
		assert.ErrorIs(t, mailer.SendPasswordChanged(context.Background(), jane), boom)
	})
}

func TestLogTransport_Deliver(t *testing.T) {
	transport := notify.NewLogTransport(nil)
	assert.NoError(t, transport.Deliver(context.Background(), notify.Message{To: "a@b.c", Subject: "hi"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, transport.Deliver(ctx, notify.Message{To: "a@b.c"}), context.Canceled)
}

func TestStripHTML(t *testing.T) {
	got := notify.StripHTML("<p>Hello <strong>Jane</strong> &amp; co</p>\n\n   <p>Bye</p>")
	assert.Equal(t, "Hello Jane & co\nBye", got)

	got = notify.StripHTML(`<p><a href="https://x.test/?a=1&amp;b=2">Go</a></p>`)
	assert.Equal(t, "Go (https://x.test/?a=1&b=2)", got)
}
