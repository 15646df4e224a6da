package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html"
	"io/fs"
	"net/http"
	"regexp"
	"strings"

	"github.com/gofiber/template/django/v3"
	auth "github.com/goliatone/go-event-auth"
	goerrors "github.com/goliatone/go-errors"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplateWelcome         = "welcome"
	TemplateAccountCreated  = "account_created"
	TemplatePasswordChanged = "password_changed"
	TemplatePasswordReset   = "password_reset"
	TemplateRolesAssigned   = "roles_assigned"
)

const (
	DefaultAppName   = "Our App"
	DefaultLoginPath = "/auth/login"
)

const (
	SubjectAccountCreated  = "Your Account Has Been Created"
	SubjectPasswordReset   = "Password Reset Request"
	SubjectPasswordChanged = "Password Changed Successfully"
	SubjectRolesAssigned   = "Your Roles Have Been Updated"
)

// Message is a rendered email ready for delivery
type Message struct {
	To       string `json:"to"`
	ToName   string `json:"to_name,omitempty"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
	Template string `json:"template,omitempty"`
}

// Transport hands a message to whatever actually sends it
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// TransportFunc adapts a function to Transport
type TransportFunc func(ctx context.Context, msg Message) error

func (f TransportFunc) Deliver(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// LogTransport writes messages to a logger instead of sending them
type LogTransport struct {
	logger auth.Logger
}

// NewLogTransport creates a LogTransport
func NewLogTransport(logger auth.Logger) *LogTransport {
	if logger == nil {
		logger = auth.NewSlogLogger(nil)
	}
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Deliver(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.logger.Info("email delivered to log",
		"to", msg.To,
		"subject", msg.Subject,
		"template", msg.Template,
	)
	t.logger.Debug("email body", "text", msg.TextBody)
	return nil
}

// Mailer implements auth.Notifier by rendering the embedded templates
type Mailer struct {
	engine    *django.Engine
	transport Transport
	appName   string
	baseURL   string
	loginPath string
	logger    auth.Logger
}

var _ auth.Notifier = (*Mailer)(nil)

// MailerOption configures a Mailer
type MailerOption func(*Mailer)

// WithAppName sets the product name used in subjects and bodies
func WithAppName(name string) MailerOption {
	return func(m *Mailer) {
		if name != "" {
			m.appName = name
		}
	}
}

// WithLoginPath sets the frontend path linked from emails
func WithLoginPath(path string) MailerOption {
	return func(m *Mailer) {
		if path != "" {
			m.loginPath = path
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger auth.Logger) MailerOption {
	return func(m *Mailer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMailer loads the templates and returns a Mailer delivering through transport
func NewMailer(transport Transport, frontendBaseURL string, opts ...MailerOption) (*Mailer, error) {
	if transport == nil {
		return nil, goerrors.New("mailer requires a transport", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open email templates")
	}

	engine := django.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load email templates")
	}

	m := &Mailer{
		engine:    engine,
		transport: transport,
		appName:   DefaultAppName,
		baseURL:   strings.TrimRight(frontendBaseURL, "/"),
		loginPath: DefaultLoginPath,
		logger:    auth.NewSlogLogger(nil),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m, nil
}

func (m *Mailer) SendWelcome(ctx context.Context, to auth.Recipient) error {
	subject := fmt.Sprintf("Welcome to %s, %s!", m.appName, displayName(to))
	return m.send(ctx, to, subject, TemplateWelcome, nil)
}

func (m *Mailer) SendAccountCreated(ctx context.Context, to auth.Recipient, tempPassword string) error {
	return m.send(ctx, to, SubjectAccountCreated, TemplateAccountCreated, map[string]any{
		"temporary_password": tempPassword,
	})
}

func (m *Mailer) SendPasswordChanged(ctx context.Context, to auth.Recipient) error {
	return m.send(ctx, to, SubjectPasswordChanged, TemplatePasswordChanged, nil)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to auth.Recipient, callbackURL string) error {
	return m.send(ctx, to, SubjectPasswordReset, TemplatePasswordReset, map[string]any{
		"reset_link": callbackURL,
	})
}

func (m *Mailer) SendRoleAssignmentNotice(ctx context.Context, to auth.Recipient, roles []string) error {
	return m.send(ctx, to, SubjectRolesAssigned, TemplateRolesAssigned, map[string]any{
		"roles": roles,
	})
}

// Render renders a template into a Message without delivering it
func (m *Mailer) Render(to auth.Recipient, subject, name string, extra map[string]any) (Message, error) {
	data := map[string]any{
		"name":      displayName(to),
		"email":     to.Email,
		"app_name":  m.appName,
		"login_url": m.baseURL + m.loginPath,
	}
	for k, v := range extra {
		data[k] = v
	}

	var buf bytes.Buffer
	if err := m.engine.Render(&buf, name, data); err != nil {
		return Message{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render email").
			WithMetadata(map[string]any{"template": name})
	}

	body := buf.String()
	return Message{
		To:       to.Email,
		ToName:   to.Name,
		Subject:  subject,
		HTMLBody: body,
		TextBody: StripHTML(body),
		Template: name,
	}, nil
}

func (m *Mailer) send(ctx context.Context, to auth.Recipient, subject, name string, extra map[string]any) error {
	if to.Email == "" {
		return goerrors.New("recipient email is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	msg, err := m.Render(to, subject, name, extra)
	if err != nil {
		return err
	}

	if err := m.transport.Deliver(ctx, msg); err != nil {
		m.logger.Warn("email delivery failed", "to", to.Email, "template", name, "error", err)
		return err
	}
	return nil
}

func displayName(to auth.Recipient) string {
	if name := strings.TrimSpace(to.Name); name != "" {
		return name
	}
	return to.Email
}

var (
	linkPattern  = regexp.MustCompile(`(?is)<a[^>]*href=["']([^"']+)["'][^>]*>(.*?)</a>`)
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	blankPattern = regexp.MustCompile(`[ \t]*\n[ \t\n]*`)
	spacePattern = regexp.MustCompile(`[ \t]+`)
)

// StripHTML renders a plain text alternative of an HTML body
func StripHTML(body string) string {
	text := linkPattern.ReplaceAllString(body, "$2 ($1)")
	text = tagPattern.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = spacePattern.ReplaceAllString(text, " ")
	text = blankPattern.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
