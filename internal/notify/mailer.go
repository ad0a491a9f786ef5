package notify

import (
	"context"
	"net/url"
	"strings"
	"time"

	"duobudget/internal/uuid"
)

// Mailer turns account events into mail messages with links back into the
// web app.
type Mailer struct {
	pub         Publisher
	frontendURL string
	now         func() time.Time
}

// NewMailer creates a Mailer publishing through pub.
func NewMailer(pub Publisher, frontendURL string) *Mailer {
	return &Mailer{
		pub:         pub,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

// SendMagicLink invites a user to set their first password.
func (m *Mailer) SendMagicLink(ctx context.Context, email, name, token string, expiresAt time.Time) error {
	return m.send(ctx, KindMagicLink, email, name, "/set-password", token, expiresAt)
}

// SendPasswordReset lets a user choose a new password.
func (m *Mailer) SendPasswordReset(ctx context.Context, email, name, token string, expiresAt time.Time) error {
	return m.send(ctx, KindPasswordReset, email, name, "/reset-password", token, expiresAt)
}

func (m *Mailer) send(ctx context.Context, kind, email, name, path, token string, expiresAt time.Time) error {
	link := m.frontendURL + path + "?" + url.Values{"token": {token}}.Encode()
	return m.pub.Publish(ctx, &MailMessage{
		ID:        uuid.New(),
		Kind:      kind,
		To:        email,
		Name:      name,
		Link:      link,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: m.now().UTC(),
	})
}
