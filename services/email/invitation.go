package email

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"go.uber.org/zap"
)

// InvitationData fills the organization invitation email
type InvitationData struct {
	InvitedByName    string
	OrganizationName string
	InviteLink       string
	UserName         string
	ExpiresInHours   int
}

func (d InvitationData) withDefaults() InvitationData {
	if d.InvitedByName == "" {
		d.InvitedByName = "A colleague"
	}
	if d.OrganizationName == "" {
		d.OrganizationName = "their organization"
	}
	if d.UserName == "" {
		d.UserName = "there"
	}
	if d.ExpiresInHours <= 0 {
		d.ExpiresInHours = 48
	}
	return d
}

var invitationHTML = htmltemplate.Must(htmltemplate.New("invitation").Parse(`<!DOCTYPE html>
<html>
<body style="background-color:#0a0a0a;font-family:'Outfit',sans-serif;color:#f0f0f0;">
  <div style="margin:0 auto;padding:20px 0 48px;max-width:580px;">
    <h1 style="font-size:32px;font-weight:bold;text-align:center;margin:30px 0;">You're Invited!</h1>
    <p style="font-size:16px;line-height:26px;color:#cccccc;">Hello {{.UserName}},</p>
    <p style="font-size:16px;line-height:26px;color:#cccccc;">
      <strong>{{.InvitedByName}}</strong> has invited you to join the <strong>{{.OrganizationName}}</strong> organization on Cogzy AI.
    </p>
    <div style="text-align:center;margin:32px 0;">
      <a href="{{.InviteLink}}" style="background-color:#ffffff;color:#0a0a0a;border-radius:8px;font-size:16px;font-weight:bold;text-decoration:none;display:block;padding:14px;">Accept Invitation</a>
    </div>
    <p style="font-size:16px;line-height:26px;color:#cccccc;">
      This invitation link will expire in {{.ExpiresInHours}} hours. If you have any questions, please reach out to {{.InvitedByName}}.
    </p>
    <p style="font-size:16px;line-height:26px;color:#cccccc;">Thanks,<br>The Cogzy AI Team</p>
    <hr style="border-color:#262626;margin:20px 0;border-style:solid;border-width:1px 0 0 0;">
    <p style="color:#888888;font-size:12px;line-height:16px;">If you were not expecting this invitation, you can ignore this email.</p>
  </div>
</body>
</html>`))

var invitationText = texttemplate.Must(texttemplate.New("invitation").Parse(`Hello {{.UserName}},

{{.InvitedByName}} has invited you to join the {{.OrganizationName}} organization on Cogzy AI.

Accept the invitation: {{.InviteLink}}

This invitation link will expire in {{.ExpiresInHours}} hours. If you have any questions, please reach out to {{.InvitedByName}}.

Thanks,
The Cogzy AI Team

If you were not expecting this invitation, you can ignore this email.
`))

// RenderInvitation renders the invitation email addressed to `to`
func RenderInvitation(to string, data InvitationData) (*Message, error) {
	data = data.withDefaults()

	var html, text bytes.Buffer
	if err := invitationHTML.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render invitation html: %w", err)
	}
	if err := invitationText.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to render invitation text: %w", err)
	}

	return &Message{
		To:      to,
		Subject: fmt.Sprintf("You've been invited to join %s on Cogzy AI", data.OrganizationName),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

// Mailer renders templated emails and hands them to a Sender
type Mailer struct {
	sender Sender
	logger *zap.Logger
}

// NewMailer creates a Mailer
func NewMailer(sender Sender, logger *zap.Logger) *Mailer {
	return &Mailer{
		sender: sender,
		logger: logger,
	}
}

// SendInvitation renders and delivers an organization invitation
func (m *Mailer) SendInvitation(ctx context.Context, to string, data InvitationData) error {
	msg, err := RenderInvitation(to, data)
	if err != nil {
		return err
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return err
	}
	m.logger.Info("invitation email dispatched", zap.String("to", to))
	return nil
}
