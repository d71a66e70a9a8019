// Package email sends the mails of the generation pipeline through the
// Resend API. Services depend on the EmailSender interface; main wires the
// Resend implementation when RESEND_API_KEY is set.
package email

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v3"
)

// GenerationResult is what a generation mail reports.
type GenerationResult struct {
	ProjectID   string
	ProjectName string
	Ready       bool
	RepoURL     string // set when Ready
	Error       string // set when not Ready
}

// EmailSender sends transactional mail.
type EmailSender interface {
	// SendGenerationResult tells a user their project finished generating,
	// successfully or not.
	SendGenerationResult(ctx context.Context, toEmail string, result GenerationResult) error
}

type resendSender struct {
	client    *resend.Client
	fromEmail string // e.g. "scaffoldr <noreply@scaffoldr.dev>"
	appURL    string // dashboard URL used for links
}

// NewResendSender returns an EmailSender backed by Resend. fromEmail must
// belong to a domain verified in Resend.
func NewResendSender(apiKey, fromEmail, appURL string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

func (s *resendSender) SendGenerationResult(ctx context.Context, toEmail string, result GenerationResult) error {
	subject, body := renderGenerationResult(s.appURL, result)

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{toEmail},
		Subject: subject,
		Html:    body,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send generation email: %w", err)
	}
	return nil
}

// renderGenerationResult builds the subject and HTML body of a mail.
func renderGenerationResult(appURL string, r GenerationResult) (string, string) {
	name := html.EscapeString(r.ProjectName)
	link := html.EscapeString(fmt.Sprintf("%s/projects/%s", appURL, r.ProjectID))

	var subject, headline, detail string
	if r.Ready {
		subject = fmt.Sprintf("%s is ready", r.ProjectName)
		headline = "Your project is ready"
		detail = fmt.Sprintf(`Repository: <a href="%s" style="color:#6366f1;">%s</a>`,
			html.EscapeString(r.RepoURL), html.EscapeString(r.RepoURL))
	} else {
		subject = fmt.Sprintf("%s failed to generate", r.ProjectName)
		headline = "Project generation failed"
		detail = "Error: " + html.EscapeString(r.Error)
	}

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background-color:#0f172a;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#1e293b;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#e2e8f0;font-size:24px;margin:0 0 8px 0;">scaffoldr</h1>
              <h2 style="color:#e2e8f0;font-size:18px;margin:0 0 24px 0;">%s</h2>
              <p style="color:#94a3b8;font-size:15px;line-height:1.6;margin:0 0 16px 0;"><strong>%s</strong></p>
              <p style="color:#94a3b8;font-size:14px;line-height:1.6;margin:0 0 24px 0;">%s</p>
              <a href="%s" style="color:#6366f1;font-size:15px;">Open project</a>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, headline, name, detail, link)

	return subject, body
}
