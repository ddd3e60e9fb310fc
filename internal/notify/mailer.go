// Package notify delivers email through SES and push messages through SNS.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"wellness/internal/infra"
)

// Mailer sends the service's transactional emails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
	SendReminder(ctx context.Context, to, subject, body string) error
}

// EmailSender is the subset of the SES client the mailer uses.
type EmailSender interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer sends plain-text mail from a verified sender address.
type SESMailer struct {
	client EmailSender
	sender string
	logger infra.Logger
}

func NewSESMailer(client EmailSender, sender string, logger *infra.Logger) *SESMailer {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &SESMailer{client: client, sender: sender, logger: infra.Component(*logger, "ses")}
}

// NewSESClient builds the AWS client used by the mailer.
func NewSESClient(cfg aws.Config) *ses.Client {
	return ses.NewFromConfig(cfg)
}

func (m *SESMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	body := fmt.Sprintf("We received a request to reset your password.\n\nOpen this link to choose a new one:\n%s\n\nIf you did not ask for this, you can ignore this email.", link)
	return m.send(ctx, to, "Reset your password", body)
}

func (m *SESMailer) SendReminder(ctx context.Context, to, subject, body string) error {
	return m.send(ctx, to, subject, body)
}

func (m *SESMailer) send(ctx context.Context, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("notify: recipient is required")
	}
	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body:    &types.Body{Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")}},
		},
		Source: aws.String(m.sender),
	})
	if err != nil {
		m.logger.Error().Err(err).Str("subject", subject).Msg("send email failed")
		return fmt.Errorf("notify: send email: %w", err)
	}
	m.logger.Debug().Str("subject", subject).Msg("email sent")
	return nil
}

// LogMailer logs messages instead of sending them. Used when no SES sender
// is configured.
type LogMailer struct {
	logger infra.Logger
}

func NewLogMailer(logger infra.Logger) *LogMailer {
	return &LogMailer{logger: infra.Component(logger, "mail")}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.logger.Info().Str("to", to).Str("link", link).Msg("password reset email (not sent)")
	return nil
}

func (m *LogMailer) SendReminder(_ context.Context, to, subject, _ string) error {
	m.logger.Info().Str("to", to).Str("subject", subject).Msg("reminder email (not sent)")
	return nil
}
