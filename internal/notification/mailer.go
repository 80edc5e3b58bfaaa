package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/config"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPInviteMailer sends team invitation emails using an SMTP server.
type SMTPInviteMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	send     sendFunc
	logger   zerolog.Logger
}

// NewSMTPInviteMailer constructs a new SMTPInviteMailer from config.
func NewSMTPInviteMailer(cfg config.EmailConfig, logger zerolog.Logger) (*SMTPInviteMailer, error) {
	host := strings.TrimSpace(cfg.SMTPHost)
	from := strings.TrimSpace(cfg.From)
	if host == "" {
		return nil, fmt.Errorf("smtp_host is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from address is required")
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	return &SMTPInviteMailer{
		host:     host,
		port:     port,
		username: strings.TrimSpace(cfg.Username),
		password: cfg.Password,
		from:     from,
		send:     smtp.SendMail,
		logger:   logger.With().Str("component", "invite_mailer").Logger(),
	}, nil
}

// SendTeamInvite dispatches an invitation to join teamName.
func (m *SMTPInviteMailer) SendTeamInvite(ctx context.Context, recipientEmail, teamName, inviterName, inviteURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	msg := inviteMessage(m.from, recipientEmail, teamName, inviterName, inviteURL)
	if err := m.send(addr, auth, m.from, []string{recipientEmail}, msg); err != nil {
		return fmt.Errorf("send invite to %s: %w", recipientEmail, err)
	}
	m.logger.Info().Str("recipient", recipientEmail).Str("team", teamName).Msg("invite email sent")
	return nil
}

func inviteMessage(from, to, teamName, inviterName, inviteURL string) []byte {
	subject := fmt.Sprintf("You have been invited to join %s on Tickr", headerSafe(teamName))
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		from, headerSafe(to), subject)

	body := strings.Builder{}
	body.WriteString("Hello,\n\n")
	body.WriteString(fmt.Sprintf("%s has invited you to join the team %s on Tickr.\n", inviterName, teamName))
	body.WriteString("Open the link below to accept the invitation:\n\n")
	body.WriteString(inviteURL + "\n\n")
	body.WriteString("The invitation expires after 7 days. If you did not expect this email, you can ignore it.\n\n")
	body.WriteString("Thanks,\nThe Tickr Team\n")

	return []byte(headers + body.String())
}

// headerSafe strips line breaks so user-supplied values cannot inject headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
