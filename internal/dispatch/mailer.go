// Package dispatch routes attendance reports to their recipients.
//
// A run executes six conditions in a fixed order, each pairing a recipient
// configuration lookup with a record-subset policy. Conditions are isolated:
// a failure in one records a failed outcome and never blocks the rest.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/medicampus/attendmail/internal/config"
	"gopkg.in/gomail.v2"
)

// Attachment is a file attached to an outgoing report mail.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is one outgoing report mail.
type Message struct {
	From        string
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer is the transport the orchestrator sends through. Implementations
// return a message identifier on success.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SMTPMailer sends mail over SMTP. It is constructed once at process start
// and injected into the orchestrator; the dialer connects per send, which
// matches gomail's intended use for low-volume batch mail.
type SMTPMailer struct {
	dialer *gomail.Dialer
}

// NewSMTPMailer creates a mailer from SMTP configuration.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("no recipients")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", msg.From)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)
	for _, att := range msg.Attachments {
		content := att.Content
		gm.Attach(att.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	// gomail carries no ctx; run the send in a goroutine so cancellation
	// at least unblocks the caller.
	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(gm) }()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("smtp send to %s: %w", strings.Join(msg.To, ","), err)
		}
	}
	return uuid.NewString(), nil
}
