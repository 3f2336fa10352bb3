package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
)

// Mailer sends a single transactional email, optionally with an attachment.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string, attachment *Attachment) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer constructs a mailer for host:port with the given sender.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
	}
}

// Send builds a MIME message and hands it to the relay.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string, attachment *Attachment) error {
	msg, err := buildMIMEMessage(m.from, to, subject, body, attachment)
	if err != nil {
		return fmt.Errorf("mailer: build message: %w", err)
	}
	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}

func buildMIMEMessage(from, to, subject, body string, attachment *Attachment) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	if attachment == nil {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(body)
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", writer.Boundary())

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	textPart, err := writer.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(body)); err != nil {
		return nil, err
	}

	attHeader := textproto.MIMEHeader{}
	attHeader.Set("Content-Type", attachment.MIMEType)
	attHeader.Set("Content-Transfer-Encoding", "base64")
	attHeader.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, attachment.Filename))
	attPart, err := writer.CreatePart(attHeader)
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(attachment.Data)
	if _, err := attPart.Write([]byte(encoded)); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
