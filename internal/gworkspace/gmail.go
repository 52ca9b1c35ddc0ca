// SPDX-License-Identifier: Apache-2.0

package gworkspace

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"google.golang.org/api/gmail/v1"
)

// Message is an outbound email. HTML is optional; when present the message
// is sent as multipart/alternative with the plain-text part first.
type Message struct {
	To      string
	From    string
	Subject string
	Text    string
	HTML    string
}

// Encode renders the message as an RFC 2822 byte stream.
func (m Message) Encode() ([]byte, error) {
	var b strings.Builder

	b.WriteString("To: " + m.To + "\r\n")
	if m.From != "" {
		b.WriteString("From: " + m.From + "\r\n")
	}
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if m.HTML == "" {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		b.WriteString("\r\n")
		b.WriteString(m.Text)
		return []byte(b.String()), nil
	}

	var body strings.Builder
	mw := multipart.NewWriter(&body)

	b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary()))

	textPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=\"UTF-8\""}})
	if err != nil {
		return nil, fmt.Errorf("failed to build text part: %w", err)
	}
	if _, err := textPart.Write([]byte(m.Text)); err != nil {
		return nil, err
	}

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=\"UTF-8\""}})
	if err != nil {
		return nil, fmt.Errorf("failed to build html part: %w", err)
	}
	if _, err := htmlPart.Write([]byte(m.HTML)); err != nil {
		return nil, err
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}

	b.WriteString(body.String())
	return []byte(b.String()), nil
}

// Send delivers the message through the authenticated user's Gmail account.
// Returns the Gmail message ID.
func (w *Workspace) Send(ctx context.Context, m Message) (string, error) {
	service, err := w.gmailService(ctx)
	if err != nil {
		return "", err
	}

	encoded, err := m.Encode()
	if err != nil {
		return "", err
	}

	result, err := service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(encoded),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to send mail to %s: %w", m.To, err)
	}

	return result.Id, nil
}
