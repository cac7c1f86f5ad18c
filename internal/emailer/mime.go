package emailer

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/vinciere/coming-soon/internal/models"
)

var ErrInvalidHeader = errors.New("invalid message header")

type header struct {
	key, value string
}

// buildMIME renders msg as a multipart/alternative RFC 5322 message with
// quoted-printable text and HTML parts.
func buildMIME(msg models.Message, from string, now time.Time) ([]byte, error) {
	fromAddr, err := parseAddress("From", from)
	if err != nil {
		return nil, err
	}
	toAddr, err := parseAddress("To", msg.To)
	if err != nil {
		return nil, err
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return nil, fmt.Errorf("%w: Subject contains a line break", ErrInvalidHeader)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	headers := []header{
		{"From", fromAddr.String()},
		{"To", toAddr.String()},
	}
	if msg.ReplyTo != "" {
		replyTo, err := parseAddress("Reply-To", msg.ReplyTo)
		if err != nil {
			return nil, err
		}
		headers = append(headers, header{"Reply-To", replyTo.String()})
	}
	headers = append(headers,
		header{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		header{"Date", now.Format(time.RFC1123Z)},
	)
	if msg.ID != "" {
		headers = append(headers, header{"Message-ID", messageID(msg.ID, fromAddr.Address)})
	}
	headers = append(headers,
		header{"MIME-Version", "1.0"},
		header{"Content-Type", mime.FormatMediaType("multipart/alternative", map[string]string{"boundary": mw.Boundary()})},
	)

	if err := writePart(mw, "text/plain; charset=UTF-8", msg.Text); err != nil {
		return nil, err
	}
	if err := writePart(mw, "text/html; charset=UTF-8", msg.HTML); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	for _, h := range headers {
		out.WriteString(h.key + ": " + h.value + "\r\n")
	}
	out.WriteString("\r\n")
	out.Write(body.Bytes())

	return out.Bytes(), nil
}

func writePart(mw *multipart.Writer, contentType, content string) error {
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}

	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(content)); err != nil {
		return err
	}
	return qp.Close()
}

func parseAddress(field, value string) (*mail.Address, error) {
	if strings.ContainsAny(value, "\r\n") {
		return nil, fmt.Errorf("%w: %s contains a line break", ErrInvalidHeader, field)
	}
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidHeader, field, err)
	}
	return addr, nil
}

func messageID(id, from string) string {
	domain := "localhost"
	if _, d, ok := strings.Cut(from, "@"); ok && d != "" {
		domain = d
	}
	return "<" + id + "@" + domain + ">"
}
