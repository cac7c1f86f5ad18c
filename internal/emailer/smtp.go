package emailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/rs/zerolog"

	"github.com/vinciere/coming-soon/internal/config"
	"github.com/vinciere/coming-soon/internal/models"
	"github.com/vinciere/coming-soon/pkg/logger"
)

// SMTPService submits messages to an authenticated SMTP server with
// structured logging.
type SMTPService struct {
	user        string
	host        string
	port        string
	password    string
	from        string
	implicitTLS bool
	tlsConfig   *tls.Config
	logger      zerolog.Logger
	now         func() time.Time
}

func NewSMTPService(cfg *config.Config, l zerolog.Logger) *SMTPService {
	return &SMTPService{
		user:        cfg.Email.User,
		host:        cfg.Email.Host,
		port:        cfg.Email.Port,
		password:    cfg.Email.Password,
		from:        cfg.Sender(),
		implicitTLS: cfg.Email.ImplicitTLS,
		tlsConfig:   &tls.Config{ServerName: cfg.Email.Host, MinVersion: tls.VersionTLS12},
		logger:      l.With().Str("component", "SMTPService").Logger(),
		now:         time.Now,
	}
}

// Send renders msg and submits it in one SMTP session. The session is bound to
// ctx: its deadline becomes the connection deadline and cancellation aborts
// the exchange.
func (e *SMTPService) Send(ctx context.Context, msg models.Message) error {
	start := time.Now()
	from := msg.From
	if from == "" {
		from = e.from
	}

	e.logger.Debug().
		Str("message_id", msg.ID).
		Str("to", logger.RedactEmail(msg.To)).
		Str("subject", msg.Subject).
		Msg("sending email")

	raw, err := buildMIME(msg, from, e.now())
	if err == nil {
		err = e.deliver(ctx, from, msg.To, raw)
	}
	duration := time.Since(start)

	if err != nil {
		e.logger.Error().
			Err(err).
			Str("message_id", msg.ID).
			Str("to", logger.RedactEmail(msg.To)).
			Dur("duration", duration).
			Msg("email send failed")
		return err
	}

	e.logger.Info().
		Str("message_id", msg.ID).
		Str("to", logger.RedactEmail(msg.To)).
		Dur("duration", duration).
		Msg("email sent successfully")
	return nil
}

func (e *SMTPService) deliver(ctx context.Context, from, to string, raw []byte) error {
	conn, err := e.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	c, err := smtp.NewClient(conn, e.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer c.Close()

	if !e.implicitTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(e.tlsConfig); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if e.user != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", e.user, e.password, e.host)); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := c.Mail(envelopeAddress(from)); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(envelopeAddress(to)); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp end data: %w", err)
	}

	// The server has accepted the message once DATA is acknowledged.
	if err := c.Quit(); err != nil {
		e.logger.Warn().Err(err).Msg("smtp quit failed after message was accepted")
	}
	return nil
}

func (e *SMTPService) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(e.host, e.port)
	if e.implicitTLS {
		d := &tls.Dialer{Config: e.tlsConfig}
		return d.DialContext(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

// envelopeAddress strips a display name; buildMIME has already rejected
// unparsable addresses.
func envelopeAddress(addr string) string {
	if a, err := parseAddress("envelope", addr); err == nil {
		return a.Address
	}
	return addr
}
