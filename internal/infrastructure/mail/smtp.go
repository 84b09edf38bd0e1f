package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ballotcore/election-system/internal/core/ports"
)

// Encryption selects how the SMTP connection is secured.
type Encryption string

const (
	EncNone     Encryption = "none"
	EncStartTLS Encryption = "starttls"
	EncTLS      Encryption = "tls"
)

// sendTimeout bounds one message, dial to QUIT, when ctx has no earlier
// deadline.
const sendTimeout = 30 * time.Second

// ErrStartTLSUnavailable is returned when starttls is configured and the relay
// does not offer it. The message is not sent in plaintext.
var ErrStartTLSUnavailable = errors.New("email: relay does not advertise STARTTLS")

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	Encryption Encryption
}

// SMTPMailer sends plain-text mail through a relay. It opens one connection
// per message.
type SMTPMailer struct {
	cfg     SMTPConfig
	now     func() time.Time
	timeout time.Duration
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	switch Encryption(strings.ToLower(string(cfg.Encryption))) {
	case EncNone, EncTLS:
		cfg.Encryption = Encryption(strings.ToLower(string(cfg.Encryption)))
	default:
		cfg.Encryption = EncStartTLS
	}
	return &SMTPMailer{cfg: cfg, now: time.Now, timeout: sendTimeout}
}

func (m *SMTPMailer) Send(ctx context.Context, msg ports.Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("email: missing recipient")
	}
	body, err := buildMessage(m.cfg.From, msg, m.now())
	if err != nil {
		return err
	}

	deadline := time.Now().Add(m.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	d := net.Dialer{Deadline: deadline}

	address := net.JoinHostPort(m.cfg.Host, fmt.Sprint(m.cfg.Port))
	var conn net.Conn
	if m.cfg.Encryption == EncTLS {
		conn, err = tls.DialWithDialer(&d, "tcp", address, &tls.Config{ServerName: m.cfg.Host})
	} else {
		conn, err = d.DialContext(ctx, "tcp", address)
	}
	if err != nil {
		return fmt.Errorf("email: dial: %w", err)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return fmt.Errorf("email: set deadline: %w", err)
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("email: new client: %w", err)
	}
	defer c.Close()

	if m.cfg.Encryption == EncStartTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return ErrStartTLSUnavailable
		}
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("email: starttls: %w", err)
		}
	}
	if m.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return fmt.Errorf("email: auth: %w", err)
		}
	}
	if err := c.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("email: MAIL FROM: %w", err)
	}
	if err := c.Rcpt(strings.TrimSpace(msg.To)); err != nil {
		return fmt.Errorf("email: RCPT TO %s: %w", msg.To, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("email: DATA: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("email: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("email: close data: %w", err)
	}
	return c.Quit()
}

// buildMessage renders a UTF-8 plain-text message with quoted-printable body.
func buildMessage(from string, msg ports.Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	headers := [][2]string{
		{"From", from},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"Message-ID", "<" + uuid.NewString() + "@" + domainOf(from) + ">"},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
		{"Content-Transfer-Encoding", "quoted-printable"},
	}
	for _, h := range headers {
		buf.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(strings.ReplaceAll(msg.Body, "\n", "\r\n"))); err != nil {
		return nil, fmt.Errorf("email: encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("email: encode body: %w", err)
	}
	return buf.Bytes(), nil
}

func domainOf(addr string) string {
	addr = strings.TrimSuffix(strings.TrimSpace(addr), ">")
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
