package notification

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/viant/scy"
	"github.com/viant/scy/cred"
)

// SMTPConfig configures the SMTP sender.  Credentials are read from a scy
// secret holding a basic credential (username/password).
type SMTPConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	From      string `yaml:"from" json:"from"`
	SecretURL string `yaml:"secretURL" json:"secretURL"`
	SecretKey string `yaml:"secretKey" json:"secretKey"`
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	config   SMTPConfig
	auth     smtp.Auth
	sendMail sendMailFunc
}

// NewSMTPSender resolves credentials and returns a sender.
func NewSMTPSender(ctx context.Context, config SMTPConfig) (*SMTPSender, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("smtp host was empty")
	}
	if config.From == "" {
		return nil, fmt.Errorf("smtp from address was empty")
	}
	if config.Port == 0 {
		config.Port = 587
	}
	sender := &SMTPSender{config: config, sendMail: smtp.SendMail}
	if config.SecretURL != "" {
		basic, err := loadBasicCredential(ctx, config.SecretURL, config.SecretKey)
		if err != nil {
			return nil, err
		}
		sender.auth = smtp.PlainAuth("", basic.Username, basic.Password, config.Host)
	}
	return sender, nil
}

func loadBasicCredential(ctx context.Context, URL, key string) (*cred.Basic, error) {
	target, err := cred.TargetType("basic")
	if err != nil {
		return nil, err
	}
	secret, err := scy.New().Load(ctx, scy.NewResource(target, URL, key))
	if err != nil {
		return nil, fmt.Errorf("failed to load smtp secret from %s: %w", URL, err)
	}
	basic, ok := secret.Target.(*cred.Basic)
	if !ok {
		return nil, fmt.Errorf("unexpected smtp secret type %T", secret.Target)
	}
	return basic, nil
}

func (s *SMTPSender) Deliver(_ context.Context, delivery *Delivery) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	msg := composeMessage(s.config.From, delivery)
	if err := s.sendMail(addr, s.auth, s.config.From, []string{delivery.To}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	return nil
}

func composeMessage(from string, delivery *Delivery) []byte {
	sentAt := delivery.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", delivery.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", delivery.Subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", sentAt.Format(time.RFC1123Z))
	if delivery.ID != "" {
		fmt.Fprintf(&buf, "Message-ID: <%s@moderation>\r\n", delivery.ID)
	}
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buf.Write(bytes.ReplaceAll([]byte(delivery.Body), []byte("\n"), []byte("\r\n")))
	return buf.Bytes()
}
