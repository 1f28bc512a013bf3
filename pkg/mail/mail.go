package mail

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/telekom/paper-digest/pkg/metrics"
)

const (
	DefaultHost = "smtp.gmail.com"
	DefaultPort = 587

	// DefaultDialTimeout bounds TCP connect and, on the SMTPS port, the TLS handshake.
	DefaultDialTimeout = 10 * time.Second
	// DefaultSessionTimeout bounds everything after connect: greeting, EHLO,
	// STARTTLS, AUTH, the message transfer and QUIT.
	DefaultSessionTimeout = 60 * time.Second

	// implicitTLSPort is the SMTPS port; every other port starts in plaintext
	// and upgrades with STARTTLS when the server offers it.
	implicitTLSPort = 465
)

// SMTPConfig describes the submission server and the account used on it.
type SMTPConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	From               string
	InsecureSkipVerify bool

	DialTimeout    time.Duration
	SessionTimeout time.Duration
}

// Message is a single digest email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Result is the outcome of one delivery attempt. Err is kept for diagnostics
// only; callers decide on OK.
type Result struct {
	OK   bool
	Kind ErrorKind
	Err  error
}

type Sender interface {
	Send(msg Message) Result
	GetHost() string
	GetPort() int
}

type sender struct {
	cfg         SMTPConfig
	implicitTLS bool
	tlsConfig   *tls.Config
	log         *zap.SugaredLogger
}

func NewSender(cfg SMTPConfig, log *zap.SugaredLogger) Sender {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}

	tlsConfig := &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	if cfg.InsecureSkipVerify {
		log.Warnw("InsecureSkipVerify is enabled for SMTP TLS connections", "host", cfg.Host)
		tlsConfig.InsecureSkipVerify = true //nolint:gosec // opt-in via configuration
	}

	s := &sender{
		cfg:         cfg,
		implicitTLS: cfg.Port == implicitTLSPort,
		tlsConfig:   tlsConfig,
		log:         log.Named("mail"),
	}
	s.log.Debugw("Initialized mail sender", "host", cfg.Host, "port", cfg.Port, "user", cfg.Username,
		"implicitTLS", s.implicitTLS, "sessionTimeout", cfg.SessionTimeout)
	return s
}

// Send delivers msg in its own SMTP session. The session is closed on every
// path once it has been opened, and no step of it outlives SessionTimeout.
func (s *sender) Send(msg Message) Result {
	log := s.log.With("to", msg.To, "host", s.GetHost(), "port", s.GetPort())
	log.Debugw("Opening SMTP session", "subject", msg.Subject)

	c, err := s.open()
	if err != nil {
		return s.fail(log, err)
	}

	if err := s.transfer(c, msg); err != nil {
		if qerr := c.Quit(); qerr != nil {
			log.Debugw("Closing SMTP session after failure", "error", qerr)
			_ = c.Close()
		}
		return s.fail(log, err)
	}

	if err := c.Quit(); err != nil {
		// QUIT after an accepted DATA is not a delivery failure.
		log.Warnw("Closing SMTP session failed", "error", err)
		_ = c.Close()
	}

	log.Infow("Mail sent successfully")
	metrics.MailSendSuccess.WithLabelValues(s.GetHost()).Inc()
	return Result{OK: true, Kind: KindNone}
}

// open connects, upgrades to TLS when possible and authenticates. A configured
// username makes AUTH mandatory.
func (s *sender) open() (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.cfg.DialTimeout}

	var (
		conn net.Conn
		err  error
	)
	if s.implicitTLS {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, s.tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return nil, err
	}
	if err := conn.SetDeadline(time.Now().Add(s.cfg.SessionTimeout)); err != nil {
		_ = conn.Close()
		return nil, err
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if !s.implicitTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(s.tlsConfig); err != nil {
				_ = c.Close()
				return nil, err
			}
		}
	}

	if s.cfg.Username != "" {
		auth, err := s.auth(c)
		if err == nil {
			err = c.Auth(auth)
		}
		if err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

// auth picks the mechanism the same way gomail does: CRAM-MD5 when offered,
// LOGIN only when PLAIN is not, PLAIN otherwise.
func (s *sender) auth(c *smtp.Client) (smtp.Auth, error) {
	ok, mechs := c.Extension("AUTH")
	if !ok {
		return nil, ErrAuthNotSupported
	}
	switch {
	case strings.Contains(mechs, "CRAM-MD5"):
		return smtp.CRAMMD5Auth(s.cfg.Username, s.cfg.Password), nil
	case strings.Contains(mechs, "LOGIN") && !strings.Contains(mechs, "PLAIN"):
		return &loginAuth{username: s.cfg.Username, password: s.cfg.Password, host: s.cfg.Host}, nil
	default:
		return smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host), nil
	}
}

func (s *sender) transfer(c *smtp.Client, msg Message) error {
	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := s.newMessage(msg).WriteTo(w); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (s *sender) fail(log *zap.SugaredLogger, err error) Result {
	kind := Classify(err)
	log.Errorw(kind.Diagnostic(), "kind", kind.String(), "error", err)
	metrics.MailSendFailure.WithLabelValues(s.GetHost(), kind.String()).Inc()
	return Result{OK: false, Kind: kind, Err: err}
}

func (s *sender) newMessage(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID(s.cfg.From))
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)
	return m
}

func (s *sender) GetHost() string {
	return s.cfg.Host
}

func (s *sender) GetPort() int {
	return s.cfg.Port
}

func messageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = strings.Trim(from[at+1:], "<> ")
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
