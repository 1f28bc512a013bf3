package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/textproto"
	"os"
	"strings"
	"syscall"
)

// ErrorKind classifies a failed delivery.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindAuth
	KindConnect
	KindDisconnect
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuth:
		return "auth"
	case KindConnect:
		return "connect"
	case KindDisconnect:
		return "disconnect"
	default:
		return "other"
	}
}

// Diagnostic is the log message emitted for a failure of this kind.
func (k ErrorKind) Diagnostic() string {
	switch k {
	case KindNone:
		return "Mail sent"
	case KindAuth:
		return "SMTP authentication failed; check SMTP_USER and SMTP_PASSWORD"
	case KindConnect:
		return "Could not connect to SMTP server; check SMTP_SERVER and SMTP_PORT"
	case KindDisconnect:
		return "SMTP server closed the connection unexpectedly"
	default:
		return "Failed to send mail"
	}
}

// SMTP reply codes that mean the credentials or auth mechanism were rejected.
var authReplyCodes = map[int]struct{}{
	530: {}, // authentication required
	534: {}, // mechanism too weak
	535: {}, // credentials invalid
	538: {}, // encryption required for mechanism
}

// Classify maps a transport error onto an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	if errors.Is(err, ErrAuthNotSupported) {
		return KindAuth
	}

	var replyErr *textproto.Error
	if errors.As(err, &replyErr) {
		if _, ok := authReplyCodes[replyErr.Code]; ok {
			return KindAuth
		}
		if replyErr.Code == 421 {
			return KindDisconnect
		}
		return KindOther
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindConnect
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnect
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) || errors.Is(err, context.DeadlineExceeded) {
		return KindConnect
	}

	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return KindDisconnect
	}

	// net/smtp refuses PLAIN auth over cleartext with a plain error value.
	msg := err.Error()
	if strings.Contains(msg, "unencrypted connection") || strings.Contains(msg, "wrong host name") {
		return KindAuth
	}

	return KindOther
}
