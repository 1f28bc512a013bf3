package mail

import (
	"bytes"
	"errors"
	"fmt"
	"net/smtp"
)

// ErrAuthNotSupported is returned when credentials are configured but the
// server does not offer AUTH. Sending unauthenticated instead would hide a
// misconfigured or downgraded server.
var ErrAuthNotSupported = errors.New("smtp: server does not support AUTH")

// loginAuth implements the LOGIN mechanism for servers that do not offer PLAIN.
type loginAuth struct {
	username string
	password string
	host     string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS && !isLocalhost(server.Name) {
		return "", nil, errors.New("unencrypted connection")
	}
	if server.Name != a.host {
		return "", nil, errors.New("wrong host name")
	}
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch {
	case bytes.EqualFold(fromServer, []byte("Username:")):
		return []byte(a.username), nil
	case bytes.EqualFold(fromServer, []byte("Password:")):
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected server challenge: %q", fromServer)
	}
}

func isLocalhost(name string) bool {
	return name == "localhost" || name == "127.0.0.1" || name == "::1"
}
