package auth

import (
	"errors"
	"log/slog"
	"net/http"
)

// Authenticator adds HTTP-level authentication below the DSpace session.
type Authenticator interface {
	Transport(base http.RoundTripper) http.RoundTripper
	Name() string
}

// Errors returned by Credentials.Validate.
var (
	ErrNoUsername = errors.New("auth: username is required")
	ErrNoPassword = errors.New("auth: password is required")
)

// Credentials are gateway credentials for a repository published behind a
// web server that demands Basic or NTLM authentication. They are unrelated
// to the e-mail and password sent to /login.
type Credentials struct {
	Username string
	Password string
	Domain   string // NTLM only
}

// Validate reports a missing user name or password.
func (c *Credentials) Validate() error {
	return errors.Join(
		requireField(c.Username, ErrNoUsername),
		requireField(c.Password, ErrNoPassword),
	)
}

func requireField(v string, err error) error {
	if v == "" {
		return err
	}
	return nil
}

// LogValue implements slog.LogValuer; the password is masked.
func (c Credentials) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("username", c.Username)}
	if c.Domain != "" {
		attrs = append(attrs, slog.String("domain", c.Domain))
	}
	return slog.GroupValue(append(attrs, slog.String("password", "********"))...)
}
