package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/smnsjas/go-dspace/model"
	"github.com/smnsjas/go-dspace/resource"
	"github.com/smnsjas/go-dspace/transport"
)

// Format selects the encoding of the login request body.
type Format int

const (
	// FormatJSON sends {"email": ..., "password": ...}.
	FormatJSON Format = iota
	// FormatXML sends <user><email>...</email><password>...</password></user>.
	FormatXML
)

// ContentType returns the media type of the format.
func (f Format) ContentType() string {
	if f == FormatXML {
		return transport.ContentTypeXML
	}
	return transport.ContentTypeJSON
}

func (f Format) String() string {
	if f == FormatXML {
		return "xml"
	}
	return "json"
}

// LoginJSON logs in with a JSON-encoded user. See Login.
func (c *Client) LoginJSON(ctx context.Context, user model.User) (string, error) {
	return c.Login(ctx, user, FormatJSON)
}

// LoginXML logs in with an XML-encoded user. See Login.
func (c *Client) LoginXML(ctx context.Context, user model.User) (string, error) {
	return c.Login(ctx, user, FormatXML)
}

// Login posts user to the login endpoint and stores the returned token.
//
// A non-empty response body is the session token: it is stored, sent with
// every later request and returned. An empty body means the credentials were
// rejected: the token is cleared and "" is returned with a nil error.
// Transport failures and error statuses are returned unchanged and leave the
// token as it was.
func (c *Client) Login(ctx context.Context, user model.User, format Format) (string, error) {
	details := map[string]any{"email": user.Email, "format": format.String()}
	c.security.Authentication(ctx, SubtypeAuthAttempt, OutcomeAttempt, details)

	body, err := resource.NewRoot(c.binding()).Login(ctx, user, format.ContentType())
	if err != nil {
		c.security.Authentication(ctx, SubtypeAuthFailure, OutcomeFailure, map[string]any{
			"email": user.Email,
			"error": err.Error(),
		})
		return "", err
	}

	token := strings.TrimSpace(body)
	c.tokens.Set(token)
	if token == "" {
		c.security.Authentication(ctx, SubtypeAuthRejected, OutcomeDenied, details)
		return "", nil
	}

	c.security.Authentication(ctx, SubtypeAuthSuccess, OutcomeSuccess, details)
	return token, nil
}

// Logout invalidates the session on the server. The local token is cleared
// on every path, including errors; the error is still returned.
func (c *Client) Logout(ctx context.Context) (err error) {
	defer func() {
		r := recover()
		c.tokens.Clear()
		outcome := OutcomeSuccess
		var details map[string]any
		switch {
		case r != nil:
			outcome = OutcomeFailure
			details = map[string]any{"panic": fmt.Sprint(r)}
		case err != nil:
			outcome = OutcomeFailure
			details = map[string]any{"error": err.Error()}
		}
		c.security.Session(ctx, SubtypeSessionLogout, outcome, details)
		if r != nil {
			panic(r)
		}
	}()

	return resource.NewRoot(c.binding()).Logout(ctx)
}

// Token returns the current session token, or "" when unauthenticated.
func (c *Client) Token() string {
	return c.tokens.Token()
}

// IsAuthenticated reports whether a session token is held.
func (c *Client) IsAuthenticated() bool {
	return c.tokens.Present()
}

// SetToken installs a token obtained earlier, e.g. one saved by a previous
// process. An empty token logs the client out locally without calling the server.
func (c *Client) SetToken(token string) {
	c.tokens.Set(strings.TrimSpace(token))
	c.security.Authentication(context.Background(), SubtypeTokenRestored, OutcomeSuccess, nil)
}
