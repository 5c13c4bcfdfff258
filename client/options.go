package client

import "log/slog"

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for security events and, when Init builds
// the default transport, for debug request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUser sets the identity recorded in security events.
func WithUser(user string) Option {
	return func(c *Client) {
		c.user = user
	}
}
