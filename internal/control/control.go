// Package control is a minimal client for the Tor control protocol.
//
// It speaks just enough of the protocol for status polling: protocol
// discovery, authentication, GETINFO, and router status lookups. Sessions
// are short-lived; callers dial, issue a handful of queries and close.
package control

import (
	"context"
	"fmt"
	"time"
)

// DefaultAddress is Tor's conventional ControlPort on loopback.
const DefaultAddress = "127.0.0.1:9051"

// Controller is one authenticated control-port session.
// Both *Conn and the fake in control/testing satisfy it.
type Controller interface {
	// Authenticate picks an authentication method the relay offers and
	// completes it. Queries before a successful Authenticate fail with 514.
	Authenticate(ctx context.Context) error

	// GetInfo returns the value of a single GETINFO key.
	GetInfo(ctx context.Context, key string) (string, error)

	// GetVersion returns the relay's version number without the git suffix.
	GetVersion(ctx context.Context) (string, error)

	// GetNetworkStatus returns the consensus entry for a relay fingerprint.
	GetNetworkStatus(ctx context.Context, fingerprint string) (*RouterStatus, error)

	// Close ends the session. It is safe to call more than once.
	Close() error
}

// DialFunc opens a new authenticated session.
type DialFunc func(ctx context.Context) (Controller, error)

// Options configures how sessions are opened and authenticated.
type Options struct {
	// Address is the ControlPort host:port.
	Address string

	// Password is the plaintext for HashedControlPassword authentication.
	Password string

	// CookieFile overrides the cookie path the relay advertises.
	CookieFile string

	// Timeout bounds dialing and each request when the context has no deadline.
	Timeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Address == "" {
		o.Address = DefaultAddress
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	return o
}

// ReplyError is a non-2xx reply from the relay.
type ReplyError struct {
	Code    int
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("control port replied %d %s", e.Code, e.Message)
}

// Dialer returns a DialFunc that opens and authenticates a session per call.
func Dialer(opts Options) DialFunc {
	return func(ctx context.Context) (Controller, error) {
		conn, err := Dial(ctx, opts)
		if err != nil {
			return nil, err
		}
		if err := conn.Authenticate(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	}
}
