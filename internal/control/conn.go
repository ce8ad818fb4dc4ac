package control

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ziutek/telnet"
)

// ReplyLine is one line of a control-port reply. Data holds the body of a
// "+" data line, already dot-unstuffed.
type ReplyLine struct {
	Code int
	Text string
	Data []string
}

// Reply is a complete reply: zero or more mid lines and the end line.
type Reply struct {
	Lines []ReplyLine
}

// Status returns the code of the end line.
func (r *Reply) Status() int {
	if len(r.Lines) == 0 {
		return 0
	}
	return r.Lines[len(r.Lines)-1].Code
}

// Conn is a control-port session over a single TCP connection.
type Conn struct {
	conn net.Conn
	r    *textproto.Reader
	w    *bufio.Writer
	opts Options

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the control port. The relay speaks a line protocol that
// telnet clients can drive directly, so the telnet connection type is used
// as the transport.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	opts = opts.withDefaults()

	timeout := opts.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("dial %s: %w", opts.Address, context.DeadlineExceeded)
	}

	tc, err := telnet.DialTimeout("tcp", opts.Address, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", opts.Address, err)
	}
	return NewConn(tc, opts), nil
}

// NewConn wraps an established connection.
func NewConn(c net.Conn, opts Options) *Conn {
	return &Conn{
		conn: c,
		r:    textproto.NewReader(bufio.NewReader(c)),
		w:    bufio.NewWriter(c),
		opts: opts.withDefaults(),
	}
}

// Request sends one command line and reads its reply. Non-2xx replies are
// returned as *ReplyError.
func (c *Conn) Request(ctx context.Context, command string) (*Reply, error) {
	if err := c.setDeadline(ctx); err != nil {
		return nil, err
	}

	if _, err := c.w.WriteString(command + "\r\n"); err != nil {
		return nil, fmt.Errorf("send %s: %w", verb(command), err)
	}
	if err := c.w.Flush(); err != nil {
		return nil, fmt.Errorf("send %s: %w", verb(command), err)
	}

	reply, err := c.readReply()
	if err != nil {
		return nil, fmt.Errorf("read %s reply: %w", verb(command), err)
	}
	if code := reply.Status(); code < 200 || code > 299 {
		return reply, &ReplyError{Code: code, Message: reply.Lines[len(reply.Lines)-1].Text}
	}
	return reply, nil
}

func (c *Conn) setDeadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.opts.Timeout)
	}
	return c.conn.SetDeadline(deadline)
}

// readReply reads lines until an end line ("NNN ").
func (c *Conn) readReply() (*Reply, error) {
	reply := &Reply{}
	for {
		raw, err := c.r.ReadLine()
		if err != nil {
			return nil, err
		}
		if len(raw) < 4 {
			return nil, fmt.Errorf("malformed reply line %q", raw)
		}

		code, err := strconv.Atoi(raw[:3])
		if err != nil {
			return nil, fmt.Errorf("malformed reply code in %q", raw)
		}
		line := ReplyLine{Code: code, Text: raw[4:]}

		switch raw[3] {
		case ' ':
			reply.Lines = append(reply.Lines, line)
			return reply, nil
		case '-':
			reply.Lines = append(reply.Lines, line)
		case '+':
			data, err := c.r.ReadDotLines()
			if err != nil {
				return nil, err
			}
			line.Data = data
			reply.Lines = append(reply.Lines, line)
		default:
			return nil, fmt.Errorf("malformed reply separator in %q", raw)
		}
	}
}

// GetInfo issues GETINFO for a single key and returns its value. Multi-line
// values are joined with "\n".
func (c *Conn) GetInfo(ctx context.Context, key string) (string, error) {
	reply, err := c.Request(ctx, "GETINFO "+key)
	if err != nil {
		return "", fmt.Errorf("getinfo %s: %w", key, err)
	}

	prefix := key + "="
	for _, line := range reply.Lines {
		if !strings.HasPrefix(line.Text, prefix) {
			continue
		}
		if line.Data != nil {
			return strings.Join(line.Data, "\n"), nil
		}
		return strings.TrimPrefix(line.Text, prefix), nil
	}
	return "", fmt.Errorf("getinfo %s: key missing from reply", key)
}

// GetVersion returns the leading version number of GETINFO version, e.g.
// "0.4.8.9" from "0.4.8.9 (git-4bd62a2a2c8d7b4d)".
func (c *Conn) GetVersion(ctx context.Context) (string, error) {
	v, err := c.GetInfo(ctx, "version")
	if err != nil {
		return "", err
	}
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return "", fmt.Errorf("getinfo version: empty value")
	}
	return fields[0], nil
}

// GetNetworkStatus looks up the relay's own consensus entry.
func (c *Conn) GetNetworkStatus(ctx context.Context, fingerprint string) (*RouterStatus, error) {
	doc, err := c.GetInfo(ctx, "ns/id/"+fingerprint)
	if err != nil {
		return nil, err
	}
	return ParseRouterStatus(doc)
}

// Close sends QUIT and closes the connection.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		// Best effort; the relay closes its side after replying.
		_ = c.conn.SetDeadline(time.Now().Add(time.Second))
		if _, err := c.w.WriteString("QUIT\r\n"); err == nil {
			if c.w.Flush() == nil {
				_, _ = c.readReply()
			}
		}
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// verb returns the command keyword without arguments, so secrets passed to
// AUTHENTICATE never end up in error messages.
func verb(command string) string {
	if i := strings.IndexByte(command, ' '); i >= 0 {
		return command[:i]
	}
	return command
}
