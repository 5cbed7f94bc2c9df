package gossh

// Client is the package's public entry point, generalizing
// blitter.com/go/xs's xsnet.Dial()+xsnet.Conn pair into a single
// handle that drives version exchange, KEX, authentication, and
// channel opens, per spec.md §6.

import (
	"context"
	"net"
	"time"

	"github.com/wireforge/gossh/transport"
)

// Client represents one authenticated SSH connection.
type Client struct {
	session *Session
	conn    net.Conn
}

// Dial connects to addr over TCP and completes the handshake and
// authentication described by config. network is typically "tcp"; use
// DialKCP (dial.go) for the teacher's alternate reliable-UDP transport.
func Dial(ctx context.Context, network, addr string, config *ClientConfig) (*Client, error) {
	d := net.Dialer{Timeout: config.Timeout}
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	return NewClientConn(ctx, conn, config)
}

// NewClientConn wraps an already-established net.Conn (TCP, KCP, a
// test net.Pipe, ...) and drives handshake + authentication over it.
func NewClientConn(ctx context.Context, conn net.Conn, config *ClientConfig) (*Client, error) {
	if config.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(config.Timeout))
	}
	tcfg := config.toTransportConfig()
	sess, err := transport.NewSession(ctx, conn, tcfg)
	if err != nil {
		_ = conn.Close()
		return nil, wrapTransportError(err)
	}
	if config.Timeout > 0 {
		_ = conn.SetDeadline(time.Time{})
	}

	s := &Session{ts: sess}
	c := &Client{session: s, conn: conn}

	if err := authenticate(ctx, s, config); err != nil {
		_ = sess.Close()
		return nil, err
	}
	return c, nil
}

// Close tears down the connection and every channel opened on it.
func (c *Client) Close() error {
	return wrapTransportError(c.session.ts.Close())
}

// OpenChannel opens a raw multiplexed channel of the given type, for
// callers implementing a channel type this package has no
// convenience wrapper for (e.g. an SFTP subsystem, explicitly out of
// this package's scope per spec.md §1). ctx governs only the wait for
// the peer's OPEN_CONFIRMATION/OPEN_FAILURE; cancelling it after the
// channel is open has no effect on the channel itself.
func (c *Client) OpenChannel(ctx context.Context, channelType string, extraData []byte) (*Channel, error) {
	ch, err := c.session.ts.OpenChannel(ctx, channelType, extraData)
	if err != nil {
		return nil, wrapTransportError(err)
	}
	return &Channel{tc: ch}, nil
}

// SendMessage/TrySendMessage expose the shared send path so a
// higher-level protocol built atop a single channel (SFTP, out of
// this package's scope) can still submit global/channel requests
// without reaching into transport internals, per SPEC_FULL.md §6.
func (c *Client) SendMessage(payload []byte) error {
	return wrapTransportError(c.session.ts.SendMessage(payload))
}

func (c *Client) TrySendMessage(payload []byte) error {
	return wrapTransportError(c.session.ts.TrySendRaw(payload))
}

// Session exposes the underlying transport session for callers that
// need SendGlobalRequest (port forwarding, forward.go) or SessionID
// (out-of-band channel binding).
func (c *Client) Session() *Session { return c.session }

// Session is a thin, gossh-facing wrapper around *transport.Session so
// this package's public API never leaks transport's internal types.
type Session struct {
	ts *transport.Session
}

func (s *Session) SendGlobalRequest(name string, wantReply bool, data []byte) ([]byte, error) {
	reply, err := s.ts.SendGlobalRequest(name, wantReply, data)
	return reply, wrapTransportError(err)
}

func (s *Session) SessionID() []byte { return s.ts.SessionID() }

// Channel wraps *transport.Channel with error translation and the
// convenience exec/shell/pty helpers in session_request.go.
type Channel struct {
	tc *transport.Channel
}

func (c *Channel) Read(p []byte) (int, error)  { return c.tc.Read(p) }
func (c *Channel) Write(p []byte) (int, error) { return c.tc.Write(p) }
func (c *Channel) Close() error                { return wrapTransportError(c.tc.Close()) }
func (c *Channel) SendEOF() error              { return wrapTransportError(c.tc.SendEOF()) }

// WriteContext is Write with a context governing the flow-control wait,
// for callers that need to abandon a write blocked on a stalled peer
// (e.g. session_request.go's exec pipe, which already carries a ctx).
func (c *Channel) WriteContext(ctx context.Context, p []byte) (int, error) {
	n, err := c.tc.WriteContext(ctx, p)
	return n, wrapTransportError(err)
}

func (c *Channel) SendRequest(reqType string, wantReply bool, payload []byte) (bool, error) {
	ok, err := c.tc.SendRequest(reqType, wantReply, payload)
	return ok, wrapTransportError(err)
}

func (c *Channel) ExitStatus() (uint32, bool) { return c.tc.ExitStatus() }
