// Package gossh is a from-scratch SSH-2 client library: wire codec,
// binary packet protocol, key exchange, authentication dispatch, and
// channel multiplexing, built in the style of blitter.com/go/xs.
//
// golang implementation in the style of Russ Magee's blitter.com/go/xs,
// generalized from that project's custom "Herradura" secure-channel
// protocol to interoperable SSH-2.
package gossh

import (
	"context"
	"errors"
	"fmt"

	"github.com/wireforge/gossh/transport"
)

var (
	errPTYRefused  = errors.New("gossh: server refused pty-req")
	errExecRefused = errors.New("gossh: server refused exec/shell request")
)

// ConnectionError wraps a failure of the underlying network transport
// (dial, read, write) as distinct from a protocol-level failure.
type ConnectionError struct{ Err error }

func (e *ConnectionError) Error() string { return "gossh: connection error: " + e.Err.Error() }
func (e *ConnectionError) Unwrap() error  { return e.Err }

// ProtocolError wraps a wire-level contract violation: malformed
// framing, an out-of-sequence message, or a failed integrity check.
type ProtocolError struct{ Err error }

func (e *ProtocolError) Error() string { return "gossh: protocol error: " + e.Err.Error() }
func (e *ProtocolError) Unwrap() error  { return e.Err }

// MacError is the fatal subtype of ProtocolError raised when a packet
// fails MAC/AEAD authentication; per RFC 4253 §6.4, the connection
// must be dropped rather than the bad packet merely discarded.
type MacError struct{ Err error }

func (e *MacError) Error() string { return "gossh: mac error: " + e.Err.Error() }
func (e *MacError) Unwrap() error  { return e.Err }

// KexError wraps a key-exchange failure: no common algorithm, a peer
// public value outside the negotiated group, or a host key the
// configured HostKeyCallback rejected.
type KexError struct{ Err error }

func (e *KexError) Error() string { return "gossh: key exchange error: " + e.Err.Error() }
func (e *KexError) Unwrap() error  { return e.Err }

// AuthenticationError wraps an authentication failure; AllowedMethods
// and PartialSuccess mirror the SSH_MSG_USERAUTH_FAILURE fields, RFC
// 4252 §5.1, so a caller can decide whether to retry with a different
// method.
type AuthenticationError struct {
	AllowedMethods []string
	PartialSuccess bool
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("gossh: authentication failed (methods remaining: %v, partial: %v)", e.AllowedMethods, e.PartialSuccess)
}

// ChannelError wraps a channel-layer contract violation.
type ChannelError struct{ Err error }

func (e *ChannelError) Error() string { return "gossh: channel error: " + e.Err.Error() }
func (e *ChannelError) Unwrap() error  { return e.Err }

// OperationCanceledError is returned by any blocking call whose
// context was canceled before the operation completed.
type OperationCanceledError struct{}

func (e *OperationCanceledError) Error() string { return "gossh: operation canceled" }

// OperationTimeoutError is returned by any blocking call whose
// deadline elapsed before the operation completed.
type OperationTimeoutError struct{}

func (e *OperationTimeoutError) Error() string { return "gossh: operation timed out" }

// DisconnectedByPeerError wraps the reason code and description from
// a peer-initiated SSH_MSG_DISCONNECT, RFC 4253 §11.1.
type DisconnectedByPeerError struct {
	ReasonCode  uint32
	Description string
}

func (e *DisconnectedByPeerError) Error() string {
	return fmt.Sprintf("gossh: disconnected by peer (%d): %s", e.ReasonCode, e.Description)
}

// wrapTransportError classifies an error surfaced from the transport
// package into the public taxonomy above, so callers never need to
// import gossh/transport directly to inspect a failure.
func wrapTransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return &OperationCanceledError{}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &OperationTimeoutError{}
	}
	switch e := err.(type) {
	case *transport.ProtocolError:
		if e.Reason == transport.DisconnectMacError {
			return &MacError{Err: e}
		}
		return &ProtocolError{Err: e}
	case *transport.KexError:
		return &KexError{Err: e}
	case *transport.ConnectionError:
		return &ConnectionError{Err: e}
	case *transport.ChannelError:
		return &ChannelError{Err: e}
	default:
		return err
	}
}
