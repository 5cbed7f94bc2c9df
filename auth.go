package gossh

// Authentication method dispatch, RFC 4252. The AuthMethod interface
// and the per-method try() functions generalize blitter.com/go/xs's
// AuthCtx dependency-injection pattern (auth.go: VerifyPass,
// AuthUserByPasswd, AuthUserByToken all take a ctx carrying swappable
// reader/userlookup funcs) to the client side of real SSH
// authentication: each method is a self-contained value a caller
// supplies via ClientConfig.Auth, tried in order.

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/wireforge/gossh/transport"
)

// AuthMethod is one entry in ClientConfig.Auth.
type AuthMethod interface {
	name() string
	// authenticate drives exactly one method's RFC 4252 request/reply
	// sequence to completion, returning the final reply (success or a
	// definitive failure for this method).
	authenticate(ctx context.Context, s *Session, user string) (*transport.AuthReply, error)
}

// Password returns an AuthMethod that authenticates with a fixed
// password (or one obtained by calling fn, for prompting lazily
// rather than capturing a plaintext secret up front).
func Password(fn func() (string, error)) AuthMethod { return passwordMethod{fn} }

type passwordMethod struct{ fn func() (string, error) }

func (passwordMethod) name() string { return "password" }

func (m passwordMethod) authenticate(_ context.Context, s *Session, user string) (*transport.AuthReply, error) {
	pw, err := m.fn()
	if err != nil {
		return nil, err
	}
	req := transport.BuildUserAuthRequest(user, "ssh-connection", "password", transport.BuildPasswordAuthData(pw))
	return s.ts.SendUserAuthRequest(req)
}

// Signer signs data with a private key, analogous to golang.org/x/crypto/ssh's
// Signer but kept minimal: this package only implements ed25519, the
// modern default, directly; RSA/ECDSA signers can be adapted to this
// interface without touching auth.go.
type Signer interface {
	PublicKeyBlob() []byte // RFC 4253 §6.6 encoded public key
	Algorithm() string
	Sign(data []byte) ([]byte, error)
}

// Ed25519Signer adapts a crypto/ed25519 key pair to Signer.
type Ed25519Signer struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

func (s Ed25519Signer) Algorithm() string { return "ssh-ed25519" }

func (s Ed25519Signer) PublicKeyBlob() []byte {
	buf := sshString(nil, []byte("ssh-ed25519"))
	return sshString(buf, s.Public)
}

func (s Ed25519Signer) Sign(data []byte) ([]byte, error) {
	sig := ed25519.Sign(s.Private, data)
	buf := sshString(nil, []byte("ssh-ed25519"))
	return sshString(buf, sig), nil
}

func sshString(buf, s []byte) []byte {
	n := len(s)
	buf = append(buf, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	return append(buf, s...)
}

// PublicKey returns an AuthMethod that probes then signs with signer,
// the two-phase dance RFC 4252 §7 specifies: a PK_OK acknowledgement
// must arrive before a signature is sent, so a server can reject an
// unacceptable key without the client paying the signing cost.
func PublicKey(signer Signer) AuthMethod { return publicKeyMethod{signer} }

type publicKeyMethod struct{ signer Signer }

func (publicKeyMethod) name() string { return "publickey" }

func (m publicKeyMethod) authenticate(_ context.Context, s *Session, user string) (*transport.AuthReply, error) {
	blob := m.signer.PublicKeyBlob()
	alg := m.signer.Algorithm()

	s.ts.SetExpectPKOK(true)
	probe := transport.BuildUserAuthRequest(user, "ssh-connection", "publickey", transport.BuildPublicKeyProbeData(alg, blob))
	reply, err := s.ts.SendUserAuthRequest(probe)
	s.ts.SetExpectPKOK(false)
	if err != nil {
		return nil, err
	}
	if !reply.PKOK {
		return reply, nil // server already answered FAILURE for this key
	}

	signed := transport.PublicKeySignedData(s.ts.SessionID(), user, "ssh-connection", alg, blob)
	sig, err := m.signer.Sign(signed)
	if err != nil {
		return nil, err
	}
	req := transport.BuildUserAuthRequest(user, "ssh-connection", "publickey", transport.BuildPublicKeyAuthData(alg, blob, sig))
	return s.ts.SendUserAuthRequest(req)
}

// KeyboardInteractiveCallback answers one round of prompts; name and
// instruction are server-supplied context text, prompts are (text,
// echo) pairs in display order. Returning one answer per prompt is
// required even when echo is false (passwords).
type KeyboardInteractiveCallback func(name, instruction string, prompts []transport.AuthPrompt) ([]string, error)

// KeyboardInteractive returns an AuthMethod driving the RFC 4256
// INFO_REQUEST/INFO_RESPONSE loop until the server answers
// SUCCESS/FAILURE; unlike blitter.com/go/xs (whose CLI reads a TERM
// env var and a password directly, with no challenge/response round),
// the callback here can be invoked more than once per authenticate()
// call if the server issues multiple challenge rounds.
func KeyboardInteractive(cb KeyboardInteractiveCallback) AuthMethod {
	return keyboardInteractiveMethod{cb}
}

type keyboardInteractiveMethod struct{ cb KeyboardInteractiveCallback }

func (keyboardInteractiveMethod) name() string { return "keyboard-interactive" }

func (m keyboardInteractiveMethod) authenticate(_ context.Context, s *Session, user string) (*transport.AuthReply, error) {
	req := transport.BuildUserAuthRequest(user, "ssh-connection", "keyboard-interactive", transport.BuildKeyboardInteractiveAuthData())
	reply, err := s.ts.SendUserAuthRequest(req)
	if err != nil {
		return nil, err
	}
	for reply.Prompts != nil || (len(reply.AllowedMethods) == 0 && !reply.Success && reply.InfoName == "") {
		if reply.Prompts == nil {
			break
		}
		answers, err := m.cb(reply.InfoName, reply.InfoInstruction, reply.Prompts)
		if err != nil {
			return nil, err
		}
		reply, err = s.ts.SendInfoResponse(answers)
		if err != nil {
			return nil, err
		}
	}
	return reply, nil
}

// authenticate runs config.Auth in order until one succeeds, per
// spec.md §4.4: a method's FAILURE narrows the allowed-methods set
// but authentication as a whole only fails once every configured
// method has been exhausted without SUCCESS.
func authenticate(ctx context.Context, s *Session, config *ClientConfig) error {
	if err := s.ts.RequestUserAuthService(); err != nil {
		return wrapTransportError(err)
	}

	var lastErr *AuthenticationError
	for _, method := range config.Auth {
		if lastErr != nil {
			allowed := false
			for _, name := range lastErr.AllowedMethods {
				allowed = allowed || name == method.name()
			}
			if !allowed {
				continue
			}
		}
		reply, err := method.authenticate(ctx, s, config.User)
		if err != nil {
			return wrapTransportError(err)
		}
		if reply.Success {
			s.ts.ActivateDeferredCompression()
			return nil
		}
		lastErr = &AuthenticationError{AllowedMethods: reply.AllowedMethods, PartialSuccess: reply.PartialSuccess}
	}
	if lastErr == nil {
		return fmt.Errorf("gossh: no authentication methods configured")
	}
	return lastErr
}
