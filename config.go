package gossh

// ClientConfig replaces blitter.com/go/xs's global cipheropts
// bitfield and Dial() variadic extension-string plumbing with a
// single value, per the design note in spec.md §9 ("Global mutable
// registries for algorithm implementations become a ConnectionConfig
// value instead"). DefaultConfig mirrors the teacher's sensible
// defaults (a fixed preferred cipher/HMAC pair) translated to real
// negotiated algorithm names.

import (
	"time"

	"github.com/wireforge/gossh/transport"
)

// ClientConfig configures Dial/NewClientConn.
type ClientConfig struct {
	User string

	// Auth lists the methods attempted in order, stopping at the
	// first that succeeds; each failure's allowed-methods list can
	// still short-circuit to a method later in this slice.
	Auth []AuthMethod

	// HostKeyCallback is invoked once per (re-)key-exchange with the
	// raw host key blob; returning an error aborts the handshake.
	// There is intentionally no InsecureIgnoreHostKey helper: callers
	// wanting that must write the one-line func themselves, the same
	// friction blitter.com/go/xs's AuthCtx dependency-injection
	// pattern deliberately imposes on skipping real auth.
	HostKeyCallback func(hostname string, key []byte) error

	KexAlgorithms []string
	Ciphers       []string
	MACs          []string

	// Compressions orders the payload compression algorithms offered
	// in KEXINIT ("none", "zlib", "zlib@openssh.com"); the zero value
	// falls back to transport's default ("none" preferred, so
	// compression stays off unless a caller opts in).
	Compressions []string

	// StrictKex advertises kex-strict-c-v00@openssh.com in the initial
	// KEXINIT; when the server's KEXINIT also carries
	// kex-strict-s-v00@openssh.com, sequence numbers reset to zero at
	// the first NEWKEYS in each direction.
	StrictKex bool

	RekeyThreshold int64
	RekeyInterval  time.Duration

	KeepAliveInterval time.Duration

	ClientVersion string

	Timeout time.Duration
}

// DefaultConfig returns a ClientConfig with the same shape of sensible
// defaults blitter.com/go/xs's Dial() applied implicitly (a fixed
// preferred cipher, always-on strict framing) — here expressed as real
// SSH algorithm names instead of the teacher's CAlgAES256/HmacSHA256
// bitfield constants.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		KexAlgorithms:     append([]string{}, transportDefaults().KexAlgorithms...),
		Ciphers:           append([]string{}, transportDefaults().Ciphers...),
		MACs:              append([]string{}, transportDefaults().MACs...),
		Compressions:      append([]string{}, transportDefaults().Compressions...),
		StrictKex:         true,
		RekeyThreshold:    1 << 30,
		RekeyInterval:     time.Hour,
		KeepAliveInterval: 30 * time.Second,
		ClientVersion:     "SSH-2.0-gossh_1.0",
	}
}

func transportDefaults() *transport.Config { return transport.DefaultConfig() }

func (c *ClientConfig) toTransportConfig() *transport.Config {
	return &transport.Config{
		KexAlgorithms:     nonEmpty(c.KexAlgorithms, transportDefaults().KexAlgorithms),
		HostKeyAlgorithms: transportDefaults().HostKeyAlgorithms,
		Ciphers:           nonEmpty(c.Ciphers, transportDefaults().Ciphers),
		MACs:              nonEmpty(c.MACs, transportDefaults().MACs),
		Compressions:      nonEmpty(c.Compressions, transportDefaults().Compressions),
		ClientVersion:     nonEmptyString(c.ClientVersion, "SSH-2.0-gossh_1.0"),
		StrictKex:         c.StrictKex,
		RekeyBytes:        c.RekeyThreshold,
		RekeyInterval:     c.RekeyInterval,
		KeepAliveInterval: c.KeepAliveInterval,
		HostKeyCallback:   c.HostKeyCallback,
	}
}

func nonEmpty(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func nonEmptyString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
