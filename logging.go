package gossh

// SyslogTrace adapts blitter.com/go/xs's logger package (a thin
// build-tagged wrapper over log/syslog, kept because the stdlib's own
// log/syslog has had no Windows implementation since it was frozen)
// into a transport.Config.Trace implementation: every SSH_MSG_* that
// crosses the wire, in either direction, becomes one LOG_DEBUG line.
// ClientConfig has no logging field of its own and toTransportConfig()
// leaves Trace unset, so this function's result takes effect only when
// a caller assigns it to the Trace field of a transport.Config it
// builds itself; the syslog writer is opened once via logger.New.
//
// This intentionally never logs payload contents beyond the message
// type name: plaintext terminal data and password auth method bodies
// both cross this hook, and a Debug log is not a safe place for them.

import (
	"fmt"

	"github.com/wireforge/gossh/logger"
)

func SyslogTrace() func(direction string, msgType byte, payload []byte) {
	return func(direction string, msgType byte, payload []byte) {
		_ = logger.LogDebug(fmt.Sprintf("gossh: %s %s (%d bytes)", direction, messageName(msgType), len(payload)))
	}
}

func messageName(t byte) string {
	if name, ok := messageNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type-%d", t)
}

var messageNames = map[byte]string{
	1:   "DISCONNECT",
	2:   "IGNORE",
	3:   "UNIMPLEMENTED",
	4:   "DEBUG",
	5:   "SERVICE_REQUEST",
	6:   "SERVICE_ACCEPT",
	20:  "KEXINIT",
	21:  "NEWKEYS",
	30:  "KEXDH_INIT/KEX_HYBRID_INIT",
	31:  "KEXDH_REPLY/KEX_HYBRID_REPLY",
	50:  "USERAUTH_REQUEST",
	51:  "USERAUTH_FAILURE",
	52:  "USERAUTH_SUCCESS",
	53:  "USERAUTH_BANNER",
	60:  "USERAUTH_PK_OK/USERAUTH_INFO_REQUEST",
	61:  "USERAUTH_INFO_RESPONSE",
	80:  "GLOBAL_REQUEST",
	81:  "REQUEST_SUCCESS",
	82:  "REQUEST_FAILURE",
	90:  "CHANNEL_OPEN",
	91:  "CHANNEL_OPEN_CONFIRMATION",
	92:  "CHANNEL_OPEN_FAILURE",
	93:  "CHANNEL_WINDOW_ADJUST",
	94:  "CHANNEL_DATA",
	95:  "CHANNEL_EXTENDED_DATA",
	96:  "CHANNEL_EOF",
	97:  "CHANNEL_CLOSE",
	98:  "CHANNEL_REQUEST",
	99:  "CHANNEL_SUCCESS",
	100: "CHANNEL_FAILURE",
}
