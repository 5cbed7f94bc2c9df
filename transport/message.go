package transport

// Message types mirror blitter.com/go/xs's ctrlStatOp-tagged packet idiom
// (a single leading opcode byte selects the payload shape) generalized to
// the full RFC 4253/4254 message numbering instead of the teacher's
// CSOType/CSExtendedCode space.

// Message numbers, RFC 4253 §12 / RFC 4254 §9 / RFC 4252 §6.
const (
	msgDisconnect   = 1
	msgIgnore       = 2
	msgUnimplemented = 3
	msgDebug        = 4
	msgServiceRequest = 5
	msgServiceAccept  = 6

	msgKexInit = 20
	msgNewKeys = 21

	// KEX method-specific range, RFC 4253 §7.
	msgKexDHInit  = 30
	msgKexDHReply = 31
	// PQ-hybrid KEX reuses the same numbers per OpenSSH's
	// sntrup761x25519/mlkem768x25519 convention (30/31 are
	// method-specific and never collide within one negotiated KEX).
	msgKexHybridInit  = 30
	msgKexHybridReply = 31

	msgUserAuthRequest = 50
	msgUserAuthFailure = 51
	msgUserAuthSuccess = 52
	msgUserAuthBanner  = 53
	// keyboard-interactive, RFC 4256 §3.2/3.3
	msgUserAuthInfoRequest  = 60
	msgUserAuthInfoResponse = 61
	// publickey PK_OK continuation, RFC 4252 §7
	msgUserAuthPKOK = 60

	msgGlobalRequest  = 80
	msgRequestSuccess = 81
	msgRequestFailure = 82

	msgChannelOpen           = 90
	msgChannelOpenConfirm    = 91
	msgChannelOpenFailure    = 92
	msgChannelWindowAdjust   = 93
	msgChannelData           = 94
	msgChannelExtendedData   = 95
	msgChannelEOF            = 96
	msgChannelClose          = 97
	msgChannelRequest        = 98
	msgChannelSuccess        = 99
	msgChannelFailure        = 100
)

// disconnect reasons, RFC 4253 §11.1.
const (
	DisconnectHostNotAllowedToConnect = 1
	DisconnectProtocolError           = 2
	DisconnectKeyExchangeFailed       = 3
	DisconnectReserved                = 4
	DisconnectMacError                = 5
	DisconnectCompressionError        = 6
	DisconnectServiceNotAvailable     = 7
	DisconnectProtocolVersionNotSupported = 8
	DisconnectHostKeyNotVerifiable    = 9
	DisconnectConnectionLost          = 10
	DisconnectByApplication           = 11
	DisconnectTooManyConnections      = 12
	DisconnectAuthCancelledByUser     = 13
	DisconnectNoMoreAuthMethodsAvailable = 14
	DisconnectIllegalUserName         = 15
)

// message is the tagged-union trait every wire message variant
// implements: enough to round-trip through the BPP payload.
type message interface {
	msgType() byte
	marshal() []byte
	unmarshal(payload []byte) error
}

// rawMessage carries an undecoded message body for any message number
// without a dedicated struct (SERVICE_ACCEPT, USERAUTH_BANNER, PK_OK,
// ...); Session's dispatch drops IGNORE/DEBUG/UNIMPLEMENTED before
// decoding them.
type rawMessage struct {
	t    byte
	body []byte
}

func (m *rawMessage) msgType() byte { return m.t }
func (m *rawMessage) marshal() []byte {
	return append([]byte{m.t}, m.body...)
}
func (m *rawMessage) unmarshal(payload []byte) error {
	if len(payload) < 1 {
		return errTruncated
	}
	m.t = payload[0]
	m.body = payload[1:]
	return nil
}

// decodeMessage dispatches on the leading opcode byte and returns the
// concrete variant, matching the teacher's switch-on-ctrlStatOp idiom
// in xsnet.Conn.Read but over the real SSH message numbers.
func decodeMessage(payload []byte) (message, error) {
	if len(payload) < 1 {
		return nil, errTruncated
	}
	var m message
	switch payload[0] {
	case msgKexInit:
		m = &msgKexInitMsg{}
	case msgNewKeys:
		m = &msgNewKeysMsg{}
	case msgKexDHInit:
		m = &msgKexDHInitMsg{}
	case msgKexDHReply:
		m = &msgKexDHReplyMsg{}
	case msgChannelOpen:
		m = &msgChannelOpenMsg{}
	case msgChannelOpenConfirm:
		m = &msgChannelOpenConfirmMsg{}
	case msgChannelOpenFailure:
		m = &msgChannelOpenFailureMsg{}
	case msgChannelWindowAdjust:
		m = &msgChannelWindowAdjustMsg{}
	case msgChannelData:
		m = &msgChannelDataMsg{}
	case msgChannelExtendedData:
		m = &msgChannelExtendedDataMsg{}
	case msgChannelEOF:
		m = &msgChannelEOFMsg{}
	case msgChannelClose:
		m = &msgChannelCloseMsg{}
	case msgChannelRequest:
		m = &msgChannelRequestMsg{}
	case msgChannelSuccess:
		m = &msgChannelSuccessMsg{}
	case msgChannelFailure:
		m = &msgChannelFailureMsg{}
	case msgGlobalRequest:
		m = &msgGlobalRequestMsg{}
	case msgRequestSuccess:
		m = &msgRequestSuccessMsg{}
	case msgRequestFailure:
		m = &msgRequestFailureMsg{}
	case msgUserAuthRequest:
		m = &msgUserAuthRequestMsg{}
	case msgUserAuthFailure:
		m = &msgUserAuthFailureMsg{}
	case msgUserAuthSuccess:
		m = &msgUserAuthSuccessMsg{}
	case msgUserAuthInfoRequest:
		m = &msgUserAuthInfoRequestMsg{}
	case msgUserAuthInfoResponse:
		m = &msgUserAuthInfoResponseMsg{}
	case msgDisconnect:
		m = &msgDisconnectMsg{}
	default:
		m = &rawMessage{}
	}
	return m, m.unmarshal(payload)
}

type msgKexInitMsg struct {
	cookie                  [16]byte
	kexAlgorithms           []string
	hostKeyAlgorithms       []string
	ciphersClientToServer   []string
	ciphersServerToClient   []string
	macsClientToServer      []string
	macsServerToClient      []string
	compressionClientToServer []string
	compressionServerToClient []string
	languagesClientToServer []string
	languagesServerToClient []string
	firstKexPacketFollows  bool
}

func (m *msgKexInitMsg) msgType() byte { return msgKexInit }
func (m *msgKexInitMsg) marshal() []byte {
	buf := []byte{msgKexInit}
	buf = append(buf, m.cookie[:]...)
	buf = marshalNameList(buf, m.kexAlgorithms)
	buf = marshalNameList(buf, m.hostKeyAlgorithms)
	buf = marshalNameList(buf, m.ciphersClientToServer)
	buf = marshalNameList(buf, m.ciphersServerToClient)
	buf = marshalNameList(buf, m.macsClientToServer)
	buf = marshalNameList(buf, m.macsServerToClient)
	buf = marshalNameList(buf, m.compressionClientToServer)
	buf = marshalNameList(buf, m.compressionServerToClient)
	buf = marshalNameList(buf, m.languagesClientToServer)
	buf = marshalNameList(buf, m.languagesServerToClient)
	buf = marshalBool(buf, m.firstKexPacketFollows)
	buf = marshalUint32(buf, 0) // reserved
	return buf
}
func (m *msgKexInitMsg) unmarshal(p []byte) (err error) {
	if len(p) < 17 {
		return errTruncated
	}
	copy(m.cookie[:], p[1:17])
	rest := p[17:]
	fields := []*[]string{
		&m.kexAlgorithms, &m.hostKeyAlgorithms,
		&m.ciphersClientToServer, &m.ciphersServerToClient,
		&m.macsClientToServer, &m.macsServerToClient,
		&m.compressionClientToServer, &m.compressionServerToClient,
		&m.languagesClientToServer, &m.languagesServerToClient,
	}
	for _, f := range fields {
		*f, rest, err = unmarshalNameList(rest)
		if err != nil {
			return err
		}
	}
	m.firstKexPacketFollows, rest, err = unmarshalBool(rest)
	return err
}

type msgNewKeysMsg struct{}

func (m *msgNewKeysMsg) msgType() byte         { return msgNewKeys }
func (m *msgNewKeysMsg) marshal() []byte       { return []byte{msgNewKeys} }
func (m *msgNewKeysMsg) unmarshal(_ []byte) error { return nil }

type msgDisconnectMsg struct {
	reasonCode   uint32
	description  string
	languageTag  string
}

func (m *msgDisconnectMsg) msgType() byte { return msgDisconnect }
func (m *msgDisconnectMsg) marshal() []byte {
	buf := []byte{msgDisconnect}
	buf = marshalUint32(buf, m.reasonCode)
	buf = marshalString(buf, []byte(m.description))
	buf = marshalString(buf, []byte(m.languageTag))
	return buf
}
func (m *msgDisconnectMsg) unmarshal(p []byte) error {
	if len(p) < 5 {
		return errTruncated
	}
	reason, rest, err := unmarshalUint32(p[1:])
	if err != nil {
		return err
	}
	m.reasonCode = reason
	desc, rest, err := unmarshalString(rest)
	if err != nil {
		return err
	}
	m.description = string(desc)
	tag, _, err := unmarshalString(rest)
	if err == nil {
		m.languageTag = string(tag)
	}
	return nil
}
