package transport

// Public surface the gossh/auth.go driver uses to speak RFC 4252
// without needing access to this package's unexported message types.
// This mirrors how blitter.com/go/xs keeps its auth.go
// (AuthCtx/VerifyPass/AuthUserByPasswd) entirely separate from
// xsnet's wire plumbing — auth policy lives one layer up from the
// wire codec here too.

// AuthReply is the translated result of one USERAUTH_REQUEST: either
// SUCCESS (Success==true), FAILURE (AllowedMethods/PartialSuccess
// populated), a keyboard-interactive challenge (Prompts populated), or
// a publickey "please sign" acknowledgement (PKOK==true).
type AuthReply struct {
	Success        bool
	AllowedMethods []string
	PartialSuccess bool

	PKOK bool

	InfoName        string
	InfoInstruction string
	Prompts         []AuthPrompt
}

type AuthPrompt struct {
	Text string
	Echo bool
}

// BuildUserAuthRequest assembles a complete SSH_MSG_USERAUTH_REQUEST
// payload; methodData is whatever BuildPasswordAuthData /
// BuildPublicKeyAuthData / BuildKeyboardInteractiveAuthData produced.
func BuildUserAuthRequest(user, service, method string, methodData []byte) []byte {
	msg := &msgUserAuthRequestMsg{user: user, service: service, method: method, data: methodData}
	return msg.marshal()
}

// BuildPasswordAuthData encodes the "password" method body, RFC 4252 §8.
func BuildPasswordAuthData(password string) []byte {
	buf := marshalBool(nil, false)
	return marshalString(buf, []byte(password))
}

// BuildKeyboardInteractiveAuthData encodes the "keyboard-interactive"
// method's initial request body, RFC 4256 §3.1 (language + submethods,
// both conventionally empty).
func BuildKeyboardInteractiveAuthData() []byte {
	buf := marshalString(nil, nil)
	return marshalString(buf, nil)
}

// BuildInfoResponse encodes a keyboard-interactive INFO_RESPONSE.
func BuildInfoResponse(responses []string) []byte {
	m := &msgUserAuthInfoResponseMsg{responses: responses}
	return m.marshal()
}

// BuildPublicKeyProbeData encodes a publickey "probe" request
// (has_signature=false) per RFC 4252 §7, used to check whether a key
// would be acceptable before paying the cost of signing.
func BuildPublicKeyProbeData(algorithm string, blob []byte) []byte {
	buf := marshalBool(nil, false)
	buf = marshalString(buf, []byte(algorithm))
	return marshalString(buf, blob)
}

// BuildPublicKeyAuthData encodes a publickey request with a signature
// already attached (has_signature=true), RFC 4252 §7.
func BuildPublicKeyAuthData(algorithm string, blob, signature []byte) []byte {
	buf := marshalBool(nil, true)
	buf = marshalString(buf, []byte(algorithm))
	buf = marshalString(buf, blob)
	return marshalString(buf, signature)
}

// PublicKeySignedData builds the exact byte sequence a client must
// sign for publickey auth, RFC 4252 §7: session_id prefixed onto the
// same fields as the request, minus the signature itself.
func PublicKeySignedData(sessionID []byte, user, service, algorithm string, blob []byte) []byte {
	buf := marshalString(nil, sessionID)
	buf = append(buf, msgUserAuthRequest)
	buf = marshalString(buf, []byte(user))
	buf = marshalString(buf, []byte(service))
	buf = marshalString(buf, []byte("publickey"))
	buf = marshalBool(buf, true)
	buf = marshalString(buf, []byte(algorithm))
	return marshalString(buf, blob)
}

func translateAuthMessage(msg message) *AuthReply {
	switch m := msg.(type) {
	case *msgUserAuthSuccessMsg:
		return &AuthReply{Success: true}
	case *msgUserAuthFailureMsg:
		return &AuthReply{AllowedMethods: m.methodsCanContinue, PartialSuccess: m.partialSuccess}
	case *msgUserAuthInfoRequestMsg:
		prompts := parseInfoPrompts(m.payload)
		return &AuthReply{InfoName: m.name, InfoInstruction: m.instruction, Prompts: prompts}
	case *rawMessage:
		if m.t == msgUserAuthPKOK {
			return &AuthReply{PKOK: true}
		}
	}
	return &AuthReply{}
}

func parseInfoPrompts(payload []byte) []AuthPrompt {
	n, rest, err := unmarshalUint32(payload)
	if err != nil {
		return nil
	}
	prompts := make([]AuthPrompt, 0, n)
	for i := uint32(0); i < n; i++ {
		var text []byte
		text, rest, err = unmarshalString(rest)
		if err != nil {
			return prompts
		}
		var echo bool
		echo, rest, err = unmarshalBool(rest)
		if err != nil {
			return prompts
		}
		prompts = append(prompts, AuthPrompt{Text: string(text), Echo: echo})
	}
	return prompts
}

// SendUserAuthRequest sends a fully-built USERAUTH_REQUEST and
// returns the translated reply.
func (s *Session) SendUserAuthRequest(payload []byte) (*AuthReply, error) {
	msg, err := s.SendAuthMessage(payload)
	if err != nil {
		return nil, err
	}
	return translateAuthMessage(msg), nil
}

// SendInfoResponse sends a keyboard-interactive INFO_RESPONSE and
// returns the translated reply (another InfoRequest, or the terminal
// SUCCESS/FAILURE).
func (s *Session) SendInfoResponse(responses []string) (*AuthReply, error) {
	msg, err := s.SendAuthMessage(BuildInfoResponse(responses))
	if err != nil {
		return nil, err
	}
	return translateAuthMessage(msg), nil
}

// RequestUserAuthService must be sent once, immediately after KEX,
// before any USERAUTH_REQUEST, RFC 4253 §10.
func (s *Session) RequestUserAuthService() error {
	req := marshalString([]byte{msgServiceRequest}, []byte("ssh-userauth"))
	msg, err := s.SendAuthMessageExpectingServiceAccept(req)
	if err != nil {
		return err
	}
	_ = msg
	return nil
}

// SendAuthMessageExpectingServiceAccept is a thin variant of
// SendAuthMessage for the one SERVICE_REQUEST/SERVICE_ACCEPT
// round-trip that precedes authentication.
func (s *Session) SendAuthMessageExpectingServiceAccept(payload []byte) (message, error) {
	return s.SendAuthMessage(payload)
}
