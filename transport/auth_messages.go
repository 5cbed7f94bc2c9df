package transport

// RFC 4252 (authentication protocol) and RFC 4256 (keyboard-interactive)
// message variants.

type msgUserAuthRequestMsg struct {
	user     string
	service  string
	method   string
	data     []byte // method-specific payload, parsed by the auth package
}

func (m *msgUserAuthRequestMsg) msgType() byte { return msgUserAuthRequest }
func (m *msgUserAuthRequestMsg) marshal() []byte {
	buf := []byte{msgUserAuthRequest}
	buf = marshalString(buf, []byte(m.user))
	buf = marshalString(buf, []byte(m.service))
	buf = marshalString(buf, []byte(m.method))
	return append(buf, m.data...)
}
func (m *msgUserAuthRequestMsg) unmarshal(p []byte) (err error) {
	rest := p[1:]
	var u, s, meth []byte
	u, rest, err = unmarshalString(rest)
	if err != nil {
		return err
	}
	m.user = string(u)
	s, rest, err = unmarshalString(rest)
	if err != nil {
		return err
	}
	m.service = string(s)
	meth, rest, err = unmarshalString(rest)
	if err != nil {
		return err
	}
	m.method = string(meth)
	m.data = rest
	return nil
}

type msgUserAuthFailureMsg struct {
	methodsCanContinue []string
	partialSuccess     bool
}

func (m *msgUserAuthFailureMsg) msgType() byte { return msgUserAuthFailure }
func (m *msgUserAuthFailureMsg) marshal() []byte {
	buf := marshalNameList([]byte{msgUserAuthFailure}, m.methodsCanContinue)
	return marshalBool(buf, m.partialSuccess)
}
func (m *msgUserAuthFailureMsg) unmarshal(p []byte) (err error) {
	rest := p[1:]
	m.methodsCanContinue, rest, err = unmarshalNameList(rest)
	if err != nil {
		return err
	}
	m.partialSuccess, _, err = unmarshalBool(rest)
	return err
}

type msgUserAuthSuccessMsg struct{}

func (m *msgUserAuthSuccessMsg) msgType() byte            { return msgUserAuthSuccess }
func (m *msgUserAuthSuccessMsg) marshal() []byte          { return []byte{msgUserAuthSuccess} }
func (m *msgUserAuthSuccessMsg) unmarshal(_ []byte) error { return nil }

// msgUserAuthInfoRequestMsg implements the keyboard-interactive
// challenge, RFC 4256 §3.2. Prompts are parsed lazily by the auth
// driver since their count is itself part of the payload.
type msgUserAuthInfoRequestMsg struct {
	name        string
	instruction string
	payload     []byte
}

func (m *msgUserAuthInfoRequestMsg) msgType() byte { return msgUserAuthInfoRequest }
func (m *msgUserAuthInfoRequestMsg) marshal() []byte {
	return append([]byte{msgUserAuthInfoRequest}, m.payload...)
}
func (m *msgUserAuthInfoRequestMsg) unmarshal(p []byte) (err error) {
	rest := p[1:]
	var name, instr []byte
	name, rest, err = unmarshalString(rest)
	if err != nil {
		return err
	}
	m.name = string(name)
	instr, rest, err = unmarshalString(rest)
	if err != nil {
		return err
	}
	m.instruction = string(instr)
	m.payload = rest
	return nil
}

type msgUserAuthInfoResponseMsg struct {
	responses []string
}

func (m *msgUserAuthInfoResponseMsg) msgType() byte { return msgUserAuthInfoResponse }
func (m *msgUserAuthInfoResponseMsg) marshal() []byte {
	buf := marshalUint32([]byte{msgUserAuthInfoResponse}, uint32(len(m.responses)))
	for _, r := range m.responses {
		buf = marshalString(buf, []byte(r))
	}
	return buf
}
func (m *msgUserAuthInfoResponseMsg) unmarshal(p []byte) (err error) {
	n, rest, err := unmarshalUint32(p[1:])
	if err != nil {
		return err
	}
	m.responses = make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		var s []byte
		s, rest, err = unmarshalString(rest)
		if err != nil {
			return err
		}
		m.responses = append(m.responses, string(s))
	}
	return nil
}
