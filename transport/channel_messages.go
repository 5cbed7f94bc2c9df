package transport

// Channel and global-request message variants, RFC 4254 §4–§6. Field
// names follow the RFC's own vocabulary so the wire layout here and
// the prose in SPEC_FULL.md §4.5 read side by side without translation.

type msgGlobalRequestMsg struct {
	requestName string
	wantReply   bool
	data        []byte
}

func (m *msgGlobalRequestMsg) msgType() byte { return msgGlobalRequest }
func (m *msgGlobalRequestMsg) marshal() []byte {
	buf := []byte{msgGlobalRequest}
	buf = marshalString(buf, []byte(m.requestName))
	buf = marshalBool(buf, m.wantReply)
	return append(buf, m.data...)
}
func (m *msgGlobalRequestMsg) unmarshal(p []byte) (err error) {
	rest := p[1:]
	var name []byte
	name, rest, err = unmarshalString(rest)
	if err != nil {
		return err
	}
	m.requestName = string(name)
	m.wantReply, rest, err = unmarshalBool(rest)
	m.data = rest
	return err
}

type msgRequestSuccessMsg struct{ data []byte }

func (m *msgRequestSuccessMsg) msgType() byte           { return msgRequestSuccess }
func (m *msgRequestSuccessMsg) marshal() []byte         { return append([]byte{msgRequestSuccess}, m.data...) }
func (m *msgRequestSuccessMsg) unmarshal(p []byte) error { m.data = p[1:]; return nil }

type msgRequestFailureMsg struct{}

func (m *msgRequestFailureMsg) msgType() byte            { return msgRequestFailure }
func (m *msgRequestFailureMsg) marshal() []byte          { return []byte{msgRequestFailure} }
func (m *msgRequestFailureMsg) unmarshal(_ []byte) error { return nil }

type msgChannelOpenMsg struct {
	channelType       string
	senderChannel     uint32
	initialWindowSize uint32
	maximumPacketSize uint32
	typeSpecificData  []byte
}

func (m *msgChannelOpenMsg) msgType() byte { return msgChannelOpen }
func (m *msgChannelOpenMsg) marshal() []byte {
	buf := []byte{msgChannelOpen}
	buf = marshalString(buf, []byte(m.channelType))
	buf = marshalUint32(buf, m.senderChannel)
	buf = marshalUint32(buf, m.initialWindowSize)
	buf = marshalUint32(buf, m.maximumPacketSize)
	return append(buf, m.typeSpecificData...)
}
func (m *msgChannelOpenMsg) unmarshal(p []byte) (err error) {
	rest := p[1:]
	var ct []byte
	ct, rest, err = unmarshalString(rest)
	if err != nil {
		return err
	}
	m.channelType = string(ct)
	if m.senderChannel, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	if m.initialWindowSize, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	if m.maximumPacketSize, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	m.typeSpecificData = rest
	return nil
}

type msgChannelOpenConfirmMsg struct {
	recipientChannel  uint32
	senderChannel     uint32
	initialWindowSize uint32
	maximumPacketSize uint32
	typeSpecificData  []byte
}

func (m *msgChannelOpenConfirmMsg) msgType() byte { return msgChannelOpenConfirm }
func (m *msgChannelOpenConfirmMsg) marshal() []byte {
	buf := []byte{msgChannelOpenConfirm}
	buf = marshalUint32(buf, m.recipientChannel)
	buf = marshalUint32(buf, m.senderChannel)
	buf = marshalUint32(buf, m.initialWindowSize)
	buf = marshalUint32(buf, m.maximumPacketSize)
	return append(buf, m.typeSpecificData...)
}
func (m *msgChannelOpenConfirmMsg) unmarshal(p []byte) (err error) {
	rest := p[1:]
	if m.recipientChannel, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	if m.senderChannel, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	if m.initialWindowSize, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	if m.maximumPacketSize, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	m.typeSpecificData = rest
	return nil
}

type msgChannelOpenFailureMsg struct {
	recipientChannel uint32
	reasonCode       uint32
	description      string
	languageTag      string
}

func (m *msgChannelOpenFailureMsg) msgType() byte { return msgChannelOpenFailure }
func (m *msgChannelOpenFailureMsg) marshal() []byte {
	buf := []byte{msgChannelOpenFailure}
	buf = marshalUint32(buf, m.recipientChannel)
	buf = marshalUint32(buf, m.reasonCode)
	buf = marshalString(buf, []byte(m.description))
	buf = marshalString(buf, []byte(m.languageTag))
	return buf
}
func (m *msgChannelOpenFailureMsg) unmarshal(p []byte) (err error) {
	rest := p[1:]
	if m.recipientChannel, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	if m.reasonCode, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	var desc, tag []byte
	desc, rest, err = unmarshalString(rest)
	if err != nil {
		return err
	}
	m.description = string(desc)
	tag, _, err = unmarshalString(rest)
	m.languageTag = string(tag)
	return nil
}

// channel open failure reason codes, RFC 4254 §5.1.
const (
	ChannelOpenAdministrativelyProhibited = 1
	ChannelOpenConnectFailed              = 2
	ChannelOpenUnknownChannelType         = 3
	ChannelOpenResourceShortage           = 4
)

type msgChannelWindowAdjustMsg struct {
	recipientChannel uint32
	bytesToAdd       uint32
}

func (m *msgChannelWindowAdjustMsg) msgType() byte { return msgChannelWindowAdjust }
func (m *msgChannelWindowAdjustMsg) marshal() []byte {
	buf := []byte{msgChannelWindowAdjust}
	buf = marshalUint32(buf, m.recipientChannel)
	return marshalUint32(buf, m.bytesToAdd)
}
func (m *msgChannelWindowAdjustMsg) unmarshal(p []byte) (err error) {
	rest := p[1:]
	if m.recipientChannel, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	m.bytesToAdd, _, err = unmarshalUint32(rest)
	return err
}

type msgChannelDataMsg struct {
	recipientChannel uint32
	data             []byte
}

func (m *msgChannelDataMsg) msgType() byte { return msgChannelData }
func (m *msgChannelDataMsg) marshal() []byte {
	buf := []byte{msgChannelData}
	buf = marshalUint32(buf, m.recipientChannel)
	return marshalString(buf, m.data)
}
func (m *msgChannelDataMsg) unmarshal(p []byte) (err error) {
	rest := p[1:]
	if m.recipientChannel, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	m.data, _, err = unmarshalString(rest)
	return err
}

type msgChannelExtendedDataMsg struct {
	recipientChannel uint32
	dataTypeCode     uint32
	data             []byte
}

const ExtendedDataStderr = 1

func (m *msgChannelExtendedDataMsg) msgType() byte { return msgChannelExtendedData }
func (m *msgChannelExtendedDataMsg) marshal() []byte {
	buf := []byte{msgChannelExtendedData}
	buf = marshalUint32(buf, m.recipientChannel)
	buf = marshalUint32(buf, m.dataTypeCode)
	return marshalString(buf, m.data)
}
func (m *msgChannelExtendedDataMsg) unmarshal(p []byte) (err error) {
	rest := p[1:]
	if m.recipientChannel, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	if m.dataTypeCode, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	m.data, _, err = unmarshalString(rest)
	return err
}

type msgChannelEOFMsg struct{ recipientChannel uint32 }

func (m *msgChannelEOFMsg) msgType() byte   { return msgChannelEOF }
func (m *msgChannelEOFMsg) marshal() []byte { return marshalUint32([]byte{msgChannelEOF}, m.recipientChannel) }
func (m *msgChannelEOFMsg) unmarshal(p []byte) (err error) {
	m.recipientChannel, _, err = unmarshalUint32(p[1:])
	return err
}

type msgChannelCloseMsg struct{ recipientChannel uint32 }

func (m *msgChannelCloseMsg) msgType() byte { return msgChannelClose }
func (m *msgChannelCloseMsg) marshal() []byte {
	return marshalUint32([]byte{msgChannelClose}, m.recipientChannel)
}
func (m *msgChannelCloseMsg) unmarshal(p []byte) (err error) {
	m.recipientChannel, _, err = unmarshalUint32(p[1:])
	return err
}

type msgChannelRequestMsg struct {
	recipientChannel uint32
	requestType      string
	wantReply        bool
	data             []byte
}

func (m *msgChannelRequestMsg) msgType() byte { return msgChannelRequest }
func (m *msgChannelRequestMsg) marshal() []byte {
	buf := []byte{msgChannelRequest}
	buf = marshalUint32(buf, m.recipientChannel)
	buf = marshalString(buf, []byte(m.requestType))
	buf = marshalBool(buf, m.wantReply)
	return append(buf, m.data...)
}
func (m *msgChannelRequestMsg) unmarshal(p []byte) (err error) {
	rest := p[1:]
	if m.recipientChannel, rest, err = unmarshalUint32(rest); err != nil {
		return err
	}
	var rt []byte
	rt, rest, err = unmarshalString(rest)
	if err != nil {
		return err
	}
	m.requestType = string(rt)
	m.wantReply, rest, err = unmarshalBool(rest)
	m.data = rest
	return err
}

type msgChannelSuccessMsg struct{ recipientChannel uint32 }

func (m *msgChannelSuccessMsg) msgType() byte { return msgChannelSuccess }
func (m *msgChannelSuccessMsg) marshal() []byte {
	return marshalUint32([]byte{msgChannelSuccess}, m.recipientChannel)
}
func (m *msgChannelSuccessMsg) unmarshal(p []byte) (err error) {
	m.recipientChannel, _, err = unmarshalUint32(p[1:])
	return err
}

type msgChannelFailureMsg struct{ recipientChannel uint32 }

func (m *msgChannelFailureMsg) msgType() byte { return msgChannelFailure }
func (m *msgChannelFailureMsg) marshal() []byte {
	return marshalUint32([]byte{msgChannelFailure}, m.recipientChannel)
}
func (m *msgChannelFailureMsg) unmarshal(p []byte) (err error) {
	m.recipientChannel, _, err = unmarshalUint32(p[1:])
	return err
}
