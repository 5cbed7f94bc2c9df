package gossh

import "context"

// ExecRequest bundles the parameters of an "exec"/"shell" channel
// request. This is the direct generalization of blitter.com/go/xs's
// xs.Session bookkeeping struct (op/who/termtype/cmd/authCookie) from
// a whole-connection record into a per-channel-request value, since
// in real SSH a single authenticated connection can open many
// exec/shell channels rather than being the one-shot-per-TCP-connection
// model the teacher's Session assumed.
type ExecRequest struct {
	TermType string // client's $TERM, forwarded via "pty-req" when PTY is true
	Cmd      string // empty means request an interactive shell
	PTY      bool
	Env      map[string]string
}

// String redacts nothing today (ExecRequest carries no secret), but
// keeps the Stringer shape of the teacher's xs.Session.String so a
// caller logging a request doesn't need a bespoke formatter.
func (r ExecRequest) String() string {
	kind := "shell"
	if r.Cmd != "" {
		kind = "exec:" + r.Cmd
	}
	return "gossh.ExecRequest{" + kind + " term=" + r.TermType + " pty=" + boolStr(r.PTY) + "}"
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// StartShell opens a "session" channel and requests either a PTY+shell
// or a one-shot command, following RFC 4254 §6.2/§6.5/§6.7/§6.10's
// request sequence: pty-req (if PTY), then exec or shell, want_reply
// true on every request per the channel's FIFO ordering rule. ctx
// governs only the CHANNEL_OPEN wait; the channel requests that follow
// (pty-req, env, exec/shell) are not cancellable through ctx.
func (c *Client) StartShell(ctx context.Context, req ExecRequest) (*Channel, error) {
	ch, err := c.OpenChannel(ctx, "session", nil)
	if err != nil {
		return nil, err
	}

	if req.PTY {
		width, height := TerminalSize(0)
		payload := ptyRequestPayload(req.TermType, uint32(width), uint32(height))
		if ok, err := ch.SendRequest("pty-req", true, payload); err != nil || !ok {
			_ = ch.Close()
			if err != nil {
				return nil, err
			}
			return nil, &ChannelError{Err: errPTYRefused}
		}
	}

	for name, value := range req.Env {
		// env requests are best-effort: servers commonly refuse all
		// but an AcceptEnv allow-list, so a refusal here is not fatal.
		_, _ = ch.SendRequest("env", true, envRequestPayload(name, value))
	}

	reqType, payload := "shell", []byte(nil)
	if req.Cmd != "" {
		reqType, payload = "exec", stringPayload(req.Cmd)
	}
	ok, err := ch.SendRequest(reqType, true, payload)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	if !ok {
		_ = ch.Close()
		return nil, &ChannelError{Err: errExecRefused}
	}
	return ch, nil
}

func stringPayload(s string) []byte {
	b := make([]byte, 4+len(s))
	putUint32(b, uint32(len(s)))
	copy(b[4:], s)
	return b
}

func ptyRequestPayload(term string, widthChars, heightChars uint32) []byte {
	buf := stringPayload(term)
	var u [4 * 6]byte
	putUint32(u[0:], widthChars)
	putUint32(u[4:], heightChars)
	putUint32(u[8:], 0) // width pixels
	putUint32(u[12:], 0) // height pixels
	putUint32(u[16:], 0) // terminal modes string length (none)
	buf = append(buf, u[:20]...)
	return buf
}

func envRequestPayload(name, value string) []byte {
	buf := stringPayload(name)
	return append(buf, stringPayload(value)...)
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
