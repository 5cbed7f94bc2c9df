package gossh

// Port forwarding, RFC 4254 §7, grounded on blitter.com/go/xs's
// hkextun.go: that file paired a worker goroutine reading the tunneled
// socket with one reading the hkexnet.Conn's decrypted tun channel,
// driven by a private [CSOTunReq/Ack/Refused/Close/Data] control-op
// protocol layered directly on the custom framing. Here the same
// worker-goroutine-pair-per-endpoint shape drives real SSH channel
// types instead: "direct-tcpip" for local forwarding, and
// "tcpip-forward"/"forwarded-tcpip" for remote forwarding — the
// control handshake hkextun.go hand-rolled (TunReq/Ack/Refused) is
// just RFC 4254's own CHANNEL_OPEN/OPEN_CONFIRMATION/OPEN_FAILURE,
// which transport.Session.OpenChannel already drives.

import (
	"context"
	"errors"
	"io"
	"net"
)

// ForwardLocal listens on localAddr and, for each accepted connection,
// opens a "direct-tcpip" channel to remoteHost:remotePort and pumps
// data between them until either side closes — the client-side half
// of hkextun.go's StartClientTunnel, minus that function's bespoke
// control-op framing.
func (c *Client) ForwardLocal(localAddr, remoteHost string, remotePort uint16) (io.Closer, error) {
	l, err := net.Listen("tcp", localAddr)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go c.serveDirectTCPIP(conn, remoteHost, remotePort)
		}
	}()
	return l, nil
}

func (c *Client) serveDirectTCPIP(conn net.Conn, remoteHost string, remotePort uint16) {
	defer conn.Close()

	originHost, originPort := splitHostPort(conn.RemoteAddr().String())
	payload := directTCPIPPayload(remoteHost, remotePort, originHost, originPort)

	ch, err := c.OpenChannel(context.Background(), "direct-tcpip", payload)
	if err != nil {
		return
	}
	defer ch.Close()
	pump(conn, ch)
}

// ForwardRemote asks the server to listen on bindAddr:bindPort and
// deliver every accepted connection back as a "forwarded-tcpip"
// channel, which this then proxies to localHost:localPort — the
// server-side half of hkextun.go's startServerTunnel, minus that
// function's bespoke control-op framing. The returned function
// cancels the forward by sending "cancel-tcpip-forward".
func (c *Client) ForwardRemote(bindAddr string, bindPort uint16, localHost string, localPort uint16) (cancel func() error, err error) {
	ts := c.session.ts
	_, err = ts.SendGlobalRequest("tcpip-forward", true, tcpipForwardPayload(bindAddr, bindPort))
	if err != nil {
		return nil, wrapTransportError(err)
	}

	incoming := ts.SetForwardedChannelHandler(func(typeSpecificData []byte) bool {
		return true // address/port already agreed via the forward request above
	})

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case ch, ok := <-incoming:
				if !ok {
					return
				}
				go c.serveForwardedTCPIP(ch, localHost, localPort)
			case <-stop:
				return
			}
		}
	}()

	cancel = func() error {
		close(stop)
		_, err := ts.SendGlobalRequest("cancel-tcpip-forward", true, tcpipForwardPayload(bindAddr, bindPort))
		return wrapTransportError(err)
	}
	return cancel, nil
}

func (c *Client) serveForwardedTCPIP(ch *Channel, localHost string, localPort uint16) {
	defer ch.Close()
	conn, err := net.Dial("tcp", net.JoinHostPort(localHost, uint16Str(localPort)))
	if err != nil {
		return
	}
	defer conn.Close()
	pump(conn, ch)
}

// pump copies data in both directions until one side is done, the
// same half-duplex-pair-of-goroutines idiom hkextun.go used for every
// tunnel endpoint.
func pump(conn net.Conn, ch *Channel) {
	done := make(chan struct{}, 2)
	go func() {
		io.Copy(ch, conn)
		ch.SendEOF()
		done <- struct{}{}
	}()
	go func() {
		io.Copy(conn, ch)
		done <- struct{}{}
	}()
	<-done
	<-done
}

func directTCPIPPayload(host string, port uint16, originHost string, originPort uint16) []byte {
	buf := stringPayload(host)
	buf = append(buf, uint32Payload(uint32(port))...)
	buf = append(buf, stringPayload(originHost)...)
	buf = append(buf, uint32Payload(uint32(originPort))...)
	return buf
}

func tcpipForwardPayload(addr string, port uint16) []byte {
	buf := stringPayload(addr)
	return append(buf, uint32Payload(uint32(port))...)
}

func uint32Payload(v uint32) []byte {
	var b [4]byte
	putUint32(b[:], v)
	return b[:]
}

func splitHostPort(hostport string) (string, uint16) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, 0
	}
	var port uint16
	for _, r := range portStr {
		if r < '0' || r > '9' {
			break
		}
		port = port*10 + uint16(r-'0')
	}
	return host, port
}

func uint16Str(v uint16) string {
	if v == 0 {
		return "0"
	}
	var b [5]byte
	i := len(b)
	for v > 0 {
		i--
		b[i] = byte('0' + v%10)
		v /= 10
	}
	return string(b[i:])
}

var errForwardRefused = errors.New("gossh: remote port forward request refused")
