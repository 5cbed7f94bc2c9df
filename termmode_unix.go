//go:build linux

package gossh

// Raw terminal mode for the shell-channel convenience wrapper
// (StartShell's pty-req path), adapted from blitter.com/go/xs's
// termmode_bsd.go, which used the same direct-ioctl style tagged to
// freebsd (unix.TIOCGETA/TIOCSETA). This build targets linux instead
// (unix.TCGETS/TCSETS — the ioctl numbers differ per kernel, so the
// constant names don't port directly); a termmode_bsd.go reintroducing
// the freebsd tag and TIOCGETA/TIOCSETA names would slot in next to
// this file unchanged in shape.

import (
	"errors"
	"io"
	"unsafe"

	"golang.org/x/sys/unix"
)

const getTermios = unix.TCGETS
const setTermios = unix.TCSETS

// TerminalState is the saved termios state MakeRawTerminal returns,
// to be handed back to RestoreTerminal on shell-channel teardown.
type TerminalState struct {
	termios unix.Termios
}

// MakeRawTerminal puts the terminal connected to fd into raw mode
// (matching the pty-req a shell channel opened via StartShell asks
// the server to honor) and returns the previous state.
func MakeRawTerminal(fd uintptr) (*TerminalState, error) {
	var oldState TerminalState
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, getTermios, uintptr(unsafe.Pointer(&oldState.termios))); errno != 0 {
		return nil, errno
	}

	newState := oldState.termios
	newState.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	newState.Oflag &^= unix.OPOST
	newState.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	newState.Cflag &^= unix.CSIZE | unix.PARENB
	newState.Cflag |= unix.CS8
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, setTermios, uintptr(unsafe.Pointer(&newState))); errno != 0 {
		return nil, errno
	}
	return &oldState, nil
}

// RestoreTerminal restores fd to a state captured by MakeRawTerminal.
func RestoreTerminal(fd uintptr, state *TerminalState) error {
	if state == nil {
		return errors.New("gossh: nil terminal state")
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, setTermios, uintptr(unsafe.Pointer(&state.termios))); errno != 0 {
		return errno
	}
	return nil
}

// ReadPassword reads one line from fd with local echo disabled,
// for a keyboard-interactive prompt with AuthPrompt.Echo == false.
func ReadPassword(fd uintptr) ([]byte, error) {
	var oldState TerminalState
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, getTermios, uintptr(unsafe.Pointer(&oldState.termios))); errno != 0 {
		return nil, errno
	}

	newState := oldState.termios
	newState.Lflag &^= unix.ECHO
	newState.Lflag |= unix.ICANON | unix.ISIG
	newState.Iflag |= unix.ICRNL
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, setTermios, uintptr(unsafe.Pointer(&newState))); errno != 0 {
		return nil, errno
	}
	defer unix.Syscall(unix.SYS_IOCTL, fd, setTermios, uintptr(unsafe.Pointer(&oldState.termios)))

	return readPasswordLine(passwordReader(fd))
}

type passwordReader int

func (r passwordReader) Read(buf []byte) (int, error) {
	return unix.Read(int(r), buf)
}

func readPasswordLine(reader io.Reader) ([]byte, error) {
	var buf [1]byte
	var ret []byte
	for {
		n, err := reader.Read(buf[:])
		if n > 0 {
			switch buf[0] {
			case '\n':
				return ret, nil
			case '\r':
			default:
				ret = append(ret, buf[0])
			}
			continue
		}
		if err != nil {
			if err == io.EOF && len(ret) > 0 {
				return ret, nil
			}
			return ret, err
		}
	}
}
