//go:build windows

package gossh

// Windows terminal handling for the shell-channel convenience wrapper,
// adapted from blitter.com/go/xs's termmode_windows.go: that file was
// candid about being mostly a stub shelling out to `stty` under
// MSYS+mintty rather than touching console mode directly, since mintty
// uses named pipes/ptys rather than Windows console mode. This build
// keeps that honesty rather than pretending a real implementation
// exists; a caller on Windows that needs raw mode should use
// golang.org/x/term directly, which this module already depends on.

import (
	"io"
	"os/exec"

	"golang.org/x/sys/windows"
)

type TerminalState struct{}

func MakeRawTerminal(fd uintptr) (*TerminalState, error) {
	cmd := exec.Command("stty", "-echo", "raw")
	_ = cmd.Run()
	return &TerminalState{}, nil
}

func RestoreTerminal(fd uintptr, state *TerminalState) error {
	cmd := exec.Command("stty", "echo", "cooked")
	return cmd.Run()
}

func ReadPassword(fd uintptr) ([]byte, error) {
	return readPasswordLine(passwordReader(fd))
}

type passwordReader windows.Handle

func (r passwordReader) Read(buf []byte) (int, error) {
	return windows.Read(windows.Handle(r), buf)
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
