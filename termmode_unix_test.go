//go:build linux

package gossh

import (
	"io"
	"strings"
	"testing"
)

func TestReadPasswordLineStripsCRAndStopsAtLF(t *testing.T) {
	got, err := readPasswordLine(strings.NewReader("hunter2\r\nrest-unread"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hunter2" {
		t.Fatalf("got %q, want hunter2", got)
	}
}

func TestReadPasswordLineEOFWithoutNewlineReturnsWhatWasRead(t *testing.T) {
	got, err := readPasswordLine(strings.NewReader("partial"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "partial" {
		t.Fatalf("got %q, want partial", got)
	}
}

func TestReadPasswordLineImmediateEOFIsAnError(t *testing.T) {
	_, err := readPasswordLine(strings.NewReader(""))
	if err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}
