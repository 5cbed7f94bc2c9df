package gossh

import (
	"errors"
	"testing"

	"github.com/jameskeane/bcrypt"
)

func fakeReader(files map[string][]byte) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		b, ok := files[path]
		if !ok {
			return nil, errors.New("gossh test: no such file " + path)
		}
		return append([]byte(nil), b...), nil
	}
}

func TestCredentialStorePasswordForMatch(t *testing.T) {
	salt, err := bcrypt.Salt()
	if err != nil {
		t.Fatal(err)
	}
	hash, err := bcrypt.Hash("correct horse", salt)
	if err != nil {
		t.Fatal(err)
	}

	contents := []byte("alice:" + salt + ":" + hash + "\n")
	store := NewCredentialStore(fakeReader(map[string][]byte{"passwd": contents}))

	ok, err := store.PasswordFor("alice", "correct horse", "passwd")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected password to match")
	}

	ok, err = store.PasswordFor("alice", "wrong password", "passwd")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected mismatched password to fail")
	}
}

func TestCredentialStorePasswordForUnknownUser(t *testing.T) {
	salt, _ := bcrypt.Salt()
	hash, _ := bcrypt.Hash("irrelevant", salt)
	contents := []byte("bob:" + salt + ":" + hash + "\n")
	store := NewCredentialStore(fakeReader(map[string][]byte{"passwd": contents}))

	ok, err := store.PasswordFor("alice", "anything", "passwd")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no match for a user absent from the file")
	}
}

func TestCredentialStoreTokenFor(t *testing.T) {
	contents := []byte("host.example.com:abc123\nother.example.com:def456\n")
	store := NewCredentialStore(fakeReader(map[string][]byte{"ids": contents}))

	tok, err := store.TokenFor("host.example.com", "ids")
	if err != nil {
		t.Fatal(err)
	}
	if tok != "abc123" {
		t.Fatalf("got %q, want abc123", tok)
	}

	if _, err := store.TokenFor("unknown.example.com", "ids"); err == nil {
		t.Fatal("expected an error for a host with no recorded token")
	}
}

func TestCredentialStoreNoReaderConfigured(t *testing.T) {
	store := &CredentialStore{}
	if _, err := store.PasswordFor("alice", "x", "passwd"); err == nil {
		t.Fatal("expected an error when reader is nil")
	}
	if _, err := store.TokenFor("host", "ids"); err == nil {
		t.Fatal("expected an error when reader is nil")
	}
}
