package identity

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeSession(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing session: %v", err)
	}
	return path
}

func TestFileSessionConnected(t *testing.T) {
	key := bytes.Repeat([]byte{0xaa}, KeySize)
	fs := NewFileSession(writeSession(t, fmt.Sprintf(
		`{"address":"0xabc123","key":"%s"}`, hex.EncodeToString(key))))

	addr, ok := fs.Identity()
	if !ok || addr != "0xabc123" {
		t.Errorf("Identity = %q, %v", addr, ok)
	}

	got, ok := fs.CurrentKey()
	if !ok || !bytes.Equal(got, key) {
		t.Errorf("CurrentKey = %x, %v", got, ok)
	}
}

func TestFileSessionNotConnected(t *testing.T) {
	tests := []struct {
		name string
		fs   *FileSession
	}{
		{"missing file", NewFileSession(filepath.Join(t.TempDir(), "nope.json"))},
		{"malformed json", NewFileSession(writeSession(t, "{"))},
		{"empty address", NewFileSession(writeSession(t, `{"address":"  ","key":"aa"}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := tt.fs.Identity(); ok {
				t.Error("Identity should report not connected")
			}
			if _, ok := tt.fs.CurrentKey(); ok {
				t.Error("CurrentKey should report no key")
			}
		})
	}
}

func TestFileSessionShortKey(t *testing.T) {
	fs := NewFileSession(writeSession(t, `{"address":"0xabc","key":"aabb"}`))

	if _, ok := fs.Identity(); !ok {
		t.Error("address is present, Identity should succeed")
	}
	if _, ok := fs.CurrentKey(); ok {
		t.Error("short key must not be usable")
	}
}

func TestStatic(t *testing.T) {
	s := &Static{Address: "0xdef", Key: bytes.Repeat([]byte{0x01}, KeySize)}
	if addr, ok := s.Identity(); !ok || addr != "0xdef" {
		t.Errorf("Identity = %q, %v", addr, ok)
	}
	if _, ok := s.CurrentKey(); !ok {
		t.Error("CurrentKey should succeed")
	}

	empty := &Static{}
	if _, ok := empty.Identity(); ok {
		t.Error("empty Static must not be connected")
	}
	if _, ok := (&Static{Address: "0xdef", Key: []byte{0x01}}).CurrentKey(); ok {
		t.Error("wrong-size key must not be usable")
	}
}
