// Package identity provides access to the connected wallet identity and its
// derived symmetric encryption key. Key derivation itself happens at
// connect time, outside this system; this package only reads the session.
package identity

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"strings"
)

// KeySize is the required symmetric key length (AES-256).
const KeySize = 32

// Provider exposes the currently connected identity, if any.
type Provider interface {
	// Identity returns the wallet address, or false when not connected.
	Identity() (string, bool)
	// CurrentKey returns the symmetric payload key, or false when no
	// usable key is available.
	CurrentKey() ([]byte, bool)
}

// session is the on-disk wallet session written at connect time.
type session struct {
	Address string `json:"address"`
	KeyHex  string `json:"key"`
}

// FileSession reads the wallet session from a JSON file. A missing,
// malformed, or short-keyed session means "not connected".
type FileSession struct {
	path string
}

// NewFileSession creates a provider backed by the session file at path.
func NewFileSession(path string) *FileSession {
	return &FileSession{path: path}
}

func (f *FileSession) load() (*session, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, false
	}
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false
	}
	if strings.TrimSpace(s.Address) == "" {
		return nil, false
	}
	return &s, true
}

// Identity implements Provider.
func (f *FileSession) Identity() (string, bool) {
	s, ok := f.load()
	if !ok {
		return "", false
	}
	return s.Address, true
}

// CurrentKey implements Provider.
func (f *FileSession) CurrentKey() ([]byte, bool) {
	s, ok := f.load()
	if !ok {
		return nil, false
	}
	key, err := hex.DecodeString(s.KeyHex)
	if err != nil || len(key) != KeySize {
		return nil, false
	}
	return key, true
}

// Static is a fixed in-memory identity, used by tests and the background
// sync path where the session must already exist.
type Static struct {
	Address string
	Key     []byte
}

// Identity implements Provider.
func (s *Static) Identity() (string, bool) {
	if s == nil || s.Address == "" {
		return "", false
	}
	return s.Address, true
}

// CurrentKey implements Provider.
func (s *Static) CurrentKey() ([]byte, bool) {
	if s == nil || len(s.Key) != KeySize {
		return nil, false
	}
	return s.Key, true
}
