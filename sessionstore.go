package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gotd/td/session"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// EncryptedFileStorage is a session.Storage that keeps the MTProto
// session on disk sealed with XChaCha20-Poly1305. The key is derived from
// the passphrase with HKDF-SHA256.
//
// File layout: nonce || ciphertext.
type EncryptedFileStorage struct {
	Path string

	mu  sync.Mutex
	key []byte
}

var _ session.Storage = (*EncryptedFileStorage)(nil)

func NewEncryptedFileStorage(path, passphrase string) (*EncryptedFileStorage, error) {
	if passphrase == "" {
		return nil, errors.New("session encryption key is empty")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(passphrase), nil, []byte("clinic-watch session v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return &EncryptedFileStorage{Path: path, key: key}, nil
}

func (s *EncryptedFileStorage) LoadSession(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(data) < aead.NonceSize() {
		return nil, errors.New("session file is truncated")
	}
	nonce, sealed := data[:aead.NonceSize()], data[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt session (wrong DATABASE_ENCRYPTION_KEY?): %w", err)
	}
	return plain, nil
}

func (s *EncryptedFileStorage) StoreSession(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(data)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("crypto/rand failed: %w", err)
	}
	out := aead.Seal(nonce, nonce, data, nil)

	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, out, 0600)
}
