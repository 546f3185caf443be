package persistence

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const sealInfo = "marketplace-booking/kv-seal/v1"

// SealedStore encrypts values with XChaCha20-Poly1305 before handing them to
// the wrapped store. The key is derived from a caller secret via HKDF-SHA256,
// and the storage key is bound as additional data so blobs cannot be swapped.
type SealedStore struct {
	inner  KeyValueStore
	aead   cipher.AEAD
	random io.Reader
}

// NewSealedStore wraps inner with authenticated encryption keyed by secret.
func NewSealedStore(inner KeyValueStore, secret string) (*SealedStore, error) {
	if inner == nil {
		return nil, errors.New("persistence: sealed store requires an inner store")
	}
	if secret == "" {
		return nil, errors.New("persistence: sealed store requires a secret")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(sealInfo)), key); err != nil {
		return nil, fmt.Errorf("derive seal key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &SealedStore{inner: inner, aead: aead, random: rand.Reader}, nil
}

// Get opens the value stored under key.
func (s *SealedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize+s.aead.Overhead() {
		return nil, ErrSealed
	}
	plain, err := s.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], []byte(key))
	if err != nil {
		return nil, ErrSealed
	}
	return plain, nil
}

// Put seals value and stores it under key.
func (s *SealedStore) Put(ctx context.Context, key string, value []byte) error {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := io.ReadFull(s.random, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	return s.inner.Put(ctx, key, s.aead.Seal(nonce, nonce, value, []byte(key)))
}

// Delete removes key from the wrapped store.
func (s *SealedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
