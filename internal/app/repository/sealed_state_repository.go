package repository

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrStateTampered is returned when a sealed value fails to open.
var ErrStateTampered = errors.New("sealed state could not be opened")

type sealedStateRepository struct {
	inner  StateRepository
	key    [32]byte
	sealed map[string]bool
}

// NewSealedStateRepository encrypts the values of the given keys at rest with
// a key derived from secret. Other keys pass through unchanged.
func NewSealedStateRepository(inner StateRepository, secret string, keys ...string) StateRepository {
	sealed := make(map[string]bool, len(keys))
	for _, k := range keys {
		sealed[k] = true
	}
	return &sealedStateRepository{
		inner:  inner,
		key:    blake2b.Sum256([]byte(secret)),
		sealed: sealed,
	}
}

func (r *sealedStateRepository) Get(ctx context.Context, namespace, key string) (string, error) {
	value, err := r.inner.Get(ctx, namespace, key)
	if err != nil || !r.sealed[key] {
		return value, err
	}

	box, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(box) < nonceSize {
		return "", ErrStateTampered
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])

	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &r.key)
	if !ok {
		return "", ErrStateTampered
	}
	return string(plain), nil
}

func (r *sealedStateRepository) Set(ctx context.Context, namespace, key, value string) error {
	if !r.sealed[key] {
		return r.inner.Set(ctx, namespace, key, value)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, &r.key)
	return r.inner.Set(ctx, namespace, key, base64.RawURLEncoding.EncodeToString(box))
}

func (r *sealedStateRepository) Delete(ctx context.Context, namespace, key string) error {
	return r.inner.Delete(ctx, namespace, key)
}
