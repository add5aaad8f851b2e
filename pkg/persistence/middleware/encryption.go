package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/ferrobraz/parley/pkg/ports"
)

// envelopeNodeID marks a stored record as an encrypted envelope rather than
// a plaintext conversation state.
const envelopeNodeID = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.StateStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts conversation
// state at rest using AES-GCM. Dialogue history is personal content; the
// inner store only ever sees an opaque envelope.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.StateStore) ports.StateStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, key domain.ConversationKey, state *domain.ConversationState) error {
	plainText, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt state: %w", err)
	}

	// The envelope keeps Blocked visible for monitoring; everything else is
	// hidden inside a single ciphertext message.
	envelope := &domain.ConversationState{
		CurrentNodeID: envelopeNodeID,
		Blocked:       state.Blocked,
		History: []domain.Message{{
			Speaker: envelopeNodeID,
			Text:    base64.StdEncoding.EncodeToString(ciphertext),
		}},
	}

	return m.next.Save(ctx, key, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, key domain.ConversationKey) (*domain.ConversationState, error) {
	envelope, err := m.next.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	if envelope.CurrentNodeID != envelopeNodeID || len(envelope.History) != 1 {
		return nil, fmt.Errorf("stored conversation %s is not an encrypted envelope", key.String())
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope.History[0].Text)
	if err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	plainText, err := m.decryptWithRotation(ciphertext)
	if err != nil {
		return nil, err
	}

	var state domain.ConversationState
	if err := json.Unmarshal(plainText, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted state: %w", err)
	}
	return &state, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, key domain.ConversationKey) error {
	return m.next.Delete(ctx, key)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]domain.ConversationKey, error) {
	return m.next.List(ctx)
}

// decryptWithRotation tries the active key first, then each fallback key.
func (m *encryptionMiddleware) decryptWithRotation(ciphertext []byte) ([]byte, error) {
	plainText, err := decrypt(ciphertext, m.config.ActiveKey)
	if err == nil {
		return plainText, nil
	}

	for _, fallback := range m.config.FallbackKeys {
		if plainText, err := decrypt(ciphertext, fallback); err == nil {
			return plainText, nil
		}
	}
	return nil, errors.New("failed to decrypt state with any configured key")
}

func encrypt(plainText, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plainText, nil), nil
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext shorter than nonce")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}
