package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/set-night/gembot/internal/domain"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize          = 32
	pbkdf2Iterations = 100_000
)

// Cipher encrypts stored credentials with AES-256-GCM. Ciphertexts are
// base64(nonce || sealed).
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the AES key from a secret and salt with PBKDF2-SHA-256.
func NewCipher(secret, salt string) (*Cipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption secret is empty")
	}
	key := pbkdf2.Key([]byte(secret), []byte(salt), pbkdf2Iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidCiphertext, err)
	}
	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", domain.ErrInvalidCiphertext
	}
	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidCiphertext, err)
	}
	return string(plain), nil
}

// HashUserID returns the SHA-256 hex digest of the decimal Telegram user id.
func HashUserID(userID int64) string {
	return hashString(strconv.FormatInt(userID, 10))
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
