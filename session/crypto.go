package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

const sealedPrefix = "s1:"

var errMalformed = errors.New("malformed session cookie")

// codec seals and opens session payloads with AES-256-GCM. The key is derived
// from the configured secret the same way for every process, so any instance
// behind a load balancer can open cookies issued by another.
type codec struct {
	gcm cipher.AEAD
}

func newCodec(secret string) (*codec, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	key := sha256.Sum256([]byte("enc:" + secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &codec{gcm: gcm}, nil
}

func (c *codec) Seal(plain []byte) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	cipherText := c.gcm.Seal(nil, nonce, plain, nil)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(nonce) + ":" + base64.RawURLEncoding.EncodeToString(cipherText), nil
}

func (c *codec) Open(value string) ([]byte, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return nil, errMalformed
	}
	parts := strings.SplitN(strings.TrimPrefix(value, sealedPrefix), ":", 2)
	if len(parts) != 2 {
		return nil, errMalformed
	}
	nonce, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, errMalformed
	}
	cipherText, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, errMalformed
	}
	if len(nonce) != c.gcm.NonceSize() {
		return nil, errMalformed
	}
	return c.gcm.Open(nil, nonce, cipherText, nil)
}
