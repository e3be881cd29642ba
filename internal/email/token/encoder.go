package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// tokenAlphabet covers base64url output. Candidates containing anything else
// cannot be tokens and are rejected before any crypto work.
const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// minTokenLength is the shortest base64url string that can hold a GCM nonce
// plus a sealed one-pair content.
const minTokenLength = 20

// Encode encrypts formatted content with the recipient's key and wraps the
// ciphertext in unpadded base64url so it can live in an email local part.
// Key length must be a valid AES size; a bad key here is a configuration
// error and does raise.
func Encode(c Content, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("invalid token key: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(Format(c)), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode reverses Encode. Every failure mode, malformed base64, wrong or
// short key, corrupted ciphertext, decrypted-but-unparseable content,
// resolves to nil: inbound tokens are adversarial input and must degrade
// without raising.
func Decode(token string, key []byte) Content {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil
	}
	if len(raw) < gcm.NonceSize() {
		return nil
	}
	plaintext, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], nil)
	if err != nil {
		return nil
	}
	return Parse(string(plaintext))
}

// CouldBeToken is a cheap plausibility check used to scan a message's
// recipient list without attempting decryption on every candidate.
func CouldBeToken(candidate string) bool {
	if len(candidate) < minTokenLength {
		return false
	}
	for i := 0; i < len(candidate); i++ {
		if strings.IndexByte(tokenAlphabet, candidate[i]) < 0 {
			return false
		}
	}
	return true
}
