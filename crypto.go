package corekit

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"
)

// Secret is the set of types accepted as HMAC keys.  Text secrets are
// used as their UTF-8 bytes.
type Secret interface {
	~string | ~[]byte
}

// RandomBytesHex reads n cryptographically random bytes and returns them as
// a lowercase hexadecimal string of length 2n.
func RandomBytesHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// HMACDigest returns the hexadecimal HMAC-SHA256 of message keyed by secret.
func HMACDigest[S Secret](secret S, message string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// Encode64 returns the standard base64 encoding of content.
func Encode64(content string) string {
	return base64.StdEncoding.EncodeToString([]byte(content))
}

// Decode64 reverses Encode64.
func Decode64(encoded string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// now is swapped out by tests
var now = time.Now

// MsecTime returns the current epoch time in milliseconds.
func MsecTime() int64 {
	return now().UnixNano() / int64(time.Millisecond)
}
