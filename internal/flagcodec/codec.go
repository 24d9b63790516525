// Package flagcodec hides flag tokens from casual inspection.
//
// Tokens are the plaintext XORed byte by byte with a repeating salt and then
// base64 encoded. This is obfuscation only: anyone holding the salt, which
// ships with the server configuration, can reverse it.
package flagcodec

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// DefaultSalt is the salt used when none is configured
const DefaultSalt = "quantum-7x"

var (
	// ErrEmptySalt is returned when constructing a codec without a salt
	ErrEmptySalt = errors.New("flag salt must not be empty")

	// ErrMalformedToken is returned when a token is not valid base64
	ErrMalformedToken = errors.New("malformed flag token")
)

// Codec encodes and decodes flag tokens with a fixed salt
type Codec struct {
	salt []byte
}

// New creates a codec for the given salt
func New(salt string) (*Codec, error) {
	if salt == "" {
		return nil, ErrEmptySalt
	}
	return &Codec{salt: []byte(salt)}, nil
}

// MustNew is New for salts known at compile time
func MustNew(salt string) *Codec {
	c, err := New(salt)
	if err != nil {
		panic(err)
	}
	return c
}

// Encode obfuscates plain into a token
func (c *Codec) Encode(plain string) string {
	return base64.StdEncoding.EncodeToString(c.xor([]byte(plain)))
}

// Decode reverses Encode
func (c *Codec) Decode(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return string(c.xor(raw)), nil
}

func (c *Codec) xor(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ c.salt[i%len(c.salt)]
	}
	return out
}
